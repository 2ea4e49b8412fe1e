package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/3d-marketplace/auth-api/internal/core/domain"
)

func TestAdminHandler_ListUsers(t *testing.T) {
	e := newTestEcho()
	now := time.Now()
	handler := NewAdminHandler(&stubAccountService{
		listUsersFn: func(ctx context.Context, callerRole string) ([]domain.User, error) {
			if callerRole != domain.RoleAdmin {
				t.Fatalf("role not forwarded: %q", callerRole)
			}
			return []domain.User{
				{ID: 1, Username: "admin", Password: "$2a$10$a", Role: domain.RoleAdmin, IsActive: true, CreatedAt: now},
				{ID: 2, Username: "johndoe", Password: "$2a$10$b", Role: domain.RoleCustomer, IsActive: false, CreatedAt: now},
			}, nil
		},
	})

	c, rec := authedContext(t, e, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil),
		&domain.User{ID: 1, Username: "admin", Role: domain.RoleAdmin})

	if err := handler.ListUsers(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decode(t, rec)
	if resp["total"] != float64(2) {
		t.Fatalf("unexpected total: %v", resp["total"])
	}
	users := resp["users"].([]any)
	second := users[1].(map[string]any)
	if second["isActive"] != false || second["username"] != "johndoe" {
		t.Fatalf("unexpected user: %+v", second)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("password field leaked: %s", rec.Body.String())
	}
}

func TestAdminHandler_ListUsers_Forbidden(t *testing.T) {
	e := newTestEcho()
	handler := NewAdminHandler(&stubAccountService{
		listUsersFn: func(ctx context.Context, callerRole string) ([]domain.User, error) {
			return nil, domain.ErrForbidden
		},
	})

	c, _ := authedContext(t, e, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil),
		&domain.User{ID: 2, Role: domain.RoleCustomer})

	if err := handler.ListUsers(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
