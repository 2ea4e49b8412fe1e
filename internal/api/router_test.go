package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/3d-marketplace/auth-api/internal/api/handler"
	"github.com/3d-marketplace/auth-api/internal/api/middleware"
	"github.com/3d-marketplace/auth-api/internal/core/domain"
	"github.com/3d-marketplace/auth-api/internal/core/service"
	"github.com/3d-marketplace/auth-api/internal/infrastructure/db/jsonfile"
	"github.com/3d-marketplace/auth-api/internal/infrastructure/queue"
	"github.com/3d-marketplace/auth-api/internal/infrastructure/seed"
)

type testServer struct {
	handler http.Handler
	store   *jsonfile.Store
}

func newTestServer(t *testing.T, loginLimit int) *testServer {
	return newTestServerWithWindow(t, loginLimit, 15*time.Minute)
}

func newTestServerWithWindow(t *testing.T, loginLimit int, loginWindow time.Duration) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	q := queue.NewSerializer(0, zerolog.Nop())
	q.Start(ctx)

	store := jsonfile.NewStore(filepath.Join(t.TempDir(), "users.json"), q, zerolog.Nop())
	if err := store.EnsureExists(ctx); err != nil {
		t.Fatalf("ensure store: %v", err)
	}

	passwords := service.NewPasswordVerifier(bcrypt.MinCost, nil)
	if _, err := seed.Apply(ctx, store, passwords, false, time.Now()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	tokens := service.NewTokenIssuer("test-secret", time.Hour)
	reg := prometheus.NewRegistry()

	e := NewRouter(Dependencies{
		Auth:             service.NewAuthService(store, passwords, tokens, zerolog.Nop()),
		Accounts:         service.NewAccountService(store, zerolog.Nop()),
		Tokens:           tokens,
		LoginLimiter:     middleware.NewMemoryWindowStore(loginLimit, loginWindow),
		LoginWindow:      loginWindow,
		Readiness:        map[string]handler.Pinger{"store": handler.StorePinger{Store: store}},
		CORSAllowOrigins: []string{"*"},
		Registerer:       reg,
		Gatherer:         reg,
		Log:              zerolog.Nop(),
	})
	return &testServer{handler: e, store: store}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) (int, map[string]any, string) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec.Code, out, rec.Body.String()
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	code, body, raw := s.do(t, http.MethodPost, "/api/login",
		`{"username":"`+username+`","password":"`+password+`"}`, "")
	if code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", username, code, raw)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s: missing token", username)
	}
	return token
}

func TestRouter_RegisterLoginAndAdminGate(t *testing.T) {
	s := newTestServer(t, 100)

	code, body, raw := s.do(t, http.MethodPost, "/api/register",
		`{"username":"alice","email":"a@x.com","password":"password1","fullName":"Alice"}`, "")
	if code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", code, raw)
	}
	user := body["user"].(map[string]any)
	if user["id"] != float64(5) || user["role"] != domain.RoleCustomer {
		t.Fatalf("unexpected registered user: %+v", user)
	}

	code, body, raw = s.do(t, http.MethodPost, "/api/login", `{"username":"alice","password":"password1"}`, "")
	if code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", code, raw)
	}
	if strings.Contains(raw, "password\"") {
		t.Fatalf("login response leaks password field: %s", raw)
	}
	aliceToken := body["token"].(string)

	code, _, raw = s.do(t, http.MethodGet, "/api/admin/users", "", aliceToken)
	if code != http.StatusForbidden {
		t.Fatalf("admin as customer: expected 403, got %d: %s", code, raw)
	}

	adminToken := s.login(t, "admin", "admin123")
	code, body, raw = s.do(t, http.MethodGet, "/api/admin/users", "", adminToken)
	if code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d: %s", code, raw)
	}
	if body["total"] != float64(5) {
		t.Fatalf("expected 5 users, got %v", body["total"])
	}
	for _, u := range body["users"].([]any) {
		if _, ok := u.(map[string]any)["password"]; ok {
			t.Fatalf("admin listing leaks password: %s", raw)
		}
	}
}

func TestRouter_LoginByEmail(t *testing.T) {
	s := newTestServer(t, 100)
	s.login(t, "john@example.com", "john123")
}

func TestRouter_LoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t, 100)

	codeA, bodyA, _ := s.do(t, http.MethodPost, "/api/login", `{"username":"ghost","password":"whatever"}`, "")
	codeB, bodyB, _ := s.do(t, http.MethodPost, "/api/login", `{"username":"sarah","password":"wrong"}`, "")

	if codeA != http.StatusUnauthorized || codeB != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", codeA, codeB)
	}
	if bodyA["error"] != bodyB["error"] {
		t.Fatalf("messages differ: %v vs %v", bodyA["error"], bodyB["error"])
	}
}

func TestRouter_LoginValidation(t *testing.T) {
	s := newTestServer(t, 100)

	code, body, _ := s.do(t, http.MethodPost, "/api/login", `{"username":"admin"}`, "")
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if body["error"] == "" {
		t.Fatalf("expected error message")
	}
}

func TestRouter_DisabledAccount(t *testing.T) {
	s := newTestServer(t, 100)
	err := s.store.Update(context.Background(), func(d *domain.Document) error {
		d.FindUserByLogin("demo").IsActive = false
		return nil
	})
	if err != nil {
		t.Fatalf("disable: %v", err)
	}

	code, _, _ := s.do(t, http.MethodPost, "/api/login", `{"username":"demo","password":"demo123"}`, "")
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", code)
	}
}

func TestRouter_DuplicateRegistration(t *testing.T) {
	s := newTestServer(t, 100)

	code, body, _ := s.do(t, http.MethodPost, "/api/register",
		`{"username":"newbie","email":"john@example.com","password":"password1","fullName":"N"}`, "")
	if code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
	if body["error"] != domain.ErrUserExists.Error() {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestRouter_MultibytePasswordOverBcryptLimit(t *testing.T) {
	s := newTestServer(t, 100)
	long := strings.Repeat("é", 40)

	code, body, raw := s.do(t, http.MethodPost, "/api/register",
		`{"username":"accent","email":"accent@example.com","password":"`+long+`","fullName":"A"}`, "")
	if code != http.StatusBadRequest {
		t.Fatalf("register: expected 400, got %d: %s", code, raw)
	}
	if body["error"] != "password must be at most 72 bytes" {
		t.Fatalf("unexpected error: %v", body["error"])
	}

	token := s.login(t, "sarah", "sarah123")
	code, body, raw = s.do(t, http.MethodPost, "/api/change-password",
		`{"currentPassword":"sarah123","newPassword":"`+long+`"}`, token)
	if code != http.StatusBadRequest {
		t.Fatalf("change password: expected 400, got %d: %s", code, raw)
	}
	if body["error"] != "new password must be at most 72 bytes" {
		t.Fatalf("unexpected error: %v", body["error"])
	}
}

func TestRouter_ProfileUpdateKeepsRole(t *testing.T) {
	s := newTestServer(t, 100)
	token := s.login(t, "johndoe", "john123")

	code, body, raw := s.do(t, http.MethodPut, "/api/profile",
		`{"fullName":"Johnny","role":"admin","phone":"+62 811","address":{"street":"Jl. Baru 1","city":"Bandung","state":"Jawa Barat","zipCode":"40115","country":"Indonesia"}}`, token)
	if code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", code, raw)
	}
	user := body["user"].(map[string]any)
	if user["role"] != domain.RoleCustomer || user["fullName"] != "Johnny" || user["phone"] != "+62 811" {
		t.Fatalf("unexpected user: %+v", user)
	}

	code, body, _ = s.do(t, http.MethodGet, "/api/profile", "", token)
	if code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d", code)
	}
	user = body["user"].(map[string]any)
	if user["lastLogin"] == nil {
		t.Fatalf("lastLogin should be set after login")
	}
	if user["address"].(map[string]any)["city"] != "Bandung" {
		t.Fatalf("address not persisted: %+v", user["address"])
	}
}

func TestRouter_ChangePasswordThenLogin(t *testing.T) {
	s := newTestServer(t, 100)
	token := s.login(t, "sarah", "sarah123")

	code, _, _ := s.do(t, http.MethodPost, "/api/change-password",
		`{"currentPassword":"wrong-one","newPassword":"brandnew99"}`, token)
	if code != http.StatusUnauthorized {
		t.Fatalf("wrong current password: expected 401, got %d", code)
	}

	code, _, raw := s.do(t, http.MethodPost, "/api/change-password",
		`{"currentPassword":"sarah123","newPassword":"brandnew99"}`, token)
	if code != http.StatusOK {
		t.Fatalf("change password: expected 200, got %d: %s", code, raw)
	}

	s.login(t, "sarah", "brandnew99")
}

func TestRouter_LogoutRemovesSessions(t *testing.T) {
	s := newTestServer(t, 100)
	token := s.login(t, "demo", "demo123")

	code, _, _ := s.do(t, http.MethodPost, "/api/logout", "", token)
	if code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", code)
	}

	doc, err := s.store.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, sess := range doc.Sessions {
		if sess.Token == token {
			t.Fatalf("session for token still present")
		}
	}

	// The token stays valid until expiry; logging out again is a no-op.
	code, _, _ = s.do(t, http.MethodPost, "/api/logout", "", token)
	if code != http.StatusOK {
		t.Fatalf("second logout: expected 200, got %d", code)
	}
}

func TestRouter_TokenGate(t *testing.T) {
	s := newTestServer(t, 100)

	code, body, _ := s.do(t, http.MethodGet, "/api/profile", "", "")
	if code != http.StatusUnauthorized || body["error"] != domain.ErrMissingToken.Error() {
		t.Fatalf("missing token: got %d %v", code, body)
	}

	code, body, _ = s.do(t, http.MethodGet, "/api/profile", "", "garbage")
	if code != http.StatusForbidden || body["error"] != domain.ErrInvalidToken.Error() {
		t.Fatalf("invalid token: got %d %v", code, body)
	}
}

func TestRouter_LoginRateLimit(t *testing.T) {
	s := newTestServer(t, 5)

	for i := 0; i < 5; i++ {
		code, _, _ := s.do(t, http.MethodPost, "/api/login", `{"username":"ghost","password":"x"}`, "")
		if code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, code)
		}
	}

	code, body, _ := s.do(t, http.MethodPost, "/api/login", `{"username":"admin","password":"admin123"}`, "")
	if code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if !strings.Contains(body["error"].(string), "15 minutes") {
		t.Fatalf("unexpected message: %v", body["error"])
	}

	// Other endpoints are not limited.
	code, _, _ = s.do(t, http.MethodGet, "/api/health", "", "")
	if code != http.StatusOK {
		t.Fatalf("health: expected 200, got %d", code)
	}
}

func TestRouter_LoginRateLimitReportsConfiguredWindow(t *testing.T) {
	s := newTestServerWithWindow(t, 1, 5*time.Minute)

	s.do(t, http.MethodPost, "/api/login", `{"username":"ghost","password":"x"}`, "")
	code, body, _ := s.do(t, http.MethodPost, "/api/login", `{"username":"ghost","password":"x"}`, "")
	if code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if body["error"] != "too many login attempts, please try again in 5 minutes" {
		t.Fatalf("unexpected message: %v", body["error"])
	}
}

func TestRouter_UnknownEndpoint(t *testing.T) {
	s := newTestServer(t, 100)

	for _, path := range []string{"/api/nope", "/nothing/here"} {
		code, body, _ := s.do(t, http.MethodGet, path, "", "")
		if code != http.StatusNotFound || body["error"] != "endpoint not found" {
			t.Fatalf("%s: got %d %v", path, code, body)
		}
	}

	code, body, _ := s.do(t, http.MethodDelete, "/api/profile", "", "")
	if code != http.StatusNotFound || body["error"] != "endpoint not found" {
		t.Fatalf("wrong method: got %d %v", code, body)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t, 100)

	code, body, _ := s.do(t, http.MethodGet, "/api/health", "", "")
	if code != http.StatusOK || body["status"] != "OK" {
		t.Fatalf("health: got %d %v", code, body)
	}

	code, body, _ = s.do(t, http.MethodGet, "/api/health/ready", "", "")
	if code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("ready: got %d %v", code, body)
	}

	code, _, raw := s.do(t, http.MethodGet, "/metrics", "", "")
	if code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", code)
	}
	if !strings.Contains(raw, metricsSubsystem+"_requests_total") {
		t.Fatalf("http metrics not exposed")
	}
}
