package ports

import (
	"context"
	"time"

	"github.com/3d-marketplace/auth-api/internal/core/domain"
)

// LoginInput carries credentials plus the request metadata recorded on the
// session.
type LoginInput struct {
	Login     string // username or email
	Password  string
	UserAgent string
	IP        string
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// RegisterInput carries the fields required to create an account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

// AuthService covers the credential and session lifecycle.
type AuthService interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Logout removes the sessions recorded for token and reports how many.
	Logout(ctx context.Context, token string) (int, error)
	ChangePassword(ctx context.Context, userID int, currentPassword, newPassword string) error
}
