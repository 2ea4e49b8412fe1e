package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/3d-marketplace/auth-api/internal/core/domain"
	"github.com/3d-marketplace/auth-api/internal/core/ports"
	"github.com/3d-marketplace/auth-api/internal/pkg/metrics"
)

// AuthService implements login, registration, logout and password changes
// on top of the document store.
type AuthService struct {
	store     ports.DocumentStore
	passwords *PasswordVerifier
	tokens    *TokenIssuer
	log       zerolog.Logger
	nowF      func() time.Time
}

func NewAuthService(store ports.DocumentStore, passwords *PasswordVerifier, tokens *TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{
		store:     store,
		passwords: passwords,
		tokens:    tokens,
		log:       log,
		nowF:      func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates by username or email. Unknown users and wrong
// passwords both yield ErrInvalidCredentials; disabled accounts yield
// ErrAccountDisabled. A successful login persists twice: once for the
// last-login stamp and once for the session record.
func (s *AuthService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginResult, error) {
	if in.Login == "" || in.Password == "" {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_input").Inc()
		return nil, domain.NewValidationError("username and password are required")
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	user := doc.FindUserByLogin(in.Login)
	if user == nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		metrics.LoginAttemptsTotal.WithLabelValues("disabled").Inc()
		return nil, domain.ErrAccountDisabled
	}
	if !s.passwords.Verify(user.Username, in.Password, user.Password) {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	now := s.nowF()
	userID := user.ID

	var current domain.User
	if err := s.store.Update(ctx, func(d *domain.Document) error {
		u := d.FindUserByID(userID)
		if u == nil {
			return domain.ErrInvalidCredentials
		}
		u.LastLogin = &now
		current = *u
		return nil
	}); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(loginOutcome(err)).Inc()
		return nil, fmt.Errorf("login: record last login: %w", err)
	}

	token, expiresAt, err := s.tokens.Issue(&current)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: %w", err)
	}

	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    current.ID,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: expiresAt,
		UserAgent: in.UserAgent,
		IP:        in.IP,
	}
	if err := s.store.Update(ctx, func(d *domain.Document) error {
		d.Sessions = append(d.Sessions, session)
		return nil
	}); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("login: record session: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.log.Info().
		Int("user_id", current.ID).
		Str("username", current.Username).
		Str("session_id", session.ID).
		Str("ip", in.IP).
		Msg("user logged in")

	return &ports.LoginResult{Token: token, ExpiresAt: expiresAt, User: &current}, nil
}

// loginOutcome labels a failure from the last-login write. The user can
// vanish between the read and the write if deleted out of band.
func loginOutcome(err error) string {
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return "invalid_credentials"
	}
	return "error"
}

// Register creates a customer account. Duplicate usernames or emails fail
// with ErrUserExists; no token is issued.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if in.Username == "" || in.Email == "" || in.Password == "" || in.FullName == "" {
		metrics.RegistrationsTotal.WithLabelValues("invalid_input").Inc()
		return nil, domain.NewValidationError("all fields are required")
	}
	if err := checkPasswordLength("password", in.Password); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid_input").Inc()
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.nowF()
	var created domain.User
	err = s.store.Update(ctx, func(d *domain.Document) error {
		if d.HasUsernameOrEmail(in.Username, in.Email) {
			return domain.ErrUserExists
		}
		created = domain.NewCustomer(d.NextUserID(), in.Username, in.Email, hash, in.FullName, now)
		d.Users = append(d.Users, created)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			metrics.RegistrationsTotal.WithLabelValues("conflict").Inc()
			return nil, err
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("register: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	s.log.Info().Int("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return &created, nil
}

// Logout drops every session recorded for token. Repeating it is a no-op.
func (s *AuthService) Logout(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, domain.ErrMissingToken
	}

	removed := 0
	if err := s.store.Update(ctx, func(d *domain.Document) error {
		removed = d.RemoveSessionsByToken(token)
		return nil
	}); err != nil {
		return 0, fmt.Errorf("logout: %w", err)
	}

	metrics.LogoutSessionsRemovedTotal.Add(float64(removed))
	s.log.Debug().Int("sessions_removed", removed).Msg("user logged out")
	return removed, nil
}

// ChangePassword rotates the password after checking the current one.
// Existing sessions and tokens stay valid until they expire.
func (s *AuthService) ChangePassword(ctx context.Context, userID int, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return domain.NewValidationError("current and new password are required")
	}
	if err := checkPasswordLength("new password", newPassword); err != nil {
		return err
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	user := doc.FindUserByID(userID)
	if user == nil {
		return domain.ErrUserNotFound
	}
	if !s.passwords.Verify(user.Username, currentPassword, user.Password) {
		return domain.ErrWrongPassword
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("change password: hash: %w", err)
	}

	err = s.store.Update(ctx, func(d *domain.Document) error {
		u := d.FindUserByID(userID)
		if u == nil {
			return domain.ErrUserNotFound
		}
		u.Password = hash
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Int("user_id", userID).Msg("password changed")
	return nil
}

func checkPasswordLength(field, password string) error {
	if len(password) < domain.MinPasswordLength {
		return domain.NewValidationError(fmt.Sprintf("%s must be at least %d characters", field, domain.MinPasswordLength))
	}
	if len(password) > domain.MaxPasswordBytes {
		return domain.NewValidationError(fmt.Sprintf("%s must be at most %d bytes", field, domain.MaxPasswordBytes))
	}
	return nil
}
