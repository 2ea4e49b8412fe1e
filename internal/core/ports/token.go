package ports

import "github.com/3d-marketplace/auth-api/internal/core/domain"

// TokenVerifier validates a bearer token and returns its claims. Invalid or
// expired tokens yield domain.ErrInvalidToken.
type TokenVerifier interface {
	Verify(token string) (*domain.Claims, error)
}
