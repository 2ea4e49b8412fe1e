package ports

import (
	"context"

	"github.com/3d-marketplace/auth-api/internal/core/domain"
)

// ProfileUpdate lists the only fields a user may change on their own
// account. Nil means "leave unchanged"; nested objects replace wholesale.
type ProfileUpdate struct {
	FullName    *string
	Phone       *string
	Address     *domain.Address
	Preferences *domain.Preferences
}

// AccountService exposes profile reads/updates and the admin user listing.
type AccountService interface {
	Profile(ctx context.Context, userID int) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int, upd ProfileUpdate) (*domain.User, error)
	// ListUsers returns every account; callerRole must be domain.RoleAdmin.
	ListUsers(ctx context.Context, callerRole string) ([]domain.User, error)
}
