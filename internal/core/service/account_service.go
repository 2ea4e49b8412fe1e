package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/3d-marketplace/auth-api/internal/core/domain"
	"github.com/3d-marketplace/auth-api/internal/core/ports"
)

// AccountService serves profile reads/updates and the admin user listing.
type AccountService struct {
	store ports.DocumentStore
	log   zerolog.Logger
}

func NewAccountService(store ports.DocumentStore, log zerolog.Logger) *AccountService {
	return &AccountService{store: store, log: log}
}

// Profile returns the stored record for userID.
func (s *AccountService) Profile(ctx context.Context, userID int) (*domain.User, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	user := doc.FindUserByID(userID)
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	out := *user
	return &out, nil
}

// UpdateProfile applies the allow-listed fields in upd. Role, email,
// username and every other field are never touched here.
func (s *AccountService) UpdateProfile(ctx context.Context, userID int, upd ports.ProfileUpdate) (*domain.User, error) {
	var updated domain.User
	err := s.store.Update(ctx, func(d *domain.Document) error {
		u := d.FindUserByID(userID)
		if u == nil {
			return domain.ErrUserNotFound
		}
		if upd.FullName != nil {
			u.FullName = *upd.FullName
		}
		if upd.Phone != nil {
			u.Phone = *upd.Phone
		}
		if upd.Address != nil {
			u.Address = *upd.Address
		}
		if upd.Preferences != nil {
			u.Preferences = *upd.Preferences
		}
		updated = *u
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.log.Info().Int("user_id", userID).Msg("profile updated")
	return &updated, nil
}

// ListUsers returns all accounts for an admin caller.
func (s *AccountService) ListUsers(ctx context.Context, callerRole string) ([]domain.User, error) {
	if callerRole != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return doc.Users, nil
}
