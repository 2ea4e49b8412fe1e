// Package seed provides the storefront's demo accounts.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/3d-marketplace/auth-api/internal/core/domain"
	"github.com/3d-marketplace/auth-api/internal/core/ports"
)

// ErrNotEmpty is returned by Apply when the store already holds users and
// force was not requested.
var ErrNotEmpty = errors.New("seed: store already contains users")

// Hasher produces stored password credentials.
type Hasher interface {
	Hash(password string) (string, error)
}

// Account describes one demo login.
type Account struct {
	Username string
	Email    string
	FullName string
	Role     string
	Password string
	Phone    string
	Address  domain.Address
}

var demoAccounts = []Account{
	{
		Username: "admin",
		Email:    "admin@3dmarketplace.com",
		FullName: "Administrator",
		Role:     domain.RoleAdmin,
		Password: "admin123",
		Phone:    "+62 21 5550 1000",
		Address:  domain.Address{Street: "Jl. Sudirman No. 1", City: "Jakarta", State: "DKI Jakarta", ZipCode: "10220", Country: domain.DefaultCountry},
	},
	{
		Username: "johndoe",
		Email:    "john@example.com",
		FullName: "John Doe",
		Role:     domain.RoleCustomer,
		Password: "john123",
		Phone:    "+62 812 3456 7890",
		Address:  domain.Address{Street: "Jl. Asia Afrika No. 8", City: "Bandung", State: "Jawa Barat", ZipCode: "40111", Country: domain.DefaultCountry},
	},
	{
		Username: "sarah",
		Email:    "sarah@example.com",
		FullName: "Sarah Wijaya",
		Role:     domain.RoleCustomer,
		Password: "sarah123",
		Phone:    "+62 813 9876 5432",
		Address:  domain.Address{Street: "Jl. Malioboro No. 52", City: "Yogyakarta", State: "DI Yogyakarta", ZipCode: "55271", Country: domain.DefaultCountry},
	},
	{
		Username: "demo",
		Email:    "demo@3dmarketplace.com",
		FullName: "Demo User",
		Role:     domain.RoleCustomer,
		Password: "demo123",
		Address:  domain.Address{Country: domain.DefaultCountry},
	},
}

// DemoAccounts returns a copy of the demo account table.
func DemoAccounts() []Account {
	out := make([]Account, len(demoAccounts))
	copy(out, demoAccounts)
	return out
}

// DemoPasswords maps each demo username to its plaintext password. It feeds
// the password verifier's override table when demo accounts are enabled.
func DemoPasswords() map[string]string {
	m := make(map[string]string, len(demoAccounts))
	for _, a := range demoAccounts {
		m[a.Username] = a.Password
	}
	return m
}

// Users builds the demo users with hashed passwords and ids starting at 1.
func Users(h Hasher, now time.Time) ([]domain.User, error) {
	users := make([]domain.User, 0, len(demoAccounts))
	for i, a := range demoAccounts {
		hash, err := h.Hash(a.Password)
		if err != nil {
			return nil, fmt.Errorf("seed: hash %s: %w", a.Username, err)
		}

		u := domain.NewCustomer(i+1, a.Username, a.Email, hash, a.FullName, now)
		u.Role = a.Role
		u.Phone = a.Phone
		u.Address = a.Address
		users = append(users, u)
	}
	return users, nil
}

// Apply replaces the store's contents with the demo users and no sessions.
// It returns ErrNotEmpty if users exist and force is false.
func Apply(ctx context.Context, store ports.DocumentStore, h Hasher, force bool, now time.Time) (int, error) {
	users, err := Users(h, now)
	if err != nil {
		return 0, err
	}

	err = store.Update(ctx, func(doc *domain.Document) error {
		if len(doc.Users) > 0 && !force {
			return ErrNotEmpty
		}
		doc.Users = users
		doc.Sessions = []domain.Session{}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(users), nil
}
