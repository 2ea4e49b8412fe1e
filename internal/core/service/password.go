package service

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier hashes and checks passwords with bcrypt. An optional
// table of plaintext demo overrides can be injected for seeded showcase
// accounts; it is empty unless explicitly enabled.
type PasswordVerifier struct {
	cost int
	demo map[string]string
}

// NewPasswordVerifier clamps cost to bcrypt's accepted range. A nil or
// empty demo table disables the override path entirely.
func NewPasswordVerifier(cost int, demo map[string]string) *PasswordVerifier {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}

	table := make(map[string]string, len(demo))
	for k, v := range demo {
		table[k] = v
	}
	return &PasswordVerifier{cost: cost, demo: table}
}

// Hash returns a bcrypt hash of password.
func (v *PasswordVerifier) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), v.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether input is the password for username. The demo
// override is consulted first; otherwise input is compared to storedHash.
// Any bcrypt error, including a malformed hash, counts as a mismatch.
func (v *PasswordVerifier) Verify(username, input, storedHash string) bool {
	if want, ok := v.demo[username]; ok {
		if subtle.ConstantTimeCompare([]byte(want), []byte(input)) == 1 {
			return true
		}
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(input)) == nil
}

// DemoEnabled reports whether any demo override is configured.
func (v *PasswordVerifier) DemoEnabled() bool {
	return len(v.demo) > 0
}
