package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account has been disabled")
	ErrUserExists         = errors.New("username or email already in use")
	ErrUserNotFound       = errors.New("user not found")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrForbidden          = errors.New("access denied")
	ErrMissingToken       = errors.New("access token required")
	ErrInvalidToken       = errors.New("invalid token")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrConflict           = errors.New("concurrent update conflict")
)

// ValidationError reports a missing or malformed request field. Its message
// is safe to return to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError returns a *ValidationError carrying msg.
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
