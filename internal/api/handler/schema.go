package handler

import (
	"time"

	"github.com/3d-marketplace/auth-api/internal/core/domain"
)

// --- Requests ---

// Required-field checks live in the services so their messages stay stable;
// tags here only bound sizes and formats.

type loginRequest struct {
	// Username accepts either the username or the email address.
	Username string `json:"username" validate:"max=254"`
	Password string `json:"password" validate:"max=72"`
}

type registerRequest struct {
	Username string `json:"username" validate:"max=50"`
	Email    string `json:"email" validate:"omitempty,max=254,email"`
	Password string `json:"password" validate:"max=72"`
	FullName string `json:"fullName" validate:"max=100"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"max=72"`
	NewPassword     string `json:"newPassword" validate:"max=72"`
}

type updateProfileRequest struct {
	FullName    *string             `json:"fullName" validate:"omitempty,max=100"`
	Phone       *string             `json:"phone" validate:"omitempty,max=30"`
	Address     *domain.Address     `json:"address"`
	Preferences *domain.Preferences `json:"preferences"`
}

// --- Responses ---
// Every user projection omits the password hash.

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type sessionUser struct {
	ID          int                `json:"id"`
	Username    string             `json:"username"`
	Email       string             `json:"email"`
	FullName    string             `json:"fullName"`
	Role        string             `json:"role"`
	Avatar      string             `json:"avatar"`
	Preferences domain.Preferences `json:"preferences"`
}

type loginResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    sessionUser `json:"user"`
}

type registeredUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type registerResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    registeredUser `json:"user"`
}

type profileUser struct {
	ID          int                `json:"id"`
	Username    string             `json:"username"`
	Email       string             `json:"email"`
	FullName    string             `json:"fullName"`
	Role        string             `json:"role"`
	Avatar      string             `json:"avatar"`
	CreatedAt   time.Time          `json:"createdAt"`
	LastLogin   *time.Time         `json:"lastLogin"`
	Preferences domain.Preferences `json:"preferences"`
	Address     domain.Address     `json:"address"`
	Phone       string             `json:"phone"`
}

type profileResponse struct {
	Success bool        `json:"success"`
	User    profileUser `json:"user"`
}

type updatedProfileUser struct {
	ID          int                `json:"id"`
	Username    string             `json:"username"`
	Email       string             `json:"email"`
	FullName    string             `json:"fullName"`
	Role        string             `json:"role"`
	Avatar      string             `json:"avatar"`
	Preferences domain.Preferences `json:"preferences"`
	Address     domain.Address     `json:"address"`
	Phone       string             `json:"phone"`
}

type updateProfileResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	User    updatedProfileUser `json:"user"`
}

type adminUser struct {
	ID        int        `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	LastLogin *time.Time `json:"lastLogin"`
	IsActive  bool       `json:"isActive"`
}

type listUsersResponse struct {
	Success bool        `json:"success"`
	Users   []adminUser `json:"users"`
	Total   int         `json:"total"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
