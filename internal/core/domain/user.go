package domain

import "time"

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

// Defaults applied to accounts created through registration.
const (
	DefaultAvatar   = "👤"
	DefaultTheme    = "dark"
	DefaultLanguage = "id"
	DefaultCountry  = "Indonesia"
)

// Password length bounds. The maximum is in bytes since bcrypt ignores
// anything past its 72nd input byte.
const (
	MinPasswordLength = 8
	MaxPasswordBytes  = 72
)

// Preferences holds per-user UI settings.
type Preferences struct {
	Theme         string `json:"theme" bson:"theme"`
	Language      string `json:"language" bson:"language"`
	Notifications bool   `json:"notifications" bson:"notifications"`
}

// Address is the user's shipping address.
type Address struct {
	Street  string `json:"street" bson:"street"`
	City    string `json:"city" bson:"city"`
	State   string `json:"state" bson:"state"`
	ZipCode string `json:"zipCode" bson:"zipCode"`
	Country string `json:"country" bson:"country"`
}

// User is a persisted account. Password holds a bcrypt hash and must never
// leave the service layer; transport code renders redacted projections.
type User struct {
	ID          int         `json:"id" bson:"id"`
	Username    string      `json:"username" bson:"username"`
	Email       string      `json:"email" bson:"email"`
	Password    string      `json:"password" bson:"password"`
	FullName    string      `json:"fullName" bson:"fullName"`
	Role        string      `json:"role" bson:"role"`
	Avatar      string      `json:"avatar" bson:"avatar"`
	CreatedAt   time.Time   `json:"createdAt" bson:"createdAt"`
	LastLogin   *time.Time  `json:"lastLogin" bson:"lastLogin"`
	IsActive    bool        `json:"isActive" bson:"isActive"`
	Preferences Preferences `json:"preferences" bson:"preferences"`
	Address     Address     `json:"address" bson:"address"`
	Phone       string      `json:"phone" bson:"phone"`
}

// NewCustomer builds an active customer account with default preferences
// and an empty address.
func NewCustomer(id int, username, email, passwordHash, fullName string, now time.Time) User {
	return User{
		ID:        id,
		Username:  username,
		Email:     email,
		Password:  passwordHash,
		FullName:  fullName,
		Role:      RoleCustomer,
		Avatar:    DefaultAvatar,
		CreatedAt: now,
		IsActive:  true,
		Preferences: Preferences{
			Theme:         DefaultTheme,
			Language:      DefaultLanguage,
			Notifications: true,
		},
		Address: Address{Country: DefaultCountry},
	}
}

// Claims is the identity carried by a bearer token.
type Claims struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
