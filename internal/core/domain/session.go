package domain

import "time"

// Session links an issued token to the login that produced it. It is only
// used for logout bookkeeping; token validity is decided by the signature.
type Session struct {
	ID        string    `json:"id" bson:"id"`
	UserID    int       `json:"userId" bson:"userId"`
	Token     string    `json:"token" bson:"token"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
	UserAgent string    `json:"userAgent" bson:"userAgent"`
	IP        string    `json:"ip" bson:"ip"`
}
