package entities

import "time"

// RefreshToken is a long-lived session credential. Only its hash is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	Revoked   bool
}
