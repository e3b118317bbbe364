package domain

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is one persisted session record. Its lifecycle is
// Issued -> Active -> Rotated | Revoked | Expired; the row's existence is
// the sole proof the token has not been consumed, so Rotated and Revoked
// are expressed as deletion, never as a status column.
type RefreshToken struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	DeviceInfo string
	IssuedAt   time.Time
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the row's absolute expiry has passed.
func (t *RefreshToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// NewRefreshTokenID mints a time-ordered token id. UUIDv7 keeps the
// refresh_tokens primary key index append-mostly.
func NewRefreshTokenID() (uuid.UUID, error) {
	return uuid.NewV7()
}

// TokenPair is the result of a successful login or rotation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
