package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role tags stored on a user record.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User is an identity record. This service only reads users during
// credential flows; rows are written by registration alone.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccessClaims projects the user onto the configured allow-list of claim
// fields. Fields the user does not carry a value for are silently
// omitted, never emitted as null.
func (u *User) AccessClaims(fields []string) map[string]interface{} {
	claims := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		switch field {
		case "username":
			if u.Username != "" {
				claims["username"] = u.Username
			}
		case "email":
			if u.Email != "" {
				claims["email"] = u.Email
			}
		case "roles":
			if len(u.Roles) > 0 {
				claims["roles"] = u.Roles
			}
		}
	}
	return claims
}
