package port

//go:generate mockgen -source=auth_port.go -destination=../mocks/mock_auth_port.go -package=mocks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"token-service/app/domain"
	"token-service/app/token"
)

// TokenStore defines refresh-token persistence scoped to one tenant's
// storage handle. A row's existence is the single-use check: absence
// means the token was already consumed, revoked, or never existed.
type TokenStore interface {
	Insert(ctx context.Context, token *domain.RefreshToken) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error)
	// DeleteByID is idempotent; deleting a vanished row is not an error
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteExpiredForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// UserStore defines user record access scoped to one tenant's storage
// handle.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindByLogin(ctx context.Context, login string) (*domain.User, error)
	ExistsByLogin(ctx context.Context, username, email string) (bool, error)
	Insert(ctx context.Context, user *domain.User) error
}

// StoreProvider routes a tenant identifier to that tenant's stores via
// the connection resolver.
type StoreProvider interface {
	TokenStore(ctx context.Context, tenantID string) (TokenStore, error)
	UserStore(ctx context.Context, tenantID string) (UserStore, error)
}

// CredentialVerifier checks a username/password pair against the
// tenant's user records.
type CredentialVerifier interface {
	Verify(ctx context.Context, users UserStore, identifier, password string) (*domain.User, error)
}

// LoginInput carries already-validated login data
type LoginInput struct {
	TenantID   string
	Username   string
	Password   string
	DeviceInfo string
}

// RefreshInput carries a refresh-token artifact and the request's
// current client fingerprint
type RefreshInput struct {
	TenantID     string
	RefreshToken string
	DeviceInfo   string
}

// LogoutInput carries a refresh-token artifact to revoke
type LogoutInput struct {
	TenantID     string
	RefreshToken string
}

// RegisterInput carries already-validated registration data
type RegisterInput struct {
	TenantID string
	Username string
	Email    string
	Password string
}

// AuthUsecase defines the credential flows exposed to the HTTP layer
type AuthUsecase interface {
	Login(ctx context.Context, in LoginInput) (*domain.TokenPair, error)
	Refresh(ctx context.Context, in RefreshInput) (*domain.TokenPair, error)
	Logout(ctx context.Context, in LogoutInput) error
	AuthCheck(ctx context.Context, accessToken string) (*token.AccessClaims, error)
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
}

// Sweeper defines the periodic expired-token cleanup surface
type Sweeper interface {
	SweepAll(ctx context.Context) int64
}
