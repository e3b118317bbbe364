package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"token-service/app/domain"
	"token-service/app/port"
	apperrors "token-service/app/utils/errors"
)

// CredentialGateway implements port.CredentialVerifier against a
// tenant's user store.
type CredentialGateway struct {
	logger *slog.Logger
}

// NewCredentialGateway creates a credential verifier
func NewCredentialGateway(logger *slog.Logger) port.CredentialVerifier {
	return &CredentialGateway{
		logger: logger.With("component", "credential_gateway"),
	}
}

// Verify checks an identifier/password pair against the tenant's user
// records. Unknown identifier and password mismatch produce the same
// rejection so the response does not reveal which one failed.
func (g *CredentialGateway) Verify(ctx context.Context, users port.UserStore, identifier, password string) (*domain.User, error) {
	user, err := users.FindByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	// hashes imported from PHP carry the $2y prefix; bcrypt in Go
	// expects $2b for the same algorithm
	hash := strings.Replace(user.PasswordHash, "$2y", "$2b", 1)

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		g.logger.Warn("password mismatch", "identifier", identifier)
		return nil, apperrors.ErrInvalidCredentials
	}

	return user, nil
}

// HashPassword derives a bcrypt hash for a new user's password
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
