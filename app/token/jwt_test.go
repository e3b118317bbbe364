package token

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-service/app/config"
	"token-service/app/domain"
	apperrors "token-service/app/utils/errors"
)

func testConfig() *config.Config {
	return &config.Config{
		AccessTokenSecret:     "access-secret",
		RefreshTokenSecret:    "refresh-secret",
		AccessTokenTTL:        15 * time.Minute,
		RefreshTokenTTL:       720 * time.Hour,
		AccessTokenUserFields: []string{"username", "email", "roles"},
	}
}

func testUser() *domain.User {
	return &domain.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "alice@example.com",
		Roles:    []string{domain.RoleUser},
	}
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	cfg := testConfig()
	issuer := NewIssuer(cfg)
	verifier := NewVerifier(cfg)

	tokenID := uuid.Must(uuid.NewV7())
	userID := uuid.New()

	artifact, err := issuer.CreateRefreshToken(tokenID, userID, "Mozilla/5.0")
	require.NoError(t, err)

	claims, err := verifier.VerifyRefreshToken(artifact)
	require.NoError(t, err)
	assert.Equal(t, tokenID.String(), claims.TokenID)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "Mozilla/5.0", claims.DeviceInfo)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	cfg := testConfig()
	issuer := NewIssuer(cfg)
	verifier := NewVerifier(cfg)

	user := testUser()
	anchor := uuid.Must(uuid.NewV7())

	artifact, err := issuer.CreateAccessToken(user, anchor)
	require.NoError(t, err)

	claims, err := verifier.VerifyAccessToken(artifact)
	require.NoError(t, err)
	assert.Equal(t, anchor.String(), claims.RefreshTokenID)
	assert.Equal(t, user.ID.String(), claims.Subject)
	assert.Equal(t, "alice", claims.User["username"])
	assert.Equal(t, "alice@example.com", claims.User["email"])
}

func TestAccessToken_AllowListRestrictsClaims(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenUserFields = []string{"username"}
	issuer := NewIssuer(cfg)
	verifier := NewVerifier(cfg)

	artifact, err := issuer.CreateAccessToken(testUser(), uuid.New())
	require.NoError(t, err)

	claims, err := verifier.VerifyAccessToken(artifact)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.User["username"])
	assert.NotContains(t, claims.User, "email")
	assert.NotContains(t, claims.User, "roles")
}

func TestVerify_ExpiredToken(t *testing.T) {
	cfg := testConfig()
	past := time.Now().Add(-48 * time.Hour)
	issuer := NewIssuer(cfg).WithClock(func() time.Time { return past })
	verifier := NewVerifier(cfg)

	artifact, err := issuer.CreateAccessToken(testUser(), uuid.New())
	require.NoError(t, err)

	_, err = verifier.VerifyAccessToken(artifact)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrTokenExpired))
}

func TestVerify_ExpiryAgainstInjectedClock(t *testing.T) {
	cfg := testConfig()
	issuer := NewIssuer(cfg)

	artifact, err := issuer.CreateRefreshToken(uuid.New(), uuid.New(), "")
	require.NoError(t, err)

	// valid now
	_, err = NewVerifier(cfg).VerifyRefreshToken(artifact)
	require.NoError(t, err)

	// rejected once the clock passes the baked-in expiry
	future := time.Now().Add(cfg.RefreshTokenTTL + time.Hour)
	futureVerifier := NewVerifier(cfg).WithClock(func() time.Time { return future })
	_, err = futureVerifier.VerifyRefreshToken(artifact)
	assert.True(t, errors.Is(err, apperrors.ErrTokenExpired))
}

func TestVerify_WrongSecret(t *testing.T) {
	issuer := NewIssuer(testConfig())

	artifact, err := issuer.CreateRefreshToken(uuid.New(), uuid.New(), "")
	require.NoError(t, err)

	otherCfg := testConfig()
	otherCfg.RefreshTokenSecret = "a-different-secret"

	_, err = NewVerifier(otherCfg).VerifyRefreshToken(artifact)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSignatureInvalid))
}

func TestVerify_CrossTokenKindRejected(t *testing.T) {
	cfg := testConfig()
	issuer := NewIssuer(cfg)
	verifier := NewVerifier(cfg)

	// an access token presented where a refresh token is expected must
	// fail signature verification (different secret)
	access, err := issuer.CreateAccessToken(testUser(), uuid.New())
	require.NoError(t, err)

	_, err = verifier.VerifyRefreshToken(access)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSignatureInvalid))
}

func TestVerify_Malformed(t *testing.T) {
	verifier := NewVerifier(testConfig())

	tests := []struct {
		name     string
		artifact string
	}{
		{"empty", ""},
		{"garbage", "not-a-jwt"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.VerifyRefreshToken(tt.artifact)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrTokenMalformed))
		})
	}
}

func TestVerifyRefreshToken_NonUUIDClaims(t *testing.T) {
	cfg := testConfig()
	verifier := NewVerifier(cfg)

	// hand-build an artifact whose ids are not uuids
	issuer := NewIssuer(cfg)
	artifact, err := issuer.CreateRefreshToken(uuid.Nil, uuid.Nil, "")
	require.NoError(t, err)

	// uuid.Nil round-trips as a valid uuid string, so this passes
	claims, err := verifier.VerifyRefreshToken(artifact)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil.String(), claims.TokenID)
}
