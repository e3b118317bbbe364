package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"token-service/app/config"
	"token-service/app/domain"
	apperrors "token-service/app/utils/errors"
)

// RefreshClaims are the claims carried by a refresh-token artifact.
type RefreshClaims struct {
	TokenID    string `json:"token_id"`
	UserID     string `json:"user_id"`
	DeviceInfo string `json:"device_info,omitempty"`
	jwt.RegisteredClaims
}

// AccessClaims are the claims carried by an access-token artifact. User
// holds the allow-listed projection of the user record;
// RefreshTokenID anchors the artifact to the refresh token that
// authorized its issuance.
type AccessClaims struct {
	RefreshTokenID string                 `json:"refresh_token_id"`
	User           map[string]interface{} `json:"user,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs access and refresh token artifacts. Pure: deterministic
// given inputs and the injected clock, no side effects.
type Issuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	userFields    []string
	now           func() time.Time
}

// NewIssuer creates an issuer from service configuration
func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		userFields:    cfg.AccessTokenUserFields,
		now:           time.Now,
	}
}

// WithClock overrides the issuer's time source, for tests
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	clone := *i
	clone.now = now
	return &clone
}

// CreateRefreshToken signs {token id, user id, device info} with the
// rotation-scoped absolute expiry.
func (i *Issuer) CreateRefreshToken(id, userID uuid.UUID, deviceInfo string) (string, error) {
	now := i.now()
	claims := RefreshClaims{
		TokenID:    id.String(),
		UserID:     userID.String(),
		DeviceInfo: deviceInfo,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshTTL)),
		},
	}

	artifact := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return artifact.SignedString(i.refreshSecret)
}

// CreateAccessToken signs the allow-listed projection of the user plus
// the anchoring refresh-token id, with the short access expiry.
func (i *Issuer) CreateAccessToken(user *domain.User, refreshTokenID uuid.UUID) (string, error) {
	now := i.now()
	claims := AccessClaims{
		RefreshTokenID: refreshTokenID.String(),
		User:           user.AccessClaims(i.userFields),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessTTL)),
		},
	}

	artifact := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return artifact.SignedString(i.accessSecret)
}

// Verifier checks artifact signatures and expiry, distinguishing the
// three rejection kinds so callers can branch without inspecting
// library error text.
type Verifier struct {
	accessSecret  []byte
	refreshSecret []byte
	now           func() time.Time
}

// NewVerifier creates a verifier from service configuration
func NewVerifier(cfg *config.Config) *Verifier {
	return &Verifier{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		now:           time.Now,
	}
}

// WithClock overrides the verifier's time source, for tests
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	clone := *v
	clone.now = now
	return &clone
}

// VerifyRefreshToken validates a refresh-token artifact and returns its
// claims. Validity never depends on store state here; the single-use
// row lookup is the coordinator's concern.
func (v *Verifier) VerifyRefreshToken(artifact string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := v.parse(artifact, claims, v.refreshSecret); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(claims.TokenID); err != nil {
		return nil, apperrors.ErrTokenMalformed.WithDetails("token_id is not a uuid")
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, apperrors.ErrTokenMalformed.WithDetails("user_id is not a uuid")
	}
	return claims, nil
}

// VerifyAccessToken validates an access-token artifact and returns its
// embedded claims. No store access, by design.
func (v *Verifier) VerifyAccessToken(artifact string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := v.parse(artifact, claims, v.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (v *Verifier) parse(artifact string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(artifact, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return classifyJWTError(err)
	}
	return nil
}

// classifyJWTError maps library failures onto the fixed rejection kinds
func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.ErrTokenExpired.WithCause(err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperrors.ErrTokenMalformed.WithCause(err)
	default:
		// signature mismatch, wrong algorithm, missing expiry: all
		// surface as a signature rejection
		return apperrors.ErrSignatureInvalid.WithCause(err)
	}
}
