package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"token-service/app/config"
	"token-service/app/domain"
	"token-service/app/port"
	"token-service/app/token"
	apperrors "token-service/app/utils/errors"
)

// lazyCleanupTimeout bounds the detached expired-token sweep that login
// kicks off. It runs outside the request's lifetime, so it needs its
// own deadline.
const lazyCleanupTimeout = 30 * time.Second

// AuthUsecase coordinates the credential flows: login, single-use
// refresh rotation, logout revocation, stateless access checks, and
// registration. Token validity is two independent gates: the artifact's
// signature and expiry, and the presence of the matching row in the
// tenant's store.
type AuthUsecase struct {
	cfg         *config.Config
	provider    port.StoreProvider
	credentials port.CredentialVerifier
	issuer      *token.Issuer
	verifier    *token.Verifier
	logger      *slog.Logger
	now         func() time.Time
	// runAsync detaches the post-login cleanup; tests swap it for a
	// synchronous runner
	runAsync func(func())
}

// NewAuthUsecase creates the auth coordinator
func NewAuthUsecase(
	cfg *config.Config,
	provider port.StoreProvider,
	credentials port.CredentialVerifier,
	issuer *token.Issuer,
	verifier *token.Verifier,
	logger *slog.Logger,
) *AuthUsecase {
	return &AuthUsecase{
		cfg:         cfg,
		provider:    provider,
		credentials: credentials,
		issuer:      issuer,
		verifier:    verifier,
		logger:      logger.With("component", "auth_usecase"),
		now:         time.Now,
		runAsync:    func(f func()) { go f() },
	}
}

// Login verifies credentials, mints a fresh token pair, and persists
// the refresh-token row. Expired rows belonging to the user are cleaned
// up on a detached goroutine so the response does not wait for them.
func (u *AuthUsecase) Login(ctx context.Context, in port.LoginInput) (*domain.TokenPair, error) {
	users, err := u.provider.UserStore(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	user, err := u.credentials.Verify(ctx, users, in.Username, in.Password)
	if err != nil {
		return nil, err
	}

	store, err := u.provider.TokenStore(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	u.cleanupExpiredForUser(store, user.ID)

	pair, _, err := u.mint(ctx, store, user, in.DeviceInfo)
	if err != nil {
		return nil, err
	}

	u.logger.Info("login succeeded", "tenant_id", in.TenantID, "user_id", user.ID)
	return pair, nil
}

// Refresh consumes a refresh-token artifact and replaces it with a new
// pair. The old row is deleted before the replacement is inserted, so a
// token can be spent at most once; presenting it again finds no row and
// is rejected.
func (u *AuthUsecase) Refresh(ctx context.Context, in port.RefreshInput) (*domain.TokenPair, error) {
	claims, err := u.verifier.VerifyRefreshToken(in.RefreshToken)
	if err != nil {
		return nil, err
	}

	tokenID, err := uuid.Parse(claims.TokenID)
	if err != nil {
		return nil, apperrors.ErrTokenMalformed.WithCause(err)
	}

	store, err := u.provider.TokenStore(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	row, err := store.FindByID(ctx, tokenID)
	if err != nil {
		// an absent row means the token was already consumed, revoked,
		// or forged; all three get the same rejection
		return nil, err
	}

	if row.Expired(u.now()) {
		if delErr := store.DeleteByID(ctx, row.ID); delErr != nil {
			u.logger.Warn("failed to delete expired token row", "token_id", row.ID, "error", delErr)
		}
		return nil, apperrors.ErrTokenExpired
	}

	users, err := u.provider.UserStore(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	user, err := users.FindByID(ctx, row.UserID)
	if err != nil {
		return nil, err
	}

	// consume the old token before issuing its replacement
	if err := store.DeleteByID(ctx, row.ID); err != nil {
		return nil, err
	}

	// the request's fingerprint wins; fall back to the stored value when
	// the client sent none
	deviceInfo := in.DeviceInfo
	if deviceInfo == "" {
		deviceInfo = row.DeviceInfo
	}

	pair, newID, err := u.mint(ctx, store, user, deviceInfo)
	if err != nil {
		return nil, err
	}

	u.logger.Info("token rotated",
		"tenant_id", in.TenantID, "user_id", user.ID,
		"old_token_id", row.ID, "new_token_id", newID)
	return pair, nil
}

// Logout revokes the presented refresh token. Revoking a token whose
// row is already gone still succeeds; the end state is identical.
func (u *AuthUsecase) Logout(ctx context.Context, in port.LogoutInput) error {
	claims, err := u.verifier.VerifyRefreshToken(in.RefreshToken)
	if err != nil {
		return err
	}

	tokenID, err := uuid.Parse(claims.TokenID)
	if err != nil {
		return apperrors.ErrTokenMalformed.WithCause(err)
	}

	store, err := u.provider.TokenStore(ctx, in.TenantID)
	if err != nil {
		return err
	}

	if err := store.DeleteByID(ctx, tokenID); err != nil {
		return err
	}

	u.logger.Info("logout succeeded", "tenant_id", in.TenantID, "token_id", tokenID)
	return nil
}

// AuthCheck validates an access-token artifact. Signature and expiry
// only; no store round trip, so a rotation does not invalidate access
// tokens already in flight.
func (u *AuthUsecase) AuthCheck(_ context.Context, accessToken string) (*token.AccessClaims, error) {
	return u.verifier.VerifyAccessToken(accessToken)
}

// Register creates a new user record when registration is enabled.
func (u *AuthUsecase) Register(ctx context.Context, in port.RegisterInput) (*domain.User, error) {
	if !u.cfg.EnableRegistration {
		return nil, apperrors.New(apperrors.ErrCodeNotFound, "registration is disabled")
	}

	users, err := u.provider.UserStore(ctx, in.TenantID)
	if err != nil {
		return nil, err
	}

	exists, err := users.ExistsByLogin(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	now := u.now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Roles:        []string{domain.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := users.Insert(ctx, user); err != nil {
		return nil, err
	}

	u.logger.Info("user registered", "tenant_id", in.TenantID, "user_id", user.ID)
	return user, nil
}

// mint issues a new token pair and persists the refresh-token row.
func (u *AuthUsecase) mint(ctx context.Context, store port.TokenStore, user *domain.User, deviceInfo string) (*domain.TokenPair, uuid.UUID, error) {
	id, err := domain.NewRefreshTokenID()
	if err != nil {
		return nil, uuid.Nil, apperrors.NewInternalError(err)
	}

	refreshArtifact, err := u.issuer.CreateRefreshToken(id, user.ID, deviceInfo)
	if err != nil {
		return nil, uuid.Nil, apperrors.NewInternalError(err)
	}

	accessArtifact, err := u.issuer.CreateAccessToken(user, id)
	if err != nil {
		return nil, uuid.Nil, apperrors.NewInternalError(err)
	}

	now := u.now().UTC()
	row := &domain.RefreshToken{
		ID:         id,
		UserID:     user.ID,
		DeviceInfo: deviceInfo,
		IssuedAt:   now,
		ExpiresAt:  now.Add(u.cfg.RefreshTokenTTL),
		CreatedAt:  now,
	}
	if err := store.Insert(ctx, row); err != nil {
		return nil, uuid.Nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessArtifact,
		RefreshToken: refreshArtifact,
	}, id, nil
}

// cleanupExpiredForUser deletes the user's expired rows on a detached
// goroutine. Failure only costs storage until the next sweep, so it is
// logged and dropped.
func (u *AuthUsecase) cleanupExpiredForUser(store port.TokenStore, userID uuid.UUID) {
	now := u.now()
	u.runAsync(func() {
		ctx, cancel := context.WithTimeout(context.Background(), lazyCleanupTimeout)
		defer cancel()

		deleted, err := store.DeleteExpiredForUser(ctx, userID, now)
		if err != nil {
			u.logger.Warn("lazy cleanup failed", "user_id", userID, "error", err)
			return
		}
		if deleted > 0 {
			u.logger.Debug("lazy cleanup removed expired tokens", "user_id", userID, "deleted", deleted)
		}
	})
}
