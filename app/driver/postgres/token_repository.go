package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"token-service/app/domain"
	"token-service/app/port"
	apperrors "token-service/app/utils/errors"
)

// TokenRepository implements port.TokenStore for one tenant's
// PostgreSQL storage. The table name comes from the tenant's merged
// configuration.
type TokenRepository struct {
	db     DatabaseIface
	table  string
	logger *slog.Logger
}

// NewTokenRepository creates a token repository bound to one tenant's
// storage handle and refresh-token table
func NewTokenRepository(db DatabaseIface, table string, logger *slog.Logger) port.TokenStore {
	return &TokenRepository{
		db:     db,
		table:  table,
		logger: logger.With("component", "token_repository"),
	}
}

// Insert persists a new refresh-token row
func (r *TokenRepository) Insert(ctx context.Context, token *domain.RefreshToken) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, device_info, issued_at, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		pgx.Identifier{r.table}.Sanitize())

	_, err := r.db.Exec(ctx, query,
		token.ID,
		token.UserID,
		token.DeviceInfo,
		token.IssuedAt,
		token.ExpiresAt,
		token.CreatedAt,
	)
	if err != nil {
		r.logger.Error("failed to insert refresh token", "token_id", token.ID, "error", err)
		return apperrors.NewStorageError(err)
	}

	return nil
}

// FindByID returns the row for a token id. Absence means the token was
// already consumed, revoked, or never existed.
func (r *TokenRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.RefreshToken, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, device_info, issued_at, expires_at, created_at
		FROM %s WHERE id = $1`,
		pgx.Identifier{r.table}.Sanitize())

	token := &domain.RefreshToken{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&token.ID,
		&token.UserID,
		&token.DeviceInfo,
		&token.IssuedAt,
		&token.ExpiresAt,
		&token.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("refresh token")
		}
		r.logger.Error("failed to find refresh token", "token_id", id, "error", err)
		return nil, apperrors.NewStorageError(err)
	}

	return token, nil
}

// DeleteByID removes a row if it exists. Not finding a row to delete is
// not an error; rotation and logout races tolerate a vanished row.
func (r *TokenRepository) DeleteByID(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`,
		pgx.Identifier{r.table}.Sanitize())

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("failed to delete refresh token", "token_id", id, "error", err)
		return apperrors.NewStorageError(err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug("refresh token already gone", "token_id", id)
	}

	return nil
}

// DeleteExpiredForUser removes all expired rows belonging to one user
func (r *TokenRepository) DeleteExpiredForUser(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND expires_at < $2`,
		pgx.Identifier{r.table}.Sanitize())

	tag, err := r.db.Exec(ctx, query, userID, now)
	if err != nil {
		r.logger.Error("failed to delete expired tokens for user", "user_id", userID, "error", err)
		return 0, apperrors.NewStorageError(err)
	}

	return tag.RowsAffected(), nil
}

// DeleteExpired removes every expired row in the tenant's table; used
// by the cleanup sweeper
func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at < $1`,
		pgx.Identifier{r.table}.Sanitize())

	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		r.logger.Error("failed to delete expired tokens", "error", err)
		return 0, apperrors.NewStorageError(err)
	}

	return tag.RowsAffected(), nil
}
