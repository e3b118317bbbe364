package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"token-service/app/domain"
	"token-service/app/port"
	apperrors "token-service/app/utils/errors"
)

// UserRepository implements port.UserStore for one tenant's PostgreSQL
// storage.
type UserRepository struct {
	db     DatabaseIface
	table  string
	logger *slog.Logger
}

// NewUserRepository creates a user repository bound to one tenant's
// storage handle and users table
func NewUserRepository(db DatabaseIface, table string, logger *slog.Logger) port.UserStore {
	return &UserRepository{
		db:     db,
		table:  table,
		logger: logger.With("component", "user_repository"),
	}
}

// FindByID retrieves a user by id
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, email, password_hash, roles, created_at, updated_at
		FROM %s WHERE id = $1`,
		pgx.Identifier{r.table}.Sanitize())

	return r.scanUser(r.db.QueryRow(ctx, query, id))
}

// FindByLogin retrieves a user whose username or email matches the
// given identifier
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	query := fmt.Sprintf(`
		SELECT id, username, email, password_hash, roles, created_at, updated_at
		FROM %s WHERE email = $1 OR username = $1`,
		pgx.Identifier{r.table}.Sanitize())

	return r.scanUser(r.db.QueryRow(ctx, query, login))
}

// ExistsByLogin reports whether a user with the given username or email
// already exists
func (r *UserRepository) ExistsByLogin(ctx context.Context, username, email string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE email = $1 OR username = $2)`,
		pgx.Identifier{r.table}.Sanitize())

	var exists bool
	if err := r.db.QueryRow(ctx, query, email, username).Scan(&exists); err != nil {
		r.logger.Error("failed to check user existence", "username", username, "error", err)
		return false, apperrors.NewStorageError(err)
	}

	return exists, nil
}

// Insert persists a new user record
func (r *UserRepository) Insert(ctx context.Context, user *domain.User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, username, email, password_hash, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pgx.Identifier{r.table}.Sanitize())

	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Roles,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to insert user", "username", user.Username, "error", err)
		return apperrors.NewStorageError(err)
	}

	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Roles,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		r.logger.Error("failed to scan user row", "error", err)
		return nil, apperrors.NewStorageError(err)
	}

	return user, nil
}
