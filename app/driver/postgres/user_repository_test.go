package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-service/app/domain"
	"token-service/app/utils/logger"
	apperrors "token-service/app/utils/errors"
)

func createTestUserRepository(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()

	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)

	testLogger, err := logger.New("debug")
	require.NoError(t, err)

	repo := NewUserRepository(mockDB, "users", testLogger).(*UserRepository)
	return repo, mockDB
}

func createTestUser(t *testing.T) *domain.User {
	t.Helper()

	now := time.Now().UTC()
	return &domain.User{
		ID:           uuid.New(),
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2b$10$abcdefghijklmnopqrstuv",
		Roles:        []string{domain.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func userRows(user *domain.User) *pgxmock.Rows {
	return pgxmock.NewRows(
		[]string{"id", "username", "email", "password_hash", "roles", "created_at", "updated_at"}).
		AddRow(user.ID, user.Username, user.Email, user.PasswordHash, user.Roles, user.CreatedAt, user.UpdatedAt)
}

func TestUserRepository_FindByID(t *testing.T) {
	repo, mockDB := createTestUserRepository(t)
	defer mockDB.Close()

	user := createTestUser(t)
	mockDB.ExpectQuery(`SELECT id, username, email, password_hash, roles, created_at, updated_at\s+FROM "users" WHERE id =`).
		WithArgs(user.ID).
		WillReturnRows(userRows(user))

	found, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, user.Username, found.Username)
	assert.Equal(t, user.Roles, found.Roles)

	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	repo, mockDB := createTestUserRepository(t)
	defer mockDB.Close()

	id := uuid.New()
	mockDB.ExpectQuery(`SELECT id, username, email, password_hash, roles, created_at, updated_at\s+FROM "users" WHERE id =`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByID(context.Background(), id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUserRepository_FindByLogin(t *testing.T) {
	tests := []struct {
		name  string
		login string
	}{
		{"by username", "alice"},
		{"by email", "alice@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mockDB := createTestUserRepository(t)
			defer mockDB.Close()

			user := createTestUser(t)
			mockDB.ExpectQuery(`FROM "users" WHERE email = \$1 OR username = \$1`).
				WithArgs(tt.login).
				WillReturnRows(userRows(user))

			found, err := repo.FindByLogin(context.Background(), tt.login)
			require.NoError(t, err)
			assert.Equal(t, user.Username, found.Username)

			assert.NoError(t, mockDB.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_ExistsByLogin(t *testing.T) {
	repo, mockDB := createTestUserRepository(t)
	defer mockDB.Close()

	mockDB.ExpectQuery(`SELECT EXISTS`).
		WithArgs("bob@example.com", "bob").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByLogin(context.Background(), "bob", "bob@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_Insert(t *testing.T) {
	repo, mockDB := createTestUserRepository(t)
	defer mockDB.Close()

	user := createTestUser(t)
	mockDB.ExpectExec(`INSERT INTO "users"`).
		WithArgs(user.ID, user.Username, user.Email, user.PasswordHash,
			user.Roles, user.CreatedAt, user.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Insert(context.Background(), user))
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestUserRepository_Insert_StorageError(t *testing.T) {
	repo, mockDB := createTestUserRepository(t)
	defer mockDB.Close()

	user := createTestUser(t)
	mockDB.ExpectExec(`INSERT INTO "users"`).
		WithArgs(user.ID, user.Username, user.Email, user.PasswordHash,
			user.Roles, user.CreatedAt, user.UpdatedAt).
		WillReturnError(errors.New("connection refused"))

	err := repo.Insert(context.Background(), user)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStorageError))
}
