package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/models"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userColumns = []string{"id", "email", "username", "password_hash", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		mock.Close()
	})
	return NewPostgresRepository(mock), mock
}

func sampleUser() *models.User {
	return &models.User{
		ID:           "5f0c8a8e-3c1e-4c55-9c57-2f4a4c1b7d10",
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
}

func TestCreate(t *testing.T) {
	u := sampleUser()

	tests := []struct {
		name      string
		dbErr     error
		wantErr   error
		wantCode  string
		wantInner error
	}{
		{name: "success"},
		{
			name:    "duplicate email",
			dbErr:   &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: EmailConstraint},
			wantErr: common.ErrDuplicateEmail,
		},
		{
			name:    "duplicate username",
			dbErr:   &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: UsernameConstraint},
			wantErr: common.ErrDuplicateUsername,
		},
		{
			name:     "unknown unique constraint",
			dbErr:    &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_pkey"},
			wantCode: "USER_CREATE_FAILED",
		},
		{
			name:      "connection failure",
			dbErr:     errors.New("connection refused"),
			wantCode:  "USER_CREATE_FAILED",
			wantInner: errors.New("connection refused"),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			exp := mock.ExpectExec(`INSERT INTO users`).
				WithArgs(u.ID, u.Email, u.Username, u.PasswordHash, u.CreatedAt)
			if tc.dbErr != nil {
				exp.WillReturnError(tc.dbErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("INSERT", 1))
			}

			got, err := repo.Create(context.Background(), u)

			switch {
			case tc.wantErr != nil:
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, got)
			case tc.wantCode != "":
				require.Error(t, err)
				assertCode(t, err, tc.wantCode)
				if tc.wantInner != nil {
					assert.Contains(t, err.Error(), tc.wantInner.Error())
				}
			default:
				require.NoError(t, err)
				assert.Equal(t, u, got)
			}
		})
	}
}

func TestGetByEmail(t *testing.T) {
	u := sampleUser()

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`SELECT id::text, email, username, password_hash, created_at FROM users\s+WHERE email = \$1`).
			WithArgs(u.Email).
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow(u.ID, u.Email, u.Username, u.PasswordHash, u.CreatedAt))

		got, err := repo.GetByEmail(context.Background(), u.Email)
		require.NoError(t, err)
		assert.Equal(t, u, got)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`WHERE email = \$1`).
			WithArgs("ghost@example.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`WHERE email = \$1`).
			WithArgs(u.Email).
			WillReturnError(errors.New("db down"))

		_, err := repo.GetByEmail(context.Background(), u.Email)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrNotFound)
		assertCode(t, err, "USER_GET_FAILED")
	})
}

func TestGetByUsername(t *testing.T) {
	u := sampleUser()

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`WHERE username = \$1`).
			WithArgs(u.Username).
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow(u.ID, u.Email, u.Username, u.PasswordHash, u.CreatedAt))

		got, err := repo.GetByUsername(context.Background(), u.Username)
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`WHERE username = \$1`).
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByUsername(context.Background(), "ghost")
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestList(t *testing.T) {
	t.Run("ordered rows", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		mock.ExpectQuery(`FROM users\s+ORDER BY seq`).
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow("id-1", "a@example.com", "aaa", "h1", t0).
				AddRow("id-2", "b@example.com", "bbb", "h2", t0.Add(time.Second)))

		got, err := repo.List(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "id-1", got[0].ID)
		assert.Equal(t, "id-2", got[1].ID)
	})

	t.Run("empty is non-nil", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`ORDER BY seq`).
			WillReturnRows(pgxmock.NewRows(userColumns))

		got, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`ORDER BY seq`).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.List(context.Background())
		require.Error(t, err)
		assertCode(t, err, "USER_LIST_FAILED")
	})

	t.Run("row error", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(`ORDER BY seq`).
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow("id-1", "a@example.com", "aaa", "h1", time.Now()).
				RowError(0, errors.New("broken row")))

		_, err := repo.List(context.Background())
		require.Error(t, err)
	})
}
