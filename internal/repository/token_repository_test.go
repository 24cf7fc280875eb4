package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenRepo(t *testing.T) (*TokenRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTokenRepo(db), mock
}

func refreshRow(userID uint64, exp time.Time, revoked interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "revoked_at", "created_at"}).
		AddRow(11, userID, "abc123", exp, revoked, time.Now())
}

func TestStoreRefresh(t *testing.T) {
	repo, mock := newTokenRepo(t)
	exp := time.Now().Add(7 * 24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`)).
		WithArgs(uint64(7), "abc123", exp).
		WillReturnResult(sqlmock.NewResult(11, 1))

	require.NoError(t, repo.StoreRefresh(context.Background(), 7, "abc123", exp))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateRefresh(t *testing.T) {
	t.Run("active token resolves its owner", func(t *testing.T) {
		repo, mock := newTokenRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM refresh_tokens WHERE token_hash = ?`)).
			WithArgs("abc123").
			WillReturnRows(refreshRow(7, time.Now().Add(time.Hour), nil))

		tok, err := repo.ValidateRefresh(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, uint64(7), tok.UserID)
		assert.Equal(t, "abc123", tok.TokenHash)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("revoked token reads like an unknown one", func(t *testing.T) {
		repo, mock := newTokenRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM refresh_tokens WHERE token_hash = ?`)).
			WithArgs("abc123").
			WillReturnRows(refreshRow(7, time.Now().Add(time.Hour), time.Now()))

		_, err := repo.ValidateRefresh(context.Background(), "abc123")
		require.ErrorIs(t, err, sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("expired token reads like an unknown one", func(t *testing.T) {
		repo, mock := newTokenRepo(t)
		mock.ExpectQuery(regexp.QuoteMeta(`FROM refresh_tokens WHERE token_hash = ?`)).
			WithArgs("abc123").
			WillReturnRows(refreshRow(7, time.Now().Add(-time.Minute), nil))

		_, err := repo.ValidateRefresh(context.Background(), "abc123")
		require.ErrorIs(t, err, sql.ErrNoRows)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRevokeAllForUser(t *testing.T) {
	repo, mock := newTokenRepo(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = ? AND revoked_at IS NULL`)).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.RevokeAllForUser(context.Background(), 7))
	require.NoError(t, mock.ExpectationsWereMet())
}
