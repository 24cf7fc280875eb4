package handler

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-guest-registration/internal/auth"
	"github.com/iliyamo/event-guest-registration/internal/repository"
	"github.com/iliyamo/event-guest-registration/internal/utils"
)

func newAuthHandler(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := repository.NewUserRepo(db)
	creds := auth.Chain{
		&auth.StaticProvider{Email: "admin@example.org", Password: "bootstrap"},
		&auth.StoreProvider{Users: users},
	}
	h := NewAuthHandler(creds, repository.NewTokenRepo(db), users, "test-secret", 15, 7)
	return h, mock
}

func TestLoginBootstrapAdminGetsAccessTokenOnly(t *testing.T) {
	h, mock := newAuthHandler(t)

	// No refresh token is stored: the bootstrap identity has no users row,
	// so nothing may touch refresh_tokens.
	rec, err := postJSON(h.Login, "/v1/auth/login", `{"email": "admin@example.org", "password": "bootstrap"}`)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "ADMIN", body["role"])
	assert.NotContains(t, body, "refresh_token")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginRejectsUnknownPair(t *testing.T) {
	h, mock := newAuthHandler(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE email=?`)).
		WithArgs("nobody@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}))

	rec, err := postJSON(h.Login, "/v1/auth/login", `{"email": "nobody@example.org", "password": "nope"}`)
	require.NoError(t, err)
	assert.Equal(t, 401, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRotatesToken(t *testing.T) {
	h, mock := newAuthHandler(t)
	raw := "oldrefreshtoken"
	hash := utils.HashRefreshRaw(raw)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM refresh_tokens WHERE token_hash = ?`)).
		WithArgs(hash).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "revoked_at", "created_at"}).
			AddRow(11, 7, hash, now.Add(time.Hour), nil, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users WHERE id=?`)).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
			AddRow(7, "staff@example.org", "x", "STAFF", true, now, now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE refresh_tokens SET revoked_at = NOW() WHERE token_hash = ? AND revoked_at IS NULL`)).
		WithArgs(hash).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`)).
		WithArgs(uint64(7), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(12, 1))

	rec, err := postJSON(h.Refresh, "/v1/auth/refresh", `{"refresh_token": "`+raw+`"}`)
	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.NotEqual(t, raw, body["refresh_token"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	h, mock := newAuthHandler(t)
	raw := "revokedtoken"
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM refresh_tokens WHERE token_hash = ?`)).
		WithArgs(utils.HashRefreshRaw(raw)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "revoked_at", "created_at"}).
			AddRow(11, 7, utils.HashRefreshRaw(raw), now.Add(time.Hour), now, now))

	rec, err := postJSON(h.Refresh, "/v1/auth/refresh", `{"refresh_token": "`+raw+`"}`)
	require.NoError(t, err)
	assert.Equal(t, 401, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
