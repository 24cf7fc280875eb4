package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/event-guest-registration/internal/model"
)

// TokenRepo persists refresh-token hashes for staff and admin sessions.
// Only the SHA-256 hash of a token ever reaches this layer; validation
// and revocation operate on the hash alone, so a leaked table cannot
// mint sessions.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo returns a new TokenRepo bound to the given database.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh records a newly issued refresh token hash with its expiry.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`,
		userID, tokenHash, exp)
	return err
}

// ValidateRefresh looks a hash up and returns the owning token row when
// it is neither revoked nor expired. Revoked and expired tokens surface
// as sql.ErrNoRows so callers treat them exactly like unknown ones.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	const q = `SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
	           FROM refresh_tokens WHERE token_hash = ? LIMIT 1`
	var (
		t       model.RefreshToken
		revoked sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, tokenHash).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revoked, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if revoked.Valid {
		return nil, sql.ErrNoRows
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		return nil, sql.ErrNoRows
	}
	return &t, nil
}

// RevokeByHash marks one token as revoked. Rotating a token revokes the
// old hash and stores the new one; already-revoked hashes are untouched.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE token_hash = ? AND revoked_at IS NULL`,
		tokenHash)
	return err
}

// RevokeAllForUser revokes every active token a user holds. Logout calls
// this so no session survives on another device.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW() WHERE user_id = ? AND revoked_at IS NULL`,
		userID)
	return err
}
