package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/event-guest-registration/internal/model"
)

// TicketClaimRepo provides data access to the ticket_claims table, the
// uniqueness index of the whole system. The table carries a UNIQUE KEY on
// ticket_code; every claim is created inside the same transaction as its
// owning companion and removed inside the same transaction as the
// companion's or group's deletion.
type TicketClaimRepo struct {
	db *sql.DB
}

// NewTicketClaimRepo returns a new TicketClaimRepo bound to the given database.
func NewTicketClaimRepo(db *sql.DB) *TicketClaimRepo { return &TicketClaimRepo{db: db} }

// ClaimsForUpdateTx returns existing claims for any of the given codes,
// locking the matched rows for the duration of the transaction
// (SELECT ... FOR UPDATE). Two transactions racing on the same code
// serialize here; the loser re-reads and sees the winner's claim. Codes
// with no claim are simply absent from the result.
func (r *TicketClaimRepo) ClaimsForUpdateTx(ctx context.Context, tx *sql.Tx, codes []string) ([]model.TicketClaim, error) {
	if len(codes) == 0 {
		return []model.TicketClaim{}, nil
	}
	placeholders := make([]string, 0, len(codes))
	args := make([]interface{}, 0, len(codes))
	for _, code := range codes {
		placeholders = append(placeholders, "?")
		args = append(args, code)
	}
	query := `SELECT ticket_code, owner_name, group_id, claimed_at FROM ticket_claims
	          WHERE ticket_code IN (` + strings.Join(placeholders, ",") + `) FOR UPDATE`
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	claims := make([]model.TicketClaim, 0)
	for rows.Next() {
		var c model.TicketClaim
		if err := rows.Scan(&c.TicketCode, &c.OwnerName, &c.GroupID, &c.ClaimedAt); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return claims, nil
}

// CreateBulkTx inserts one claim row per companion in a single statement
// within the provided transaction. A duplicate-key failure (two
// transactions passed the FOR UPDATE check on a code that neither had
// claimed yet) is mapped to a DuplicateTicketError; the unique key is the
// final arbiter of at-most-one-claim.
func (r *TicketClaimRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, claims []model.TicketClaim) error {
	if len(claims) == 0 {
		return nil
	}
	query := `INSERT INTO ticket_claims (ticket_code, owner_name, group_id) VALUES `
	args := make([]interface{}, 0, len(claims)*3)
	for i, c := range claims {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, c.TicketCode, c.OwnerName, c.GroupID)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return &DuplicateTicketError{TicketCode: claims[0].TicketCode, ClaimedBy: "another registration"}
		}
		return err
	}
	return nil
}

// DeleteByGroupTx removes all claims owned by a group within a transaction.
func (r *TicketClaimRepo) DeleteByGroupTx(ctx context.Context, tx *sql.Tx, groupID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM ticket_claims WHERE group_id = ?`, groupID)
	return err
}

// DeleteByCodeTx removes the claim for a single ticket code within a
// transaction, freeing the code for reuse.
func (r *TicketClaimRepo) DeleteByCodeTx(ctx context.Context, tx *sql.Tx, code string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM ticket_claims WHERE ticket_code = ?`, code)
	return err
}

// DeleteOrphans removes claims whose group no longer exists and returns
// how many were removed. Orphans can only appear if a crash interrupted a
// pre-transactional deletion path or rows were hand-edited; the operation
// is idempotent and safe to run repeatedly.
func (r *TicketClaimRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	const q = `DELETE tc FROM ticket_claims tc
	           LEFT JOIN guest_groups g ON g.id = tc.group_id
	           WHERE g.id IS NULL`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListAll returns every claim ordered by ticket code. Used by the export
// snapshot.
func (r *TicketClaimRepo) ListAll(ctx context.Context) ([]model.TicketClaim, error) {
	const q = `SELECT ticket_code, owner_name, group_id, claimed_at FROM ticket_claims ORDER BY ticket_code`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	claims := make([]model.TicketClaim, 0)
	for rows.Next() {
		var c model.TicketClaim
		if err := rows.Scan(&c.TicketCode, &c.OwnerName, &c.GroupID, &c.ClaimedAt); err != nil {
			return nil, err
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return claims, nil
}
