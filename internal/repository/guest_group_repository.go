package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/event-guest-registration/internal/model"
)

// GuestGroupRepo provides CRUD operations for guest groups and their
// companions. A group and its companions are always written and deleted
// together; the transactional variants exist so the registration service
// can compose them with ticket claims and the counter inside one unit.
type GuestGroupRepo struct {
	db *sql.DB
}

// NewGuestGroupRepo returns a new GuestGroupRepo bound to the given database.
func NewGuestGroupRepo(db *sql.DB) *GuestGroupRepo { return &GuestGroupRepo{db: db} }

// DB exposes the underlying handle so callers can begin transactions.
func (r *GuestGroupRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a new guest group and all of its companions within the
// scope of an existing transaction. It populates the generated group and
// companion IDs and the server-assigned creation timestamp on the provided
// model. The caller must commit or rollback the transaction.
func (r *GuestGroupRepo) CreateTx(ctx context.Context, tx *sql.Tx, g *model.GuestGroup) error {
	const q = `INSERT INTO guest_groups (primary_guest_name, contact_phone, distributor_label, address_details) VALUES (?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, g.PrimaryGuestName, g.ContactPhone, g.DistributorLabel, g.AddressDetails)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	g.ID = uint64(id)
	// Query back the created_at so the caller returns the authoritative
	// server-assigned timestamp, not a client-side approximation.
	const sel = `SELECT created_at FROM guest_groups WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, g.ID).Scan(&g.CreatedAt); err != nil {
		return err
	}
	const cq = `INSERT INTO companions (group_id, full_name, age, category, ticket_code, status) VALUES (?, ?, ?, ?, ?, ?)`
	for i := range g.Companions {
		c := &g.Companions[i]
		c.GroupID = g.ID
		if c.Status == "" {
			c.Status = model.StatusPending
		}
		res, err := tx.ExecContext(ctx, cq, c.GroupID, c.FullName, c.Age, c.Category, c.TicketCode, c.Status)
		if err != nil {
			return err
		}
		cid, err := res.LastInsertId()
		if err != nil {
			return err
		}
		c.ID = uint64(cid)
	}
	return nil
}

// GetByID returns a single guest group with its companions ordered by
// ticket code. When no group with the given ID exists, sql.ErrNoRows is
// returned.
func (r *GuestGroupRepo) GetByID(ctx context.Context, id uint64) (*model.GuestGroup, error) {
	const q = `SELECT id, primary_guest_name, contact_phone, distributor_label, address_details, created_at
	           FROM guest_groups WHERE id = ?`
	var g model.GuestGroup
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&g.ID, &g.PrimaryGuestName, &g.ContactPhone, &g.DistributorLabel, &g.AddressDetails, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Companions, err = r.companionsByGroupIDs(ctx, []uint64{g.ID})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// List returns all guest groups with their companions, newest first.
// Companions are fetched with a single IN query and stitched onto their
// groups, so listing stays at two round trips regardless of size.
func (r *GuestGroupRepo) List(ctx context.Context) ([]model.GuestGroup, error) {
	const q = `SELECT id, primary_guest_name, contact_phone, distributor_label, address_details, created_at
	           FROM guest_groups ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	groups := make([]model.GuestGroup, 0)
	index := make(map[uint64]int)
	ids := make([]uint64, 0)
	for rows.Next() {
		var g model.GuestGroup
		if err := rows.Scan(&g.ID, &g.PrimaryGuestName, &g.ContactPhone, &g.DistributorLabel, &g.AddressDetails, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.Companions = []model.Companion{}
		index[g.ID] = len(groups)
		groups = append(groups, g)
		ids = append(ids, g.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return groups, nil
	}
	companions, err := r.companionsByGroupIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range companions {
		if idx, ok := index[c.GroupID]; ok {
			groups[idx].Companions = append(groups[idx].Companions, c)
		}
	}
	return groups, nil
}

// companionsByGroupIDs loads companions for the given group IDs in one
// query, ordered by group then ticket code for deterministic output.
func (r *GuestGroupRepo) companionsByGroupIDs(ctx context.Context, ids []uint64) ([]model.Companion, error) {
	placeholders := make([]string, 0, len(ids))
	args := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	query := `SELECT id, group_id, full_name, age, category, ticket_code, status
	          FROM companions WHERE group_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY group_id, ticket_code`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Companion, 0)
	for rows.Next() {
		var c model.Companion
		if err := rows.Scan(&c.ID, &c.GroupID, &c.FullName, &c.Age, &c.Category, &c.TicketCode, &c.Status); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TicketCodesTx returns the ticket codes of all companions in a group
// within a transaction. It returns sql.ErrNoRows when the group itself
// does not exist, so callers can distinguish "no such group" from a group
// that somehow has no companions.
func (r *GuestGroupRepo) TicketCodesTx(ctx context.Context, tx *sql.Tx, groupID uint64) ([]string, error) {
	var exists uint64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM guest_groups WHERE id = ?`, groupID).Scan(&exists); err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, `SELECT ticket_code FROM companions WHERE group_id = ?`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

// DeleteTx removes a guest group and its companions within a transaction.
// Ticket claims and the counter are handled by the caller so the whole
// deletion stays one atomic unit.
func (r *GuestGroupRepo) DeleteTx(ctx context.Context, tx *sql.Tx, groupID uint64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM companions WHERE group_id = ?`, groupID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM guest_groups WHERE id = ?`, groupID)
	return err
}

// CompanionByIDTx loads a single companion within a transaction. Returns
// sql.ErrNoRows when it does not exist.
func (r *GuestGroupRepo) CompanionByIDTx(ctx context.Context, tx *sql.Tx, companionID uint64) (*model.Companion, error) {
	const q = `SELECT id, group_id, full_name, age, category, ticket_code, status FROM companions WHERE id = ?`
	var c model.Companion
	err := tx.QueryRowContext(ctx, q, companionID).Scan(&c.ID, &c.GroupID, &c.FullName, &c.Age, &c.Category, &c.TicketCode, &c.Status)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteCompanionTx removes one companion row within a transaction. The
// caller deletes the matching ticket claim in the same unit.
func (r *GuestGroupRepo) DeleteCompanionTx(ctx context.Context, tx *sql.Tx, companionID uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM companions WHERE id = ?`, companionID)
	return err
}

// CheckInByTicketCode transitions a companion from PENDING to CHECKED_IN
// and returns the updated companion. The UPDATE is guarded on the current
// status so the transition happens exactly once even under concurrent
// scans; the loser of the race observes ErrAlreadyCheckedIn.
func (r *GuestGroupRepo) CheckInByTicketCode(ctx context.Context, code string) (*model.Companion, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE companions SET status = ? WHERE ticket_code = ? AND status = ?`,
		model.StatusCheckedIn, code, model.StatusPending)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	const sel = `SELECT id, group_id, full_name, age, category, ticket_code, status FROM companions WHERE ticket_code = ?`
	var c model.Companion
	err = r.db.QueryRowContext(ctx, sel, code).Scan(&c.ID, &c.GroupID, &c.FullName, &c.Age, &c.Category, &c.TicketCode, &c.Status)
	if err != nil {
		return nil, err // sql.ErrNoRows -> no companion holds this code
	}
	if affected == 0 {
		return &c, ErrAlreadyCheckedIn
	}
	return &c, nil
}

// Count returns the authoritative number of guest group rows. Used by the
// counter self-heal and the rebuild maintenance operation.
func (r *GuestGroupRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM guest_groups`).Scan(&n)
	return n, err
}

// CompanionStats returns the total number of companions and how many of
// them are checked in. Feeds the statistics endpoint the dashboards poll.
func (r *GuestGroupRepo) CompanionStats(ctx context.Context) (total, checkedIn int64, err error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(status = ?), 0) FROM companions`
	err = r.db.QueryRowContext(ctx, q, model.StatusCheckedIn).Scan(&total, &checkedIn)
	return total, checkedIn, err
}
