package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/event-guest-registration/internal/model"
)

// CounterRepo manages the singleton registration_counter row. Mutations
// are always relative (count = count + 1) so MySQL's row lock is the only
// serialization point and no read-modify-write race exists.
type CounterRepo struct {
	db *sql.DB
}

// NewCounterRepo returns a new CounterRepo bound to the given database.
func NewCounterRepo(db *sql.DB) *CounterRepo { return &CounterRepo{db: db} }

// Ensure lazily initializes the counter row from the authoritative group
// count when it is missing. INSERT IGNORE makes concurrent initializers
// harmless: the first writer wins and later ones are no-ops, which is
// acceptable because all increments afterwards go through the
// transactional path. Ensure runs outside the registration transaction;
// the transaction re-reads the row and fails clearly if it is still
// absent.
func (r *CounterRepo) Ensure(ctx context.Context) error {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count FROM registration_counter WHERE id = ?`, model.CounterRowID).Scan(&count)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM guest_groups`).Scan(&count); err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT IGNORE INTO registration_counter (id, count) VALUES (?, ?)`,
		model.CounterRowID, count)
	return err
}

// Get returns the current counter value, or ErrCounterMissing when the
// row has not been initialized yet.
func (r *CounterRepo) Get(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT count FROM registration_counter WHERE id = ?`, model.CounterRowID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, ErrCounterMissing
	}
	return count, err
}

// GetForUpdateTx re-reads the counter inside a transaction, locking the
// row. Returning ErrCounterMissing here signals an un-healed invariant
// violation (the ensure-step ran and the row is still gone), which is
// surfaced as an internal error rather than a duplicate-ticket one.
func (r *CounterRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx) (int64, error) {
	var count int64
	err := tx.QueryRowContext(ctx,
		`SELECT count FROM registration_counter WHERE id = ? FOR UPDATE`, model.CounterRowID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, ErrCounterMissing
	}
	return count, err
}

// IncrementTx adds one to the counter within a transaction. One increment
// per guest group, not per ticket. An unaffected row means the counter
// vanished mid-flight, which aborts the transaction.
func (r *CounterRepo) IncrementTx(ctx context.Context, tx *sql.Tx) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE registration_counter SET count = count + 1 WHERE id = ?`, model.CounterRowID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCounterMissing
	}
	return nil
}

// DecrementTx subtracts one from the counter within a transaction,
// clamping at zero so repeated deletes after drift cannot push it negative.
func (r *CounterRepo) DecrementTx(ctx context.Context, tx *sql.Tx) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE registration_counter SET count = GREATEST(count - 1, 0) WHERE id = ?`, model.CounterRowID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCounterMissing
	}
	return nil
}

// SetTx overwrites the counter with an absolute value within a
// transaction. Used by the rebuild and reset maintenance operations; the
// upsert also recreates the row if it was deleted.
func (r *CounterRepo) SetTx(ctx context.Context, tx *sql.Tx, count int64) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO registration_counter (id, count) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE count = VALUES(count)`,
		model.CounterRowID, count)
	return err
}
