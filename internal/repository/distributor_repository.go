package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/event-guest-registration/internal/model"
)

// DistributorRepo provides CRUD operations for distributor/table ticket
// range assignments.
type DistributorRepo struct {
	db *sql.DB
}

// NewDistributorRepo returns a new DistributorRepo bound to the given database.
func NewDistributorRepo(db *sql.DB) *DistributorRepo { return &DistributorRepo{db: db} }

// Create inserts a distributor and returns its ID. Duplicate names are
// mapped to ErrNameExists.
func (r *DistributorRepo) Create(ctx context.Context, d *model.Distributor) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO distributors (name, start_range, end_range) VALUES (?, ?, ?)`,
		d.Name, d.StartRange, d.EndRange)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrNameExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = uint64(id)
	return nil
}

// GetByName returns the distributor with the given label, or sql.ErrNoRows.
func (r *DistributorRepo) GetByName(ctx context.Context, name string) (*model.Distributor, error) {
	const q = `SELECT id, name, start_range, end_range, created_at FROM distributors WHERE name = ? LIMIT 1`
	var d model.Distributor
	err := r.db.QueryRowContext(ctx, q, name).Scan(&d.ID, &d.Name, &d.StartRange, &d.EndRange, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns all distributors ordered by their assigned range.
func (r *DistributorRepo) List(ctx context.Context) ([]model.Distributor, error) {
	const q = `SELECT id, name, start_range, end_range, created_at FROM distributors ORDER BY start_range`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Distributor, 0)
	for rows.Next() {
		var d model.Distributor
		if err := rows.Scan(&d.ID, &d.Name, &d.StartRange, &d.EndRange, &d.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteByID removes a distributor. Existing registrations keep their
// label; the range constraint simply stops applying to new submissions.
// Returns sql.ErrNoRows when no such distributor exists.
func (r *DistributorRepo) DeleteByID(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM distributors WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
