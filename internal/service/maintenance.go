package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/event-guest-registration/internal/model"
	"github.com/iliyamo/event-guest-registration/internal/repository"
)

// ConfirmPhrase must be typed verbatim to run the destructive import and
// reset operations. A confirmation boolean is too easy to script by
// accident; a phrase is not.
const ConfirmPhrase = "REPLACE ALL DATA"

// ErrConfirmationRequired is returned when a destructive maintenance
// operation is attempted without the exact confirmation phrase.
var ErrConfirmationRequired = errors.New("confirmation phrase does not match")

// Snapshot is the full-dataset export format: one JSON document with an
// array per logical collection plus a generation timestamp. Import
// replaces all current state with the snapshot contents, preserving the
// original ids so claim parent references survive the round trip.
type Snapshot struct {
	GeneratedAt  time.Time           `json:"generated_at"`
	Distributors []model.Distributor `json:"distributors"`
	Groups       []model.GuestGroup  `json:"groups"`
	Claims       []model.TicketClaim `json:"claims"`
	Users        []model.User        `json:"users"`
}

// MaintenanceService bundles the administrative batch operations: counter
// reconciliation, orphan-claim cleanup, full export/import and bulk reset.
// These operate over the same data model as the registration transaction
// but are expected to run while the system is quiet.
type MaintenanceService struct {
	db      *sql.DB
	groups  *repository.GuestGroupRepo
	claims  *repository.TicketClaimRepo
	counter *repository.CounterRepo
	dists   *repository.DistributorRepo
	users   *repository.UserRepo
}

// NewMaintenanceService wires the service. All dependencies must be
// non-nil.
func NewMaintenanceService(db *sql.DB, groups *repository.GuestGroupRepo, claims *repository.TicketClaimRepo, counter *repository.CounterRepo, dists *repository.DistributorRepo, users *repository.UserRepo) *MaintenanceService {
	if db == nil || groups == nil || claims == nil || counter == nil || dists == nil || users == nil {
		panic("nil dependency passed to NewMaintenanceService")
	}
	return &MaintenanceService{db: db, groups: groups, claims: claims, counter: counter, dists: dists, users: users}
}

// RebuildCounter recomputes the registration counter from a full scan of
// guest_groups and overwrites the cached value, repairing any drift. It
// returns the authoritative count.
func (s *MaintenanceService) RebuildCounter(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var count int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM guest_groups`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count guest groups: %w", err)
	}
	if err := s.counter.SetTx(ctx, tx, count); err != nil {
		return 0, fmt.Errorf("set counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit rebuild: %w", err)
	}
	committed = true
	return count, nil
}

// CleanupOrphanClaims removes ticket claims whose guest group no longer
// exists and reports how many were removed. Running it twice in a row
// removes nothing the second time.
func (s *MaintenanceService) CleanupOrphanClaims(ctx context.Context) (int64, error) {
	return s.claims.DeleteOrphans(ctx)
}

// Export assembles the full-dataset snapshot from every collection.
func (s *MaintenanceService) Export(ctx context.Context) (*Snapshot, error) {
	dists, err := s.dists.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export distributors: %w", err)
	}
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export guest groups: %w", err)
	}
	claims, err := s.claims.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export ticket claims: %w", err)
	}
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export users: %w", err)
	}
	return &Snapshot{
		GeneratedAt:  time.Now().UTC(),
		Distributors: dists,
		Groups:       groups,
		Claims:       claims,
		Users:        users,
	}, nil
}

// Import replaces all current state with the snapshot contents in one
// all-or-nothing transaction. Original ids are preserved. The caller must
// pass the exact confirmation phrase; anything else aborts before any
// write.
func (s *MaintenanceService) Import(ctx context.Context, confirm string, snap *Snapshot) error {
	if confirm != ConfirmPhrase {
		return ErrConfirmationRequired
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Wipe in dependency order: claims and companions first, then groups,
	// then configuration and accounts.
	for _, stmt := range []string{
		`DELETE FROM ticket_claims`,
		`DELETE FROM companions`,
		`DELETE FROM guest_groups`,
		`DELETE FROM distributors`,
		`DELETE FROM refresh_tokens`,
		`DELETE FROM users`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("wipe before import: %w", err)
		}
	}

	for _, d := range snap.Distributors {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO distributors (id, name, start_range, end_range, created_at) VALUES (?, ?, ?, ?, ?)`,
			d.ID, d.Name, d.StartRange, d.EndRange, d.CreatedAt); err != nil {
			return fmt.Errorf("restore distributor %q: %w", d.Name, err)
		}
	}
	for _, g := range snap.Groups {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO guest_groups (id, primary_guest_name, contact_phone, distributor_label, address_details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			g.ID, g.PrimaryGuestName, g.ContactPhone, g.DistributorLabel, g.AddressDetails, g.CreatedAt); err != nil {
			return fmt.Errorf("restore group %d: %w", g.ID, err)
		}
		for _, c := range g.Companions {
			status := c.Status
			if status == "" {
				status = model.StatusPending
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO companions (id, group_id, full_name, age, category, ticket_code, status) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				c.ID, g.ID, c.FullName, c.Age, c.Category, c.TicketCode, status); err != nil {
				return fmt.Errorf("restore companion %s: %w", c.TicketCode, err)
			}
		}
	}
	for _, c := range snap.Claims {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ticket_claims (ticket_code, owner_name, group_id, claimed_at) VALUES (?, ?, ?, ?)`,
			c.TicketCode, c.OwnerName, c.GroupID, c.ClaimedAt); err != nil {
			return fmt.Errorf("restore claim %s: %w", c.TicketCode, err)
		}
	}
	for _, u := range snap.Users {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (id, email, password_hash, role, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			u.ID, u.Email, u.PasswordHash, u.Role, u.IsActive, u.CreatedAt); err != nil {
			return fmt.Errorf("restore user %s: %w", u.Email, err)
		}
	}
	if err := s.counter.SetTx(ctx, tx, int64(len(snap.Groups))); err != nil {
		return fmt.Errorf("restore counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	committed = true
	return nil
}

// Reset deletes all guest groups, companions and ticket claims and zeroes
// the counter, leaving distributors and users untouched. Requires the
// same confirmation phrase as Import.
func (s *MaintenanceService) Reset(ctx context.Context, confirm string) error {
	if confirm != ConfirmPhrase {
		return ErrConfirmationRequired
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM ticket_claims`,
		`DELETE FROM companions`,
		`DELETE FROM guest_groups`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	if err := s.counter.SetTx(ctx, tx, 0); err != nil {
		return fmt.Errorf("reset counter: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	committed = true
	return nil
}
