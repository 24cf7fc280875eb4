// Package service implements the registration transaction protocol on top
// of the repository layer. All reads and writes of a registration happen
// inside one database transaction: either the guest group, its companions,
// every ticket claim and the counter increment all commit together, or
// none of them are observable.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/iliyamo/event-guest-registration/internal/model"
	"github.com/iliyamo/event-guest-registration/internal/repository"
	"github.com/iliyamo/event-guest-registration/internal/ticket"
)

// Companion age window for the toy-drive use case.
const (
	minCompanionAge = 0
	maxCompanionAge = 12
)

// Accepted companion categories.
var validCategories = map[string]bool{
	"BOY":   true,
	"GIRL":  true,
	"OTHER": true,
}

// ErrCapacityFull is returned when the configured registration cap has
// been reached. No slots remain, so the submission is rejected before any
// write.
var ErrCapacityFull = errors.New("no registration slots remaining")

// ValidationError is a client-correctable submission problem: a missing
// field, a malformed ticket code, an age out of bounds. It never reflects
// stored state and never leaves partial writes behind.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// CompanionInput is one ticketed individual in a submission.
type CompanionInput struct {
	FullName   string `json:"full_name"`
	Age        int    `json:"age"`
	Category   string `json:"category"`
	TicketCode string `json:"ticket_code"`
}

// RegistrationInput is the logical submission payload. Field values are
// normalized in place during validation (codes upper-cased, phone
// stripped to digits).
type RegistrationInput struct {
	PrimaryGuestName string           `json:"primary_guest_name"`
	ContactPhone     string           `json:"contact_phone"`
	DistributorLabel string           `json:"distributor_label"`
	AddressDetails   string           `json:"address_details"`
	Companions       []CompanionInput `json:"companions"`
}

// RegistrationService owns the atomic registration path plus the
// remaining-slot and statistics queries that feed the polling dashboards.
type RegistrationService struct {
	db      *sql.DB
	groups  *repository.GuestGroupRepo
	claims  *repository.TicketClaimRepo
	counter *repository.CounterRepo
	dists   *repository.DistributorRepo
	rules   ticket.Rules
	maxRegs int
}

// NewRegistrationService wires the service. All dependencies must be
// non-nil.
func NewRegistrationService(db *sql.DB, groups *repository.GuestGroupRepo, claims *repository.TicketClaimRepo, counter *repository.CounterRepo, dists *repository.DistributorRepo, rules ticket.Rules, maxRegs int) *RegistrationService {
	if db == nil || groups == nil || claims == nil || counter == nil || dists == nil {
		panic("nil dependency passed to NewRegistrationService")
	}
	return &RegistrationService{
		db:      db,
		groups:  groups,
		claims:  claims,
		counter: counter,
		dists:   dists,
		rules:   rules,
		maxRegs: maxRegs,
	}
}

// validate normalizes the submission and checks every static rule: required
// fields, phone shape, age and category bounds, ticket grammar and range,
// and duplicates within the submission itself. It touches no storage except
// the distributor lookup needed for the range constraint.
func (s *RegistrationService) validate(ctx context.Context, in *RegistrationInput) (*model.Distributor, error) {
	in.PrimaryGuestName = strings.TrimSpace(in.PrimaryGuestName)
	if in.PrimaryGuestName == "" {
		return nil, validationf("primary guest name is required")
	}
	in.ContactPhone = digitsOnly(in.ContactPhone)
	if len(in.ContactPhone) < 8 {
		return nil, validationf("contact phone must contain at least 8 digits")
	}
	in.AddressDetails = strings.TrimSpace(in.AddressDetails)
	if in.AddressDetails == "" {
		return nil, validationf("address details are required")
	}
	if len(in.Companions) == 0 {
		return nil, validationf("at least one companion is required")
	}

	in.DistributorLabel = strings.TrimSpace(in.DistributorLabel)
	var dist *model.Distributor
	if in.DistributorLabel != "" {
		d, err := s.dists.GetByName(ctx, in.DistributorLabel)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, validationf("unknown distributor %q", in.DistributorLabel)
			}
			return nil, fmt.Errorf("look up distributor: %w", err)
		}
		dist = d
	} else {
		// A label is mandatory once distributors are configured, so every
		// submission is attributable to a hand-out range.
		configured, err := s.dists.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list distributors: %w", err)
		}
		if len(configured) > 0 {
			return nil, validationf("distributor is required")
		}
	}

	seen := make(map[string]bool, len(in.Companions))
	for i := range in.Companions {
		c := &in.Companions[i]
		c.FullName = strings.TrimSpace(c.FullName)
		if c.FullName == "" {
			return nil, validationf("companion #%d: full name is required", i+1)
		}
		if c.Age < minCompanionAge || c.Age > maxCompanionAge {
			return nil, validationf("companion #%d: age must be between %d and %d", i+1, minCompanionAge, maxCompanionAge)
		}
		c.Category = strings.ToUpper(strings.TrimSpace(c.Category))
		if !validCategories[c.Category] {
			return nil, validationf("companion #%d: invalid category %q", i+1, c.Category)
		}
		if err := s.rules.Validate(c.TicketCode, dist); err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}
		c.TicketCode = ticket.Normalize(c.TicketCode)
		if seen[c.TicketCode] {
			return nil, validationf("ticket %s appears more than once in this submission", c.TicketCode)
		}
		seen[c.TicketCode] = true
	}
	return dist, nil
}

// Register executes the registration transaction. Preconditions checked
// inside the transaction, in order: the counter row exists and the cap is
// not reached; no submitted ticket code carries an existing claim. On
// success the group, its companions, one claim per companion and a single
// counter increment commit as one unit and the materialized group is
// returned. On any failure nothing is observable afterwards.
//
// Concurrent submissions racing on the same code serialize on the claim
// row locks; the loser sees the winner's claim and aborts with a
// DuplicateTicketError naming the code and the current holder.
func (s *RegistrationService) Register(ctx context.Context, in RegistrationInput) (*model.GuestGroup, error) {
	if _, err := s.validate(ctx, &in); err != nil {
		return nil, err
	}

	// Best-effort self-heal before the transaction: the transaction cannot
	// create-if-missing across two round trips reliably, so it re-reads the
	// counter and fails clearly if this did not stick.
	if err := s.counter.Ensure(ctx); err != nil {
		log.Printf("registration: counter ensure failed: %v", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	count, err := s.counter.GetForUpdateTx(ctx, tx)
	if err != nil {
		return nil, err
	}
	if s.maxRegs > 0 && count >= int64(s.maxRegs) {
		return nil, ErrCapacityFull
	}

	codes := make([]string, 0, len(in.Companions))
	for _, c := range in.Companions {
		codes = append(codes, c.TicketCode)
	}
	existing, err := s.claims.ClaimsForUpdateTx(ctx, tx, codes)
	if err != nil {
		return nil, fmt.Errorf("check ticket claims: %w", err)
	}
	if len(existing) > 0 {
		// All-or-nothing: one already-claimed code aborts the whole group.
		return nil, &repository.DuplicateTicketError{
			TicketCode: existing[0].TicketCode,
			ClaimedBy:  existing[0].OwnerName,
		}
	}

	group := &model.GuestGroup{
		PrimaryGuestName: in.PrimaryGuestName,
		ContactPhone:     in.ContactPhone,
		DistributorLabel: in.DistributorLabel,
		AddressDetails:   in.AddressDetails,
		Companions:       make([]model.Companion, 0, len(in.Companions)),
	}
	for _, c := range in.Companions {
		group.Companions = append(group.Companions, model.Companion{
			FullName:   c.FullName,
			Age:        c.Age,
			Category:   c.Category,
			TicketCode: c.TicketCode,
			Status:     model.StatusPending,
		})
	}
	if err := s.groups.CreateTx(ctx, tx, group); err != nil {
		return nil, fmt.Errorf("create guest group: %w", err)
	}

	claims := make([]model.TicketClaim, 0, len(group.Companions))
	for _, c := range group.Companions {
		claims = append(claims, model.TicketClaim{
			TicketCode: c.TicketCode,
			OwnerName:  group.PrimaryGuestName,
			GroupID:    group.ID,
		})
	}
	if err := s.claims.CreateBulkTx(ctx, tx, claims); err != nil {
		return nil, err
	}

	// One increment per group, not per ticket.
	if err := s.counter.IncrementTx(ctx, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit registration: %w", err)
	}
	committed = true
	return group, nil
}

// RemainingSlots returns max(0, cap - count), lazily initializing the
// counter from a full count when the row is missing.
func (s *RegistrationService) RemainingSlots(ctx context.Context) (int64, error) {
	if err := s.counter.Ensure(ctx); err != nil {
		return 0, fmt.Errorf("ensure counter: %w", err)
	}
	count, err := s.counter.Get(ctx)
	if err != nil {
		return 0, err
	}
	remaining := int64(s.maxRegs) - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// DeleteGroup removes a guest group, its companions and every ticket
// claim the group owns, and decrements the counter, all in one
// transaction. Freed codes become claimable again the moment the
// transaction commits.
func (s *RegistrationService) DeleteGroup(ctx context.Context, groupID uint64) error {
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

	if _, err := s.groups.TicketCodesTx(ctx, tx, groupID); err != nil {
		return err // sql.ErrNoRows -> group not found
	}
	if err := s.claims.DeleteByGroupTx(ctx, tx, groupID); err != nil {
		return fmt.Errorf("release ticket claims: %w", err)
	}
	if err := s.groups.DeleteTx(ctx, tx, groupID); err != nil {
		return fmt.Errorf("delete guest group: %w", err)
	}
	if err := s.counter.DecrementTx(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit deletion: %w", err)
	}
	committed = true
	return nil
}

// DeleteCompanion removes one companion and its ticket claim in one
// transaction. The counter is untouched: it tracks groups, not tickets.
func (s *RegistrationService) DeleteCompanion(ctx context.Context, companionID uint64) error {
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

	c, err := s.groups.CompanionByIDTx(ctx, tx, companionID)
	if err != nil {
		return err // sql.ErrNoRows -> companion not found
	}
	if err := s.claims.DeleteByCodeTx(ctx, tx, c.TicketCode); err != nil {
		return fmt.Errorf("release ticket claim: %w", err)
	}
	if err := s.groups.DeleteCompanionTx(ctx, tx, companionID); err != nil {
		return fmt.Errorf("delete companion: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit deletion: %w", err)
	}
	committed = true
	return nil
}

// CheckIn flips a companion to CHECKED_IN by ticket code. Returns the
// companion, ErrAlreadyCheckedIn when the transition already happened, or
// sql.ErrNoRows when no companion holds the code.
func (s *RegistrationService) CheckIn(ctx context.Context, rawCode string) (*model.Companion, error) {
	code := ticket.Normalize(rawCode)
	if _, err := s.rules.Parse(code); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	return s.groups.CheckInByTicketCode(ctx, code)
}

// digitsOnly strips every non-digit rune from a phone string.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
