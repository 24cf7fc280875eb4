// Package repository defines error types that are reused across multiple
// repositories. These values let higher layers such as the registration
// service and handlers distinguish between failure scenarios: a duplicate
// ticket claim is user-correctable, a missing counter row is an invariant
// violation that calls for reconciliation.
package repository

import (
	"errors"
	"fmt"
)

// ErrCounterMissing is returned when the registration counter row is
// absent inside a transaction. The ensure-step runs before every
// registration, so hitting this means the invariant was never healed;
// handlers translate it into an internal error recommending a rebuild,
// never into a duplicate-ticket message.
var ErrCounterMissing = errors.New("registration counter row missing")

// ErrAlreadyCheckedIn is returned when a check-in is attempted for a
// companion whose status already moved to CHECKED_IN. The transition is
// one-way and happens exactly once.
var ErrAlreadyCheckedIn = errors.New("companion already checked in")

// ErrNameExists is returned when creating a distributor whose name is
// already taken. Handlers should translate this into an HTTP 409.
var ErrNameExists = errors.New("name already exists")

// ErrEmailExists is returned when creating a user with an email that is
// already registered.
var ErrEmailExists = errors.New("email already exists")

// DuplicateTicketError reports that a ticket code is already claimed by a
// previously committed guest group. It carries the offending code and the
// current holder's name so the user-facing message can name both.
type DuplicateTicketError struct {
	TicketCode string
	ClaimedBy  string
}

func (e *DuplicateTicketError) Error() string {
	return fmt.Sprintf("ticket %s is already claimed by %s", e.TicketCode, e.ClaimedBy)
}
