package model

import "time"

// TicketClaim marks a ticket code as taken. The existence of a claim row
// for a code is equivalent to "this code is taken": claims are created in
// the same transaction as their owning companion and deleted in the same
// transaction as the companion or its group.
//
// Fields:
//  TicketCode – the claimed code, unique across the table.
//  OwnerName  – primary guest name of the claiming group (denormalized for
//               duplicate-ticket error messages without a join).
//  GroupID    – the guest group that owns this claim.
//  ClaimedAt  – when the claim was committed.
type TicketClaim struct {
	TicketCode string    `json:"ticket_code"` // ticket_claims.ticket_code (unique key)
	OwnerName  string    `json:"owner_name"`  // ticket_claims.owner_name
	GroupID    uint64    `json:"group_id"`    // ticket_claims.group_id
	ClaimedAt  time.Time `json:"claimed_at"`  // ticket_claims.claimed_at
}
