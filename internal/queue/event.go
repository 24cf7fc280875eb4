// Package queue defines message payloads exchanged over the message broker.
package queue

// RegistrationConfirmedEvent is published after a registration transaction
// commits. It carries enough information for downstream consumers to log,
// notify, or feed analytics without querying the primary database.
type RegistrationConfirmedEvent struct {
	GroupID          uint64   `json:"group_id"`
	PrimaryGuestName string   `json:"primary_guest_name"`
	DistributorLabel string   `json:"distributor_label"`
	TicketCodes      []string `json:"ticket_codes"`
	CompanionCount   int      `json:"companion_count"`
	RegisteredAt     string   `json:"registered_at"`
}
