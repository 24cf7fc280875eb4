package model

import (
	"encoding/json"
	"time"
)

// Companion status values. A companion starts PENDING and moves to
// CHECKED_IN exactly once when the ticket is scanned at the door; no
// transition back is exposed.
const (
	StatusPending   = "PENDING"
	StatusCheckedIn = "CHECKED_IN"
)

// GuestGroup records one household's registration submission. It
// aggregates one or more ticketed companions created under a single
// transaction.
//
// Fields:
//  ID               – primary key identifier.
//  PrimaryGuestName – name of the adult who submitted the form.
//  ContactPhone     – contact phone, digits only after normalization.
//  DistributorLabel – optional distributor or table name used for reporting.
//  AddressDetails   – free-text address.
//  Companions       – ticketed individuals covered by this group.
//  CreatedAt        – creation timestamp, assigned at commit.
type GuestGroup struct {
	ID               uint64      `json:"id"`                // guest_groups.id
	PrimaryGuestName string      `json:"primary_guest_name"` // guest_groups.primary_guest_name
	ContactPhone     string      `json:"contact_phone"`     // guest_groups.contact_phone
	DistributorLabel string      `json:"distributor_label"` // guest_groups.distributor_label
	AddressDetails   string      `json:"address_details"`   // guest_groups.address_details
	Companions       []Companion `json:"companions"`        // companions rows owned by this group
	CreatedAt        time.Time   `json:"created_at"`        // guest_groups.created_at
}

// Companion is one ticketed individual within a guest group. The
// companion is owned exclusively by its parent group; deleting the group
// deletes all companions and releases their ticket claims.
//
// Fields:
//  ID         – primary key identifier.
//  GroupID    – parent guest group.
//  FullName   – companion name.
//  Age        – age in years, 0..12 for the toy-drive use case.
//  Category   – gender/category enum (BOY, GIRL, OTHER).
//  TicketCode – unique code of the form prefix + 4 digits.
//  Status     – PENDING or CHECKED_IN.
type Companion struct {
	ID         uint64 `json:"id"`          // companions.id
	GroupID    uint64 `json:"group_id"`    // companions.group_id
	FullName   string `json:"full_name"`   // companions.full_name
	Age        int    `json:"age"`         // companions.age
	Category   string `json:"category"`    // companions.category
	TicketCode string `json:"ticket_code"` // companions.ticket_code
	Status     string `json:"status"`      // companions.status
}

// Legacy payloads (old client builds and old backups) used "children" for
// the companion list and "inviteNumber" for the ticket code. Migration
// happens here, at the storage/wire boundary, so nothing downstream ever
// branches on field presence.

// UnmarshalJSON accepts both the current and the legacy group shape.
func (g *GuestGroup) UnmarshalJSON(data []byte) error {
	type alias GuestGroup
	aux := struct {
		*alias
		Children []Companion `json:"children"`
	}{alias: (*alias)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(g.Companions) == 0 && len(aux.Children) > 0 {
		g.Companions = aux.Children
	}
	return nil
}

// UnmarshalJSON accepts both "ticket_code" and the legacy "inviteNumber"
// spelling, and defaults a missing status to PENDING.
func (c *Companion) UnmarshalJSON(data []byte) error {
	type alias Companion
	aux := struct {
		*alias
		InviteNumber string `json:"inviteNumber"`
		TicketCamel  string `json:"ticketCode"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.TicketCode == "" {
		if aux.TicketCamel != "" {
			c.TicketCode = aux.TicketCamel
		} else if aux.InviteNumber != "" {
			c.TicketCode = aux.InviteNumber
		}
	}
	if c.Status == "" {
		c.Status = StatusPending
	}
	return nil
}
