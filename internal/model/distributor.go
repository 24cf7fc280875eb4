package model

import "time"

// Distributor names a person or table that hands out tickets from a
// pre-assigned numeric sub-range. It is a pure validation constraint:
// a submission naming this distributor may only use ticket numbers inside
// [StartRange, EndRange].
//
// Fields:
//  ID         – primary key identifier.
//  Name       – unique distributor/table label.
//  StartRange – first ticket number assigned (inclusive).
//  EndRange   – last ticket number assigned (inclusive).
//  CreatedAt  – creation timestamp.
type Distributor struct {
	ID         uint64    `json:"id"`          // distributors.id
	Name       string    `json:"name"`        // distributors.name
	StartRange int       `json:"start_range"` // distributors.start_range
	EndRange   int       `json:"end_range"`   // distributors.end_range
	CreatedAt  time.Time `json:"created_at"`  // distributors.created_at
}
