package model

// The registration_counter table holds a single denormalized row
// answering "how many guest groups exist" without a collection scan. It
// is incremented and decremented inside the same transaction that
// creates or deletes a group, and can be rebuilt from a full COUNT(*)
// when drift is suspected. The repository reads the scalar directly.

// CounterRowID is the fixed primary key of the singleton counter row.
const CounterRowID = 1
