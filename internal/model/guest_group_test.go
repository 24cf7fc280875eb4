package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestGroupUnmarshalCurrentShape(t *testing.T) {
	payload := `{
		"id": 42,
		"primary_guest_name": "Maria Lopez",
		"contact_phone": "15551234567",
		"address_details": "12 Hillside Ave",
		"companions": [
			{"id": 101, "full_name": "Ana Lopez", "age": 7, "category": "GIRL", "ticket_code": "NI0005", "status": "CHECKED_IN"}
		]
	}`

	var g GuestGroup
	require.NoError(t, json.Unmarshal([]byte(payload), &g))
	require.Len(t, g.Companions, 1)
	assert.Equal(t, "NI0005", g.Companions[0].TicketCode)
	assert.Equal(t, StatusCheckedIn, g.Companions[0].Status)
}

func TestGuestGroupUnmarshalLegacyShape(t *testing.T) {
	// Old client builds sent "children" with "inviteNumber" and no status.
	payload := `{
		"primary_guest_name": "Maria Lopez",
		"children": [
			{"full_name": "Ana Lopez", "age": 7, "category": "GIRL", "inviteNumber": "NI0005"},
			{"full_name": "Luis Lopez", "age": 4, "category": "BOY", "ticketCode": "NI0006"}
		]
	}`

	var g GuestGroup
	require.NoError(t, json.Unmarshal([]byte(payload), &g))
	require.Len(t, g.Companions, 2)
	assert.Equal(t, "NI0005", g.Companions[0].TicketCode)
	assert.Equal(t, "NI0006", g.Companions[1].TicketCode)
	assert.Equal(t, StatusPending, g.Companions[0].Status)
	assert.Equal(t, StatusPending, g.Companions[1].Status)
}

func TestCompanionUnmarshalPrefersCurrentField(t *testing.T) {
	payload := `{"full_name": "Ana", "age": 7, "category": "GIRL", "ticket_code": "NI0005", "inviteNumber": "NI0009"}`

	var c Companion
	require.NoError(t, json.Unmarshal([]byte(payload), &c))
	assert.Equal(t, "NI0005", c.TicketCode)
}

func TestGuestGroupMarshalEmitsCurrentFieldsOnly(t *testing.T) {
	g := GuestGroup{
		ID:               42,
		PrimaryGuestName: "Maria Lopez",
		Companions: []Companion{
			{ID: 101, GroupID: 42, FullName: "Ana Lopez", TicketCode: "NI0005", Status: StatusPending},
		},
	}
	out, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"companions"`)
	assert.Contains(t, string(out), `"ticket_code"`)
	assert.NotContains(t, string(out), `"children"`)
	assert.NotContains(t, string(out), `"inviteNumber"`)
}
