package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-guest-registration/internal/model"
)

func TestParse(t *testing.T) {
	rules := NewRules("ni", 1, 1000)

	n, err := rules.Parse("NI0001")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// prefix comparison is case-insensitive and whitespace is tolerated
	n, err = rules.Parse("  ni0437 ")
	require.NoError(t, err)
	assert.Equal(t, 437, n)

	for _, raw := range []string{"", "NI1", "NI00001", "N10001", "XX0005", "NI00a1", "0001NI"} {
		_, err := rules.Parse(raw)
		assert.ErrorIs(t, err, ErrBadFormat, "raw=%q", raw)
	}
}

func TestValidateGlobalRange(t *testing.T) {
	rules := NewRules("NI", 1, 1000)

	assert.NoError(t, rules.Validate("NI0001", nil))
	assert.NoError(t, rules.Validate("NI1000", nil))

	// numeric portion of zero is below the window
	assert.ErrorIs(t, rules.Validate("NI0000", nil), ErrOutOfBounds)
	// grammar failures are reported as format errors, not range errors
	assert.ErrorIs(t, rules.Validate("XX0005", nil), ErrBadFormat)
}

func TestValidateDistributorRange(t *testing.T) {
	rules := NewRules("NI", 1, 1000)
	dist := &model.Distributor{Name: "North Table", StartRange: 100, EndRange: 199}

	assert.NoError(t, rules.Validate("NI0100", dist))
	assert.NoError(t, rules.Validate("NI0199", dist))

	// inside the global window but outside the assignment
	err := rules.Validate("NI0200", dist)
	assert.ErrorIs(t, err, ErrOutsideAssignment)
	assert.Contains(t, err.Error(), "North Table")

	// global window still checked first
	assert.ErrorIs(t, rules.Validate("NI0000", dist), ErrOutOfBounds)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "NI0042", Normalize(" ni0042\n"))
}
