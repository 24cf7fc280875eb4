// Package ticket implements the ticket code grammar and range checks.
// A code is a fixed two-letter prefix followed by exactly four digits
// (e.g. NI0042). The numeric portion must fall inside a configurable
// global window and, when the submission names a distributor with an
// assigned sub-range, inside that sub-range as well. Validation never
// touches storage; the registration service re-runs these checks inside
// the transaction so a tampered client cannot bypass them.
package ticket

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/iliyamo/event-guest-registration/internal/model"
)

// Sentinel categories for validation failures. Callers use errors.Is to
// distinguish a malformed code from an in-grammar but out-of-range one.
var (
	ErrBadFormat         = errors.New("ticket code is malformed")
	ErrOutOfBounds       = errors.New("ticket number outside the allowed range")
	ErrOutsideAssignment = errors.New("ticket number outside the distributor's assigned range")
)

var codePattern = regexp.MustCompile(`^[A-Za-z]{2}[0-9]{4}$`)

// Rules captures the configured grammar: the expected prefix and the
// global numeric window.
type Rules struct {
	Prefix string // two letters, stored upper-case
	Min    int    // lowest valid number, inclusive
	Max    int    // highest valid number, inclusive
}

// NewRules builds a Rules value, normalizing the prefix to upper-case.
func NewRules(prefix string, min, max int) Rules {
	return Rules{Prefix: strings.ToUpper(prefix), Min: min, Max: max}
}

// Normalize trims surrounding whitespace and upper-cases a raw code so
// "ni0001 " and "NI0001" claim the same ticket.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Parse validates the shape and prefix of a raw code and returns its
// numeric portion. The prefix comparison is case-insensitive.
func (r Rules) Parse(raw string) (int, error) {
	code := Normalize(raw)
	if !codePattern.MatchString(code) {
		return 0, fmt.Errorf("%w: %q must be two letters followed by four digits", ErrBadFormat, raw)
	}
	if code[:2] != r.Prefix {
		return 0, fmt.Errorf("%w: %q must start with %s", ErrBadFormat, raw, r.Prefix)
	}
	n, err := strconv.Atoi(code[2:])
	if err != nil { // unreachable after the pattern match, kept for safety
		return 0, fmt.Errorf("%w: %q", ErrBadFormat, raw)
	}
	return n, nil
}

// Validate checks a raw code against the grammar, the global window and,
// when dist is non-nil, the distributor's assigned sub-range. Checks run
// in that order and the first failure wins.
func (r Rules) Validate(raw string, dist *model.Distributor) error {
	n, err := r.Parse(raw)
	if err != nil {
		return err
	}
	if n < r.Min || n > r.Max {
		return fmt.Errorf("%w: %q is not within [%d,%d]", ErrOutOfBounds, Normalize(raw), r.Min, r.Max)
	}
	if dist != nil && (n < dist.StartRange || n > dist.EndRange) {
		return fmt.Errorf("%w: %q is not within %s's range [%d,%d]",
			ErrOutsideAssignment, Normalize(raw), dist.Name, dist.StartRange, dist.EndRange)
	}
	return nil
}
