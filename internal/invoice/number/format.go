// Package number implements invoice number parsing, formatting and
// sequential allocation.
//
// A number format is any string containing at least one digit run; the
// RIGHTMOST run is the sequence counter. "RE-2025-0001" parses into
// prefix "RE-2025-", counter 1, padding 4. Everything after the counter
// is an opaque suffix.
package number

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrNoNumericSequence is returned when a format contains no digit run.
var ErrNoNumericSequence = errors.New("number_missing_numeric_sequence")

// numberRe anchors the LAST digit run: the suffix group cannot contain
// digits, so backtracking pushes earlier runs into the prefix.
var numberRe = regexp.MustCompile(`^(.*?)(\d+)(\D*)$`)

// Parsed is the decomposition of an invoice number or format seed.
type Parsed struct {
	Prefix      string
	NumericText string
	Suffix      string
	Value       int64
	Padding     int
}

// Parse decomposes value around its rightmost digit run.
func Parse(value string) (*Parsed, error) {
	m := numberRe.FindStringSubmatch(value)
	if m == nil {
		return nil, ErrNoNumericSequence
	}

	numeric, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		// Digit run longer than an int64; treat as unparseable.
		return nil, ErrNoNumericSequence
	}

	return &Parsed{
		Prefix:      m[1],
		NumericText: m[2],
		Suffix:      m[3],
		Value:       numeric,
		Padding:     len(m[2]),
	}, nil
}

// Format renders prefix + zero-padded counter + suffix. A non-positive
// padding falls back to the parsed width, preserving leading zeros.
func (p *Parsed) Format(next int64, padding int) string {
	if padding <= 0 {
		padding = p.Padding
	}
	return fmt.Sprintf("%s%0*d%s", p.Prefix, padding, next, p.Suffix)
}
