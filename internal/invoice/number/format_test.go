package number

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		value   string
		prefix  string
		suffix  string
		counter int64
		padding int
	}{
		{"RE-2025-0001", "RE-2025-", "", 1, 4},
		{"INV-007", "INV-", "", 7, 3},
		{"2025-17", "2025-", "", 17, 2},
		{"42", "", "", 42, 2},
		{"A1B", "A", "B", 1, 1},
		{"RE/2024/010-K", "RE/2024/", "-K", 10, 3},
	}

	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			parsed, err := Parse(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.prefix, parsed.Prefix)
			assert.Equal(t, tc.suffix, parsed.Suffix)
			assert.Equal(t, tc.counter, parsed.Value)
			assert.Equal(t, tc.padding, parsed.Padding)
		})
	}
}

func TestParseRejectsNonNumeric(t *testing.T) {
	for _, value := range []string{"", "INVOICE", "RE--"} {
		_, err := Parse(value)
		assert.ErrorIs(t, err, ErrNoNumericSequence, value)
	}
}

func TestFormatPreservesPadding(t *testing.T) {
	parsed, err := Parse("INV-007")
	require.NoError(t, err)

	assert.Equal(t, "INV-008", parsed.Format(8, parsed.Padding))
	assert.Equal(t, "INV-100", parsed.Format(100, parsed.Padding))
	// Counter wider than the padding grows the field.
	assert.Equal(t, "INV-1000", parsed.Format(1000, parsed.Padding))
}

func TestFormatFallsBackToParsedWidth(t *testing.T) {
	parsed, err := Parse("RE-2025-0001")
	require.NoError(t, err)
	assert.Equal(t, "RE-2025-0002", parsed.Format(2, 0))
}
