package number

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource []string

func (s staticSource) InvoiceNumbers(ctx context.Context, userID int64) ([]string, error) {
	return s, nil
}

func date(year int) time.Time {
	return time.Date(year, time.March, 15, 0, 0, 0, 0, time.UTC)
}

func TestAllocateFirstNumberOfYear(t *testing.T) {
	alloc, err := NewAllocator("RE").Allocate(context.Background(), staticSource{}, 1, date(2025), "")
	require.NoError(t, err)

	assert.Equal(t, "RE-2025-0001", alloc.InvoiceNumber)
	assert.Equal(t, int64(1), alloc.InvoiceCounter)
	assert.Equal(t, 2025, alloc.InvoiceYear)
}

func TestAllocateIncrementsHighest(t *testing.T) {
	source := staticSource{"RE-2025-0001", "RE-2025-0003", "RE-2025-0002"}
	alloc, err := NewAllocator("RE").Allocate(context.Background(), source, 1, date(2025), "")
	require.NoError(t, err)

	assert.Equal(t, "RE-2025-0004", alloc.InvoiceNumber)
	assert.Equal(t, int64(4), alloc.InvoiceCounter)
}

func TestAllocateYearsAreIndependent(t *testing.T) {
	source := staticSource{"RE-2024-0009"}
	alloc, err := NewAllocator("RE").Allocate(context.Background(), source, 1, date(2025), "")
	require.NoError(t, err)

	// Last year's sequence does not leak into the new year.
	assert.Equal(t, "RE-2025-0001", alloc.InvoiceNumber)
	assert.Equal(t, int64(1), alloc.InvoiceCounter)
}

func TestAllocateKeepsForeignFormatsApart(t *testing.T) {
	source := staticSource{"INV-007", "RE-2025-0001"}
	alloc, err := NewAllocator("RE").Allocate(context.Background(), source, 1, date(2025), "")
	require.NoError(t, err)

	assert.Equal(t, "RE-2025-0002", alloc.InvoiceNumber)
}

func TestAllocateExplicitSeedContinuesSeries(t *testing.T) {
	source := staticSource{"INV-007", "RE-2025-0002"}
	alloc, err := NewAllocator("RE").Allocate(context.Background(), source, 1, date(2025), "INV-001")
	require.NoError(t, err)

	assert.Equal(t, "INV-008", alloc.InvoiceNumber)
	assert.Equal(t, int64(8), alloc.InvoiceCounter)
}

func TestAllocateExplicitSeedStartsFresh(t *testing.T) {
	alloc, err := NewAllocator("RE").Allocate(context.Background(), staticSource{}, 1, date(2025), "INV-055")
	require.NoError(t, err)

	// No prior match: the seed itself becomes the first number.
	assert.Equal(t, "INV-055", alloc.InvoiceNumber)
	assert.Equal(t, int64(55), alloc.InvoiceCounter)
}

func TestAllocatePaddingFollowsHighestMatch(t *testing.T) {
	source := staticSource{"RE-2025-07"}
	alloc, err := NewAllocator("RE").Allocate(context.Background(), source, 1, date(2025), "")
	require.NoError(t, err)

	assert.Equal(t, "RE-2025-08", alloc.InvoiceNumber)
}

func TestAllocateUnparseableSeed(t *testing.T) {
	_, err := NewAllocator("RE").Allocate(context.Background(), staticSource{}, 1, date(2025), "NOPE")
	assert.ErrorIs(t, err, ErrNoNumericSequence)
}
