package number

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// NumberSource lists every invoice number ever issued to a user,
// regardless of status, archive or trash state. Numbers are never
// recycled, so abandoned drafts still count.
type NumberSource interface {
	InvoiceNumbers(ctx context.Context, userID int64) ([]string, error)
}

// Allocation is the result of determining the next invoice number.
type Allocation struct {
	InvoiceNumber  string `json:"invoice_number"`
	InvoiceCounter int64  `json:"invoice_counter"`
	InvoiceYear    int    `json:"invoice_year"`
}

// Allocator computes the next invoice number for a user and year.
//
// Allocation is a plain read: two concurrent calls can compute the same
// next number. Callers must insert under the (user_id, invoice_number)
// unique constraint in the same transaction and retry on conflict.
type Allocator struct {
	fallbackPrefix string
}

// NewAllocator builds an allocator. fallbackPrefix seeds the synthesized
// default format when a user supplies none; empty means "RE".
func NewAllocator(fallbackPrefix string) *Allocator {
	prefix := strings.TrimSpace(fallbackPrefix)
	if prefix == "" {
		prefix = "RE"
	}
	return &Allocator{fallbackPrefix: prefix}
}

// Allocate determines the next invoice number for the user.
//
// With an explicit seed, only numbers sharing the seed's exact prefix
// and suffix participate; otherwise any number with the synthesized
// default prefix does, and the padding of the highest match wins.
// When no prior number matches, the seed itself becomes the first
// issued number.
func (a *Allocator) Allocate(ctx context.Context, source NumberSource, userID int64, issueDate time.Time, seed string) (Allocation, error) {
	year := issueDate.Year()

	seed = strings.TrimSpace(seed)
	explicit := seed != ""
	if !explicit {
		seed = fmt.Sprintf("%s-%d-0001", a.fallbackPrefix, year)
	}

	parsed, err := Parse(seed)
	if err != nil {
		return Allocation{}, err
	}

	numbers, err := source.InvoiceNumbers(ctx, userID)
	if err != nil {
		return Allocation{}, err
	}

	var best *Parsed
	for _, value := range numbers {
		candidate, err := Parse(value)
		if err != nil {
			continue
		}
		if candidate.Prefix != parsed.Prefix {
			continue
		}
		if explicit && candidate.Suffix != parsed.Suffix {
			continue
		}
		if best == nil || candidate.Value > best.Value {
			best = candidate
		}
	}

	if best == nil {
		return Allocation{
			InvoiceNumber:  parsed.Format(parsed.Value, parsed.Padding),
			InvoiceCounter: parsed.Value,
			InvoiceYear:    year,
		}, nil
	}

	next := best.Value + 1
	padding := parsed.Padding
	if !explicit {
		padding = best.Padding
	}

	return Allocation{
		InvoiceNumber:  parsed.Format(next, padding),
		InvoiceCounter: next,
		InvoiceYear:    year,
	}, nil
}
