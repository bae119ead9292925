// Package extraction defines the boundary for pulling structured
// invoice data out of uploaded documents. Providers live under
// internal/providers; the import service only sees Result.
package extraction

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrDisabled         = errors.New("extraction_disabled")
	ErrDocumentTooLarge = errors.New("document_too_large")
	ErrInvalidDocument  = errors.New("invalid_document")
	ErrProcessingFailed = errors.New("extraction_failed")
)

// MaxDocumentSize caps uploads at 20MB, the processing API limit.
const MaxDocumentSize = 20 * 1024 * 1024

// Line is one extracted invoice position.
type Line struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// Result is the structured data extracted from one document. Every
// field is best-effort; Confidence carries the per-field scores so the
// review UI can highlight weak spots.
type Result struct {
	InvoiceNumber string           `json:"invoice_number,omitempty"`
	VendorName    string           `json:"vendor_name,omitempty"`
	CustomerName  string           `json:"customer_name,omitempty"`
	IssueDate     *time.Time       `json:"issue_date,omitempty"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	Subtotal      *decimal.Decimal `json:"subtotal,omitempty"`
	VATAmount     *decimal.Decimal `json:"vat_amount,omitempty"`
	Total         *decimal.Decimal `json:"total,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	Lines         []Line           `json:"lines,omitempty"`

	Confidence map[string]float32 `json:"confidence,omitempty"`
}

// Processor extracts structured invoice data from a PDF stream.
type Processor interface {
	Extract(ctx context.Context, document io.Reader) (*Result, error)
}
