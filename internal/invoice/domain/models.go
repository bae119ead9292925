// Package domain contains the invoice data model, lifecycle states and
// service contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// InvoiceType distinguishes regular invoices from cancellation
// counter-documents (credit notes).
type InvoiceType string

const (
	TypeStandard     InvoiceType = "standard"
	TypeCancellation InvoiceType = "cancellation"
)

// InvoiceSource records how the invoice entered the system.
type InvoiceSource string

const (
	SourceManual InvoiceSource = "manual"
	SourceUpload InvoiceSource = "upload"
)

// Status is the lifecycle state. It is derived from the timestamps and
// never stored: a stored enum cannot drift out of sync with sent_at and
// paid_at if it does not exist.
type Status string

const (
	StatusDraft Status = "draft"
	StatusOpen  Status = "open"
	StatusPaid  Status = "paid"
)

// DerivedState is the display projection over status, payments and due
// date.
type DerivedState string

const (
	StateDraft   DerivedState = "draft"
	StateSent    DerivedState = "sent"
	StatePartial DerivedState = "partial"
	StatePaid    DerivedState = "paid"
	StateOverdue DerivedState = "overdue"
)

// Invoice is the central entity. Monetary fields are fixed-point
// decimals with two digits; a cancellation invoice carries the exact
// negation of its original.
type Invoice struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID         int64        `gorm:"not null;index;uniqueIndex:ux_invoices_user_number" json:"user_id"`
	InvoiceNumber  string       `gorm:"not null;uniqueIndex:ux_invoices_user_number" json:"invoice_number"`
	InvoiceCounter int64        `gorm:"not null" json:"invoice_counter"`
	InvoiceYear    int          `gorm:"not null" json:"invoice_year"`

	Type               InvoiceType   `gorm:"type:text;not null;default:'standard'" json:"type"`
	CancelledInvoiceID *snowflake.ID `gorm:"uniqueIndex:ux_invoices_cancelled_invoice" json:"cancelled_invoice_id,omitempty"`

	ContactID *snowflake.ID `gorm:"index" json:"contact_id,omitempty"`

	IssueDate  time.Time  `gorm:"not null" json:"issue_date"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	SentAt     *time.Time `json:"sent_at,omitempty"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	TrashedAt  *time.Time `json:"trashed_at,omitempty"`

	Subtotal   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"subtotal"`
	VATAmount  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"vat_amount"`
	Total      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total"`
	AmountPaid decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"amount_paid"`
	Currency   string          `gorm:"type:text;not null;default:'EUR'" json:"currency"`

	NeedsReview bool              `gorm:"not null;default:false" json:"needs_review"`
	Source      InvoiceSource     `gorm:"type:text;not null;default:'manual'" json:"source"`
	DocumentKey *string           `json:"document_key,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Status derives the lifecycle state from the timestamps.
func (i Invoice) Status() Status {
	switch {
	case i.PaidAt != nil:
		return StatusPaid
	case i.SentAt != nil:
		return StatusOpen
	default:
		return StatusDraft
	}
}

// Outstanding is the unpaid remainder, floored at zero.
func (i Invoice) Outstanding() decimal.Decimal {
	outstanding := i.Total.Sub(i.AmountPaid)
	if outstanding.IsNegative() {
		return decimal.Zero
	}
	return outstanding
}

// IsPaid reports whether the full total has been covered by payments.
func (i Invoice) IsPaid() bool {
	return i.Outstanding().LessThanOrEqual(decimal.Zero)
}

// IsPartial reports whether payments exist but do not cover the total.
func (i Invoice) IsPartial() bool {
	return i.AmountPaid.IsPositive() && i.Outstanding().IsPositive()
}

// IsOverdue reports whether a sent, unpaid invoice has passed its due
// date.
func (i Invoice) IsOverdue(now time.Time) bool {
	return i.SentAt != nil && !i.IsPaid() && i.DueAt != nil && i.DueAt.Before(now)
}

// State is the display projection used by list views.
func (i Invoice) State(now time.Time) DerivedState {
	switch {
	case i.PaidAt != nil:
		return StatePaid
	case i.SentAt == nil:
		return StateDraft
	case i.IsOverdue(now):
		return StateOverdue
	case i.IsPartial():
		return StatePartial
	default:
		return StateSent
	}
}

// IsCancellation reports whether this invoice is a credit note.
func (i Invoice) IsCancellation() bool { return i.Type == TypeCancellation }

// LineItem is a single position on an invoice. Rows are owned by the
// invoice: replaced wholesale on update, deleted with it.
type LineItem struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	Quantity  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"line_total"`
	Currency  string          `gorm:"type:text;not null;default:'EUR'" json:"currency"`
	Position  int             `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (LineItem) TableName() string { return "invoice_line_items" }

// Payment is a recorded (partial) payment against a sent invoice.
type Payment struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceID snowflake.ID    `gorm:"not null;index" json:"invoice_id"`
	UserID    int64           `gorm:"not null;index" json:"user_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	PaidAt    time.Time       `gorm:"not null" json:"paid_at"`
	Note      string          `gorm:"type:text" json:"note,omitempty"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "invoice_payments" }
