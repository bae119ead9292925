package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/mantodeus/mantodeus-manager/pkg/db/pagination"
)

// LineItemInput is a single line in a create or update request.
type LineItemInput struct {
	Name      string          `json:"name" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// CreateInvoiceRequest creates a new invoice. New invoices are always
// drafts: any other requested Status is ignored.
type CreateInvoiceRequest struct {
	UserID        int64           `json:"-"`
	InvoiceNumber string          `json:"invoice_number"`
	Status        string          `json:"status"`
	ContactID     *snowflake.ID   `json:"contact_id,string,omitempty"`
	IssueDate     *time.Time      `json:"issue_date"`
	DueAt         *time.Time      `json:"due_at,omitempty"`
	Currency      string          `json:"currency"`
	VATAmount     decimal.Decimal `json:"vat_amount"`
	LineItems     []LineItemInput `json:"line_items"`
	Source        InvoiceSource   `json:"source,omitempty"`
	DocumentKey   *string         `json:"document_key,omitempty"`
	NeedsReview   bool            `json:"needs_review,omitempty"`
}

// UpdateInvoiceRequest replaces the mutable fields of a draft. Line
// items, when present, replace the existing rows wholesale.
type UpdateInvoiceRequest struct {
	UserID        int64            `json:"-"`
	InvoiceID     snowflake.ID     `json:"-"`
	InvoiceNumber *string          `json:"invoice_number,omitempty"`
	ContactID     *snowflake.ID    `json:"contact_id,string,omitempty"`
	IssueDate     *time.Time       `json:"issue_date,omitempty"`
	DueAt         *time.Time       `json:"due_at,omitempty"`
	Currency      *string          `json:"currency,omitempty"`
	VATAmount     *decimal.Decimal `json:"vat_amount,omitempty"`
	LineItems     []LineItemInput  `json:"line_items,omitempty"`
	NeedsReview   *bool            `json:"needs_review,omitempty"`
}

// AddPaymentRequest records a partial or full payment.
type AddPaymentRequest struct {
	UserID    int64           `json:"-"`
	InvoiceID snowflake.ID    `json:"-"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	PaidAt    *time.Time      `json:"paid_at,omitempty"`
	Note      string          `json:"note,omitempty"`
}

// MarkAsPaidRequest marks a sent invoice as fully paid. PaidAt
// defaults to now. Uploaded invoices may be back-dated without a prior
// sent timestamp; sent_at is then set alongside paid_at.
type MarkAsPaidRequest struct {
	UserID    int64        `json:"-"`
	InvoiceID snowflake.ID `json:"-"`
	PaidAt    *time.Time   `json:"paid_at,omitempty"`
}

// RevertStatusRequest moves an invoice one step back in the lifecycle.
// Confirm must be set: reverting rewrites bookkeeping state.
type RevertStatusRequest struct {
	UserID    int64        `json:"-"`
	InvoiceID snowflake.ID `json:"-"`
	Target    Status       `json:"target" binding:"required"`
	Confirm   bool         `json:"confirm"`
}

// ListInvoicesRequest filters the invoice list. Trashed invoices are
// excluded unless Trashed is set; archived are excluded unless
// Archived or Trashed is set.
type ListInvoicesRequest struct {
	UserID    int64
	State     DerivedState
	Type      InvoiceType
	ContactID *snowflake.ID
	Year      int
	Archived  bool
	Trashed   bool
	Query     string
	Page      pagination.Pagination
}

// InvoiceWithItems bundles an invoice with its line items and payments
// for detail responses.
type InvoiceWithItems struct {
	Invoice
	State     DerivedState `json:"state"`
	LineItems []LineItem   `json:"line_items"`
	Payments  []Payment    `json:"payments,omitempty"`
}

// NextNumberRequest previews the number the allocator would assign.
type NextNumberRequest struct {
	UserID    int64
	IssueDate time.Time
	Seed      string
}

// NextNumberResult is the allocator preview.
type NextNumberResult struct {
	InvoiceNumber  string `json:"invoice_number"`
	InvoiceCounter int64  `json:"invoice_counter"`
	InvoiceYear    int    `json:"invoice_year"`
}

// Service is the invoice lifecycle contract.
type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (*InvoiceWithItems, error)
	Update(ctx context.Context, req UpdateInvoiceRequest) (*InvoiceWithItems, error)
	GetByID(ctx context.Context, userID int64, id snowflake.ID) (*InvoiceWithItems, error)
	List(ctx context.Context, req ListInvoicesRequest) ([]InvoiceWithItems, *pagination.PageInfo, error)

	Issue(ctx context.Context, userID int64, id snowflake.ID) (*InvoiceWithItems, error)
	MarkAsPaid(ctx context.Context, req MarkAsPaidRequest) (*InvoiceWithItems, error)
	RevertStatus(ctx context.Context, req RevertStatusRequest) (*InvoiceWithItems, error)

	Archive(ctx context.Context, userID int64, id snowflake.ID) (*InvoiceWithItems, error)
	Unarchive(ctx context.Context, userID int64, id snowflake.ID) (*InvoiceWithItems, error)
	MoveToTrash(ctx context.Context, userID int64, id snowflake.ID) (*InvoiceWithItems, error)
	Restore(ctx context.Context, userID int64, id snowflake.ID) (*InvoiceWithItems, error)
	Delete(ctx context.Context, userID int64, id snowflake.ID) error

	AddPayment(ctx context.Context, req AddPaymentRequest) (*InvoiceWithItems, error)
	CreateCancellation(ctx context.Context, userID int64, id snowflake.ID) (*InvoiceWithItems, error)

	NextNumber(ctx context.Context, req NextNumberRequest) (*NextNumberResult, error)
}
