package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository is the invoice persistence contract. Implementations run
// against the *gorm.DB handed in per call so the service can compose
// multiple operations inside one transaction.
type Repository interface {
	// InvoiceNumbers returns every invoice number the user has ever
	// used, including archived and trashed invoices.
	InvoiceNumbers(ctx context.Context, tx *gorm.DB, userID int64) ([]string, error)

	Insert(ctx context.Context, tx *gorm.DB, inv *Invoice) error
	InsertLineItems(ctx context.Context, tx *gorm.DB, items []LineItem) error

	// FindByID loads an invoice scoped to the user. When forUpdate is
	// set and the dialect supports it, the row is locked for the
	// duration of the transaction.
	FindByID(ctx context.Context, tx *gorm.DB, userID int64, id snowflake.ID, forUpdate bool) (*Invoice, error)
	FindCancellationOf(ctx context.Context, tx *gorm.DB, userID int64, id snowflake.ID) (*Invoice, error)
	LineItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) ([]LineItem, error)
	Payments(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) ([]Payment, error)

	UpdateInvoice(ctx context.Context, tx *gorm.DB, inv *Invoice) error
	DeleteLineItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) error
	DeletePayments(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) error
	DeleteInvoice(ctx context.Context, tx *gorm.DB, userID int64, id snowflake.ID) error

	InsertPayment(ctx context.Context, tx *gorm.DB, p *Payment) error
	// AddToAmountPaid increments amount_paid in place so concurrent
	// payments cannot lose updates.
	AddToAmountPaid(ctx context.Context, tx *gorm.DB, id snowflake.ID, amount decimal.Decimal) error
	CountPayments(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) (int64, error)

	List(ctx context.Context, tx *gorm.DB, req ListInvoicesRequest) ([]Invoice, error)
}
