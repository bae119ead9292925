// Package pdf renders invoices into printable PDF documents.
package pdf

import (
	"context"
	"io"
)

type Party struct {
	Name    string
	Address string
	Email   string
	VATID   string
}

type Item struct {
	Description string
	Quantity    string
	UnitPrice   string
	Amount      string
}

// Document is the fully formatted input to the renderer. All amounts
// arrive pre-formatted so the layout stays ignorant of currency rules.
type Document struct {
	Title         string
	InvoiceNumber string
	IssueDate     string
	DueDate       string
	Currency      string

	Seller Party
	Buyer  Party

	Items []Item

	Subtotal    string
	VATAmount   string
	Total       string
	AmountPaid  string
	AmountDue   string
	BankDetails string

	// CancellationOf holds the original invoice number when this
	// document is a counter-invoice.
	CancellationOf string
}

type Renderer interface {
	RenderInvoice(ctx context.Context, doc Document) (io.Reader, error)
}
