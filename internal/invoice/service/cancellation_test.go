package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
)

func TestCancellationNegatesAmounts(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, func(req *invoicedomain.CreateInvoiceRequest) {
		req.VATAmount = decimal.RequireFromString("28.50")
	})
	f.issue(t, created.ID)

	cancellation, err := f.svc.CreateCancellation(context.Background(), 1, created.ID)
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.TypeCancellation, cancellation.Type)
	require.NotNil(t, cancellation.CancelledInvoiceID)
	assert.Equal(t, created.ID, *cancellation.CancelledInvoiceID)

	assert.Equal(t, "-150.00", cancellation.Subtotal.StringFixed(2))
	assert.Equal(t, "-28.50", cancellation.VATAmount.StringFixed(2))
	assert.Equal(t, "-178.50", cancellation.Total.StringFixed(2))

	require.Len(t, cancellation.LineItems, 1)
	item := cancellation.LineItems[0]
	assert.Equal(t, "-3.00", item.Quantity.StringFixed(2))
	assert.Equal(t, "50.00", item.UnitPrice.StringFixed(2))
	assert.Equal(t, "-150.00", item.LineTotal.StringFixed(2))
}

func TestCancellationGetsOwnNumber(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	cancellation, err := f.svc.CreateCancellation(context.Background(), 1, created.ID)
	require.NoError(t, err)

	assert.Equal(t, "RE-2025-0002", cancellation.InvoiceNumber)
	assert.NotEqual(t, created.InvoiceNumber, cancellation.InvoiceNumber)
	assert.Equal(t, invoicedomain.StatusDraft, cancellation.Status())
}

func TestCancellationOnlyOnce(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	_, err := f.svc.CreateCancellation(context.Background(), 1, created.ID)
	require.NoError(t, err)

	_, err = f.svc.CreateCancellation(context.Background(), 1, created.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrCancellationExists)
}

func TestCancellationRejectsDraft(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	_, err := f.svc.CreateCancellation(context.Background(), 1, created.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrCancelDraft)
}

func TestCancellationRejectsCancellation(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	cancellation, err := f.svc.CreateCancellation(context.Background(), 1, created.ID)
	require.NoError(t, err)

	_, err = f.svc.CreateCancellation(context.Background(), 1, cancellation.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrCancelCancellation)
}

func TestCancelledInvoiceBecomesReadOnly(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)
	_, err := f.svc.CreateCancellation(context.Background(), 1, created.ID)
	require.NoError(t, err)

	_, err = f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Amount:    decimal.NewFromInt(10),
	})
	assert.Error(t, err)
}

func TestIssueCancellationAllowed(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	cancellation, err := f.svc.CreateCancellation(context.Background(), 1, created.ID)
	require.NoError(t, err)

	issued, err := f.svc.Issue(context.Background(), 1, cancellation.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusOpen, issued.Status())
}
