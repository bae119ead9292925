package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
)

func TestAddPaymentRequiresSent(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	_, err := f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Amount:    decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, invoicedomain.ErrNotSent)
}

func TestAddPaymentRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
			UserID:    1,
			InvoiceID: created.ID,
			Amount:    amount,
		})
		assert.ErrorIs(t, err, invoicedomain.ErrInvalidAmount)
	}
}

func TestAddPaymentCap(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	_, err := f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Amount:    decimal.RequireFromString("150.01"),
	})
	require.ErrorIs(t, err, invoicedomain.ErrPaymentExceedsOutstanding)
	assert.Contains(t, err.Error(), "150.00")

	// Exactly the outstanding balance is accepted.
	updated, err := f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Amount:    decimal.RequireFromString("150.00"),
	})
	require.NoError(t, err)
	assert.True(t, updated.IsPaid())
	assert.Equal(t, "0.00", updated.Outstanding().StringFixed(2))
}

func TestAddPaymentCapShrinksWithLedger(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	_, err := f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Amount:    decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	_, err = f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Amount:    decimal.NewFromInt(51),
	})
	assert.ErrorIs(t, err, invoicedomain.ErrPaymentExceedsOutstanding)
}

func TestAddPaymentDoesNotFlipStatus(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	updated, err := f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Amount:    decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	// Fully covered, but the paid transition stays an explicit call.
	assert.True(t, updated.IsPaid())
	assert.Equal(t, invoicedomain.StatusOpen, updated.Status())
	assert.Nil(t, updated.PaidAt)
}

func TestAddPaymentRejectedAfterPaid(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)
	_, err := f.svc.MarkAsPaid(context.Background(), invoicedomain.MarkAsPaidRequest{
		UserID:    1,
		InvoiceID: created.ID,
	})
	require.NoError(t, err)

	_, err = f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Amount:    decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, invoicedomain.ErrAlreadyPaid)
}

func TestPaymentsRecordedInLedger(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	_, err := f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Amount:    decimal.NewFromInt(60),
		Note:      "wire transfer",
	})
	require.NoError(t, err)

	got, err := f.svc.GetByID(context.Background(), 1, created.ID)
	require.NoError(t, err)
	require.Len(t, got.Payments, 1)
	assert.Equal(t, "60.00", got.Payments[0].Amount.StringFixed(2))
	assert.Equal(t, "wire transfer", got.Payments[0].Note)
	assert.Equal(t, "60.00", got.AmountPaid.StringFixed(2))
}
