package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
)

func TestIssueStampsSentAt(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	issued := f.issue(t, created.ID)

	require.NotNil(t, issued.SentAt)
	assert.Equal(t, f.clock.Now(), issued.SentAt.UTC())
	assert.Equal(t, invoicedomain.StatusOpen, issued.Status())
	assert.Equal(t, invoicedomain.StateSent, issued.State)
}

func TestIssueTwiceRejected(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	_, err := f.svc.Issue(context.Background(), 1, created.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrNotDraft)
}

func TestIssueRequiresPositiveTotal(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, func(req *invoicedomain.CreateInvoiceRequest) {
		req.LineItems = nil
	})

	_, err := f.svc.Issue(context.Background(), 1, created.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrTotalNotPositive)
}

func TestIssueBlockedWhileNeedsReview(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, func(req *invoicedomain.CreateInvoiceRequest) {
		req.Source = invoicedomain.SourceUpload
		req.NeedsReview = true
	})

	_, err := f.svc.Issue(context.Background(), 1, created.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrNeedsReview)
}

func TestMarkAsPaidRequiresSent(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	_, err := f.svc.MarkAsPaid(context.Background(), invoicedomain.MarkAsPaidRequest{
		UserID:    1,
		InvoiceID: created.ID,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrNotSent)
}

func TestMarkAsPaidSetsPaidAt(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	paid, err := f.svc.MarkAsPaid(context.Background(), invoicedomain.MarkAsPaidRequest{
		UserID:    1,
		InvoiceID: created.ID,
	})
	require.NoError(t, err)

	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, invoicedomain.StatusPaid, paid.Status())
	assert.Equal(t, invoicedomain.StatePaid, paid.State)

	_, err = f.svc.MarkAsPaid(context.Background(), invoicedomain.MarkAsPaidRequest{
		UserID:    1,
		InvoiceID: created.ID,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrAlreadyPaid)
}

func TestMarkAsPaidBackdatesUploads(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, func(req *invoicedomain.CreateInvoiceRequest) {
		req.Source = invoicedomain.SourceUpload
	})

	paidAt := time.Date(2024, time.November, 2, 0, 0, 0, 0, time.UTC)
	paid, err := f.svc.MarkAsPaid(context.Background(), invoicedomain.MarkAsPaidRequest{
		UserID:    1,
		InvoiceID: created.ID,
		PaidAt:    &paidAt,
	})
	require.NoError(t, err)

	require.NotNil(t, paid.SentAt)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, paidAt, paid.PaidAt.UTC())
	assert.Equal(t, paidAt, paid.SentAt.UTC())
}

func TestRevertRequiresConfirmation(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	_, err := f.svc.RevertStatus(context.Background(), invoicedomain.RevertStatusRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Target:    invoicedomain.StatusDraft,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrRevertNotConfirmed)
}

func TestRevertDraftToOpenInvalid(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)

	_, err := f.svc.RevertStatus(context.Background(), invoicedomain.RevertStatusRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Target:    invoicedomain.StatusOpen,
		Confirm:   true,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)
}

func TestRevertOpenToDraftClearsSentAt(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	reverted, err := f.svc.RevertStatus(context.Background(), invoicedomain.RevertStatusRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Target:    invoicedomain.StatusDraft,
		Confirm:   true,
	})
	require.NoError(t, err)

	assert.Nil(t, reverted.SentAt)
	assert.Nil(t, reverted.PaidAt)
	assert.Equal(t, invoicedomain.StatusDraft, reverted.Status())
}

func TestRevertPaidToOpenClearsPaidAtOnly(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)
	_, err := f.svc.MarkAsPaid(context.Background(), invoicedomain.MarkAsPaidRequest{
		UserID:    1,
		InvoiceID: created.ID,
	})
	require.NoError(t, err)

	reverted, err := f.svc.RevertStatus(context.Background(), invoicedomain.RevertStatusRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Target:    invoicedomain.StatusOpen,
		Confirm:   true,
	})
	require.NoError(t, err)

	assert.NotNil(t, reverted.SentAt)
	assert.Nil(t, reverted.PaidAt)
	assert.Equal(t, invoicedomain.StatusOpen, reverted.Status())
}

func TestRevertBlockedByPayments(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)
	_, err := f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Amount:    decimal.NewFromInt(50),
	})
	require.NoError(t, err)

	_, err = f.svc.RevertStatus(context.Background(), invoicedomain.RevertStatusRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Target:    invoicedomain.StatusDraft,
		Confirm:   true,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrRevertBlocked)
}

func TestRevertBlockedByCancellation(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)
	_, err := f.svc.CreateCancellation(context.Background(), 1, created.ID)
	require.NoError(t, err)

	_, err = f.svc.RevertStatus(context.Background(), invoicedomain.RevertStatusRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Target:    invoicedomain.StatusDraft,
		Confirm:   true,
	})
	assert.ErrorIs(t, err, invoicedomain.ErrRevertBlocked)
}

func TestTrashRequiresDraft(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	_, err := f.svc.MoveToTrash(context.Background(), 1, created.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrNotDraft)
}

func TestRestoreClearsMarkers(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	_, err := f.svc.MoveToTrash(context.Background(), 1, created.ID)
	require.NoError(t, err)

	restored, err := f.svc.Restore(context.Background(), 1, created.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.TrashedAt)
	assert.Nil(t, restored.ArchivedAt)

	_, err = f.svc.Restore(context.Background(), 1, created.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrNotTrashed)
}

func TestDeleteGating(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)

	err := f.svc.Delete(context.Background(), 1, created.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrNotTrashed)

	_, err = f.svc.MoveToTrash(context.Background(), 1, created.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), 1, created.ID))
	f.assertCount(t, `SELECT COUNT(*) FROM invoices WHERE id = ?`, 0, created.ID)
	f.assertCount(t, `SELECT COUNT(*) FROM invoice_line_items WHERE invoice_id = ?`, 0, created.ID)
}

func TestDeleteRejectsIssued(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	err := f.svc.Delete(context.Background(), 1, created.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrNotDraft)
}

func TestOverdueState(t *testing.T) {
	f := newFixture(t)

	due := f.clock.Now().Add(24 * time.Hour)
	created := f.createDraft(t, func(req *invoicedomain.CreateInvoiceRequest) {
		req.DueAt = &due
	})
	f.issue(t, created.ID)

	f.clock.Advance(72 * time.Hour)

	got, err := f.svc.GetByID(context.Background(), 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StateOverdue, got.State)
}

func TestEndToEndLifecycle(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	_, err := f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Amount:    decimal.NewFromInt(60),
	})
	require.NoError(t, err)

	partial, err := f.svc.GetByID(context.Background(), 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatePartial, partial.State)
	assert.Equal(t, "90.00", partial.Outstanding().StringFixed(2))

	_, err = f.svc.AddPayment(context.Background(), invoicedomain.AddPaymentRequest{
		UserID:    1,
		InvoiceID: created.ID,
		Amount:    decimal.NewFromInt(90),
	})
	require.NoError(t, err)

	final, err := f.svc.MarkAsPaid(context.Background(), invoicedomain.MarkAsPaidRequest{
		UserID:    1,
		InvoiceID: created.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.StatusPaid, final.Status())
	assert.Equal(t, "150.00", final.AmountPaid.StringFixed(2))
	assert.Equal(t, "0.00", final.Outstanding().StringFixed(2))
	assert.True(t, final.IsPaid())
	require.Len(t, final.Payments, 2)
}
