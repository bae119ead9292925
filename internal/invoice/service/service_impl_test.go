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

func TestCreateForcesDraft(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, func(req *invoicedomain.CreateInvoiceRequest) {
		req.Status = "paid"
	})

	assert.Equal(t, invoicedomain.StatusDraft, created.Status())
	assert.Nil(t, created.SentAt)
	assert.Nil(t, created.PaidAt)
	assert.Equal(t, invoicedomain.StateDraft, created.State)
}

func TestCreateComputesTotals(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, func(req *invoicedomain.CreateInvoiceRequest) {
		req.VATAmount = decimal.RequireFromString("28.50")
	})

	assert.Equal(t, "150.00", created.Subtotal.StringFixed(2))
	assert.Equal(t, "178.50", created.Total.StringFixed(2))
	require.Len(t, created.LineItems, 1)
	assert.Equal(t, "150.00", created.LineItems[0].LineTotal.StringFixed(2))
}

func TestCreateRequiresIssueDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{UserID: 1})
	assert.ErrorIs(t, err, invoicedomain.ErrMissingIssueDate)
}

func TestCreateRejectsBlankLineItemName(t *testing.T) {
	f := newFixture(t)

	issueDate := f.clock.Now()
	_, err := f.svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID:    1,
		IssueDate: &issueDate,
		LineItems: []invoicedomain.LineItemInput{
			{Name: "  ", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
		},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidLineItems)
}

func TestCreateAllocatesSequentialNumbers(t *testing.T) {
	f := newFixture(t)

	first := f.createDraft(t, nil)
	second := f.createDraft(t, nil)

	assert.Equal(t, "RE-2025-0001", first.InvoiceNumber)
	assert.Equal(t, int64(1), first.InvoiceCounter)
	assert.Equal(t, "RE-2025-0002", second.InvoiceNumber)
	assert.Equal(t, int64(2), second.InvoiceCounter)
	assert.Equal(t, 2025, second.InvoiceYear)
}

func TestCreateExplicitNumberStoredVerbatim(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, func(req *invoicedomain.CreateInvoiceRequest) {
		req.InvoiceNumber = "INV-007"
	})

	assert.Equal(t, "INV-007", created.InvoiceNumber)
	assert.Equal(t, int64(7), created.InvoiceCounter)
}

func TestCreateDuplicateNumberConflict(t *testing.T) {
	f := newFixture(t)

	f.createDraft(t, func(req *invoicedomain.CreateInvoiceRequest) {
		req.InvoiceNumber = "INV-007"
	})

	issueDate := f.clock.Now()
	_, err := f.svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		UserID:        1,
		IssueDate:     &issueDate,
		InvoiceNumber: "INV-007",
	})
	assert.ErrorIs(t, err, invoicedomain.ErrNumberConflict)
}

func TestNumbersSurviveTrashAndArchive(t *testing.T) {
	f := newFixture(t)

	first := f.createDraft(t, nil)
	_, err := f.svc.MoveToTrash(context.Background(), 1, first.ID)
	require.NoError(t, err)

	second := f.createDraft(t, nil)
	_, err = f.svc.Archive(context.Background(), 1, second.ID)
	require.NoError(t, err)

	third := f.createDraft(t, nil)
	assert.Equal(t, "RE-2025-0003", third.InvoiceNumber)
}

func TestNumbersPerUser(t *testing.T) {
	f := newFixture(t)

	f.createDraft(t, nil)
	other := f.createDraft(t, func(req *invoicedomain.CreateInvoiceRequest) {
		req.UserID = 2
	})

	assert.Equal(t, "RE-2025-0001", other.InvoiceNumber)
}

func TestNextNumberPreviewDoesNotPersist(t *testing.T) {
	f := newFixture(t)

	f.createDraft(t, func(req *invoicedomain.CreateInvoiceRequest) {
		req.InvoiceNumber = "INV-007"
	})

	preview, err := f.svc.NextNumber(context.Background(), invoicedomain.NextNumberRequest{
		UserID: 1,
		Seed:   "INV-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-008", preview.InvoiceNumber)
	assert.Equal(t, int64(8), preview.InvoiceCounter)

	// Preview again: nothing was reserved.
	preview, err = f.svc.NextNumber(context.Background(), invoicedomain.NextNumberRequest{
		UserID: 1,
		Seed:   "INV-001",
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-008", preview.InvoiceNumber)

	f.assertCount(t, `SELECT COUNT(*) FROM invoices WHERE user_id = ?`, 1, 1)
}

func TestUpdateDraftOnly(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	f.issue(t, created.ID)

	name := "changed"
	_, err := f.svc.Update(context.Background(), invoicedomain.UpdateInvoiceRequest{
		UserID:    1,
		InvoiceID: created.ID,
		LineItems: []invoicedomain.LineItemInput{
			{Name: name, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
		},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrNotDraft)
}

func TestUpdateReplacesLineItemsWholesale(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)

	updated, err := f.svc.Update(context.Background(), invoicedomain.UpdateInvoiceRequest{
		UserID:    1,
		InvoiceID: created.ID,
		LineItems: []invoicedomain.LineItemInput{
			{Name: "Hosting", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("19.99")},
			{Name: "Support", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(80)},
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.LineItems, 2)
	assert.Equal(t, "119.98", updated.Total.StringFixed(2))
	f.assertCount(t, `SELECT COUNT(*) FROM invoice_line_items WHERE invoice_id = ?`, 2, created.ID)
}

func TestUpdateRederivesNumberOnYearChange(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)
	require.Equal(t, "RE-2025-0001", created.InvoiceNumber)

	newDate := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	updated, err := f.svc.Update(context.Background(), invoicedomain.UpdateInvoiceRequest{
		UserID:    1,
		InvoiceID: created.ID,
		IssueDate: &newDate,
	})
	require.NoError(t, err)

	assert.Equal(t, "RE-2026-0001", updated.InvoiceNumber)
	assert.Equal(t, 2026, updated.InvoiceYear)
}

func TestUpdateExplicitNumberPinned(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, nil)

	pinned := "RE-2026-0100"
	newDate := time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	updated, err := f.svc.Update(context.Background(), invoicedomain.UpdateInvoiceRequest{
		UserID:        1,
		InvoiceID:     created.ID,
		IssueDate:     &newDate,
		InvoiceNumber: &pinned,
	})
	require.NoError(t, err)

	assert.Equal(t, pinned, updated.InvoiceNumber)
	assert.Equal(t, int64(100), updated.InvoiceCounter)
}

func TestUpdateAllowedWhileNeedsReview(t *testing.T) {
	f := newFixture(t)

	created := f.createDraft(t, func(req *invoicedomain.CreateInvoiceRequest) {
		req.Source = invoicedomain.SourceUpload
		req.NeedsReview = true
	})

	cleared := false
	updated, err := f.svc.Update(context.Background(), invoicedomain.UpdateInvoiceRequest{
		UserID:      1,
		InvoiceID:   created.ID,
		NeedsReview: &cleared,
	})
	require.NoError(t, err)
	assert.False(t, updated.NeedsReview)
}

func TestListFiltersTrashed(t *testing.T) {
	f := newFixture(t)

	kept := f.createDraft(t, nil)
	trashed := f.createDraft(t, nil)
	_, err := f.svc.MoveToTrash(context.Background(), 1, trashed.ID)
	require.NoError(t, err)

	out, _, err := f.svc.List(context.Background(), invoicedomain.ListInvoicesRequest{UserID: 1})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, kept.ID, out[0].ID)

	out, _, err = f.svc.List(context.Background(), invoicedomain.ListInvoicesRequest{UserID: 1, Trashed: true})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, trashed.ID, out[0].ID)
}
