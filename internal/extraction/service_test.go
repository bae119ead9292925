package extraction

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mantodeus/mantodeus-manager/internal/clock"
	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
	"github.com/mantodeus/mantodeus-manager/internal/invoice/number"
	"github.com/mantodeus/mantodeus-manager/pkg/db/pagination"
)

type fakeStore struct {
	blobs   map[string][]byte
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{blobs: map[string][]byte{}}
}

func (s *fakeStore) Save(_ context.Context, userID int64, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := "1/" + filename
	s.blobs[key] = data
	return key, nil
}

func (s *fakeStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := s.blobs[key]
	if !ok {
		return nil, errors.New("missing blob")
	}
	return io.NopCloser(strings.NewReader(string(data))), nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	delete(s.blobs, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type fakeProcessor struct {
	result *Result
	err    error
}

func (p *fakeProcessor) Extract(context.Context, io.Reader) (*Result, error) {
	return p.result, p.err
}

type fakeInvoices struct {
	invoicedomain.Service

	requests []invoicedomain.CreateInvoiceRequest
	failWith []error
}

func (f *fakeInvoices) Create(_ context.Context, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.InvoiceWithItems, error) {
	f.requests = append(f.requests, req)
	if len(f.failWith) > 0 {
		err := f.failWith[0]
		f.failWith = f.failWith[1:]
		if err != nil {
			return nil, err
		}
	}
	item := &invoicedomain.InvoiceWithItems{}
	item.ID = snowflake.ID(len(f.requests))
	item.UserID = req.UserID
	item.InvoiceNumber = req.InvoiceNumber
	item.Source = req.Source
	item.NeedsReview = req.NeedsReview
	item.DocumentKey = req.DocumentKey
	return item, nil
}

func (f *fakeInvoices) List(context.Context, invoicedomain.ListInvoicesRequest) ([]invoicedomain.InvoiceWithItems, *pagination.PageInfo, error) {
	return nil, nil, nil
}

func newImportFixture(t *testing.T, processor Processor, invoices invoicedomain.Service) (*ImportService, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc := NewImportService(ImportParams{
		Log:       zap.NewNop(),
		Clock:     clock.NewFakeClock(time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)),
		Store:     store,
		Processor: processor,
		Invoices:  invoices,
	})
	return svc, store
}

func TestImportMapsExtractedFields(t *testing.T) {
	issueDate := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	dueDate := issueDate.AddDate(0, 0, 14)
	vat := decimal.RequireFromString("28.50")
	invoices := &fakeInvoices{}
	svc, store := newImportFixture(t, &fakeProcessor{result: &Result{
		InvoiceNumber: "RE-2025-0042",
		Currency:      "EUR",
		IssueDate:     &issueDate,
		DueDate:       &dueDate,
		VATAmount:     &vat,
		Lines: []Line{
			{Description: "Consulting", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(50)},
		},
	}}, invoices)

	result, err := svc.Import(context.Background(), ImportRequest{
		UserID:   1,
		Filename: "scan.pdf",
		Document: strings.NewReader("%PDF-1.4 fake"),
	})
	require.NoError(t, err)

	require.Len(t, invoices.requests, 1)
	req := invoices.requests[0]
	assert.Equal(t, invoicedomain.SourceUpload, req.Source)
	assert.True(t, req.NeedsReview)
	assert.Equal(t, "RE-2025-0042", req.InvoiceNumber)
	assert.Equal(t, issueDate, *req.IssueDate)
	assert.Equal(t, dueDate, *req.DueAt)
	assert.True(t, vat.Equal(req.VATAmount))
	require.Len(t, req.LineItems, 1)
	assert.Equal(t, "Consulting", req.LineItems[0].Name)

	require.NotNil(t, req.DocumentKey)
	assert.Equal(t, *req.DocumentKey, result.DocumentKey)
	assert.Contains(t, store.blobs, result.DocumentKey)
	assert.NotNil(t, result.Extraction)
}

func TestImportWithDisabledExtractionCreatesReviewDraft(t *testing.T) {
	invoices := &fakeInvoices{}
	svc, store := newImportFixture(t, &fakeProcessor{err: ErrDisabled}, invoices)

	result, err := svc.Import(context.Background(), ImportRequest{
		UserID:   1,
		Filename: "scan.pdf",
		Document: strings.NewReader("%PDF-1.4 fake"),
	})
	require.NoError(t, err)

	require.Len(t, invoices.requests, 1)
	req := invoices.requests[0]
	assert.True(t, req.NeedsReview)
	assert.Empty(t, req.InvoiceNumber)
	assert.Empty(t, req.LineItems)
	require.NotNil(t, req.IssueDate)
	assert.Equal(t, 2025, req.IssueDate.Year())

	assert.Nil(t, result.Extraction)
	assert.Contains(t, store.blobs, result.DocumentKey)
}

func TestImportRetriesWithoutUnusableNumber(t *testing.T) {
	invoices := &fakeInvoices{failWith: []error{number.ErrNoNumericSequence}}
	svc, _ := newImportFixture(t, &fakeProcessor{result: &Result{InvoiceNumber: "DRAFT"}}, invoices)

	_, err := svc.Import(context.Background(), ImportRequest{
		UserID:   1,
		Filename: "scan.pdf",
		Document: strings.NewReader("%PDF-1.4 fake"),
	})
	require.NoError(t, err)

	require.Len(t, invoices.requests, 2)
	assert.Equal(t, "DRAFT", invoices.requests[0].InvoiceNumber)
	assert.Empty(t, invoices.requests[1].InvoiceNumber)
}

func TestImportCleansUpBlobWhenCreateFails(t *testing.T) {
	invoices := &fakeInvoices{failWith: []error{invoicedomain.ErrInvalidLineItems}}
	svc, store := newImportFixture(t, &fakeProcessor{err: ErrDisabled}, invoices)

	_, err := svc.Import(context.Background(), ImportRequest{
		UserID:   1,
		Filename: "scan.pdf",
		Document: strings.NewReader("%PDF-1.4 fake"),
	})
	require.ErrorIs(t, err, invoicedomain.ErrInvalidLineItems)
	assert.Len(t, store.deleted, 1)
	assert.Empty(t, store.blobs)
}

func TestImportRejectsOversizedDocument(t *testing.T) {
	invoices := &fakeInvoices{}
	svc, store := newImportFixture(t, &fakeProcessor{err: ErrDisabled}, invoices)

	big := strings.NewReader(strings.Repeat("a", MaxDocumentSize+1))
	_, err := svc.Import(context.Background(), ImportRequest{
		UserID:   1,
		Filename: "big.pdf",
		Document: big,
	})
	require.ErrorIs(t, err, ErrDocumentTooLarge)
	assert.Empty(t, invoices.requests)
	assert.Empty(t, store.blobs)
}
