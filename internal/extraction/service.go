package extraction

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mantodeus/mantodeus-manager/internal/clock"
	"github.com/mantodeus/mantodeus-manager/internal/document"
	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
	"github.com/mantodeus/mantodeus-manager/internal/invoice/number"
)

// ImportRequest uploads one document and turns it into a review draft.
type ImportRequest struct {
	UserID   int64
	Filename string
	Document io.Reader
}

// ImportResult carries the created draft plus what extraction saw.
type ImportResult struct {
	Invoice     *invoicedomain.InvoiceWithItems `json:"invoice"`
	Extraction  *Result                         `json:"extraction,omitempty"`
	DocumentKey string                          `json:"document_key"`
}

type ImportParams struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	Store     document.Store
	Processor Processor
	Invoices  invoicedomain.Service
}

// ImportService stores an uploaded document, runs extraction over it
// and creates a needs-review draft from whatever came out.
type ImportService struct {
	log       *zap.Logger
	clock     clock.Clock
	store     document.Store
	processor Processor
	invoices  invoicedomain.Service
}

func NewImportService(p ImportParams) *ImportService {
	return &ImportService{
		log:       p.Log.Named("extraction.import"),
		clock:     p.Clock,
		store:     p.Store,
		processor: p.Processor,
		invoices:  p.Invoices,
	}
}

func (s *ImportService) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if req.UserID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}

	// The blob is written first so extraction can re-read it; if draft
	// creation fails the blob is removed again, best effort.
	data, err := io.ReadAll(io.LimitReader(req.Document, MaxDocumentSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDocumentSize {
		return nil, ErrDocumentTooLarge
	}

	key, err := s.store.Save(ctx, req.UserID, req.Filename, readerOf(data))
	if err != nil {
		return nil, err
	}

	result, err := s.processor.Extract(ctx, readerOf(data))
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			s.log.Warn("extraction failed, creating empty review draft",
				zap.String("document_key", key),
				zap.Error(err),
			)
		}
		result = nil
	}

	createReq := s.buildCreateRequest(req.UserID, key, result)
	created, err := s.invoices.Create(ctx, createReq)
	if err != nil && errors.Is(err, number.ErrNoNumericSequence) {
		// The extracted number has no usable sequence; mint one instead.
		createReq.InvoiceNumber = ""
		created, err = s.invoices.Create(ctx, createReq)
	}
	if err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Warn("orphaned document blob", zap.String("document_key", key), zap.Error(delErr))
		}
		return nil, err
	}

	return &ImportResult{
		Invoice:     created,
		Extraction:  result,
		DocumentKey: key,
	}, nil
}

func (s *ImportService) buildCreateRequest(userID int64, key string, result *Result) invoicedomain.CreateInvoiceRequest {
	issueDate := s.clock.Now()
	req := invoicedomain.CreateInvoiceRequest{
		UserID:      userID,
		IssueDate:   &issueDate,
		Source:      invoicedomain.SourceUpload,
		NeedsReview: true,
		DocumentKey: &key,
	}
	if result == nil {
		return req
	}

	req.InvoiceNumber = result.InvoiceNumber
	if result.IssueDate != nil {
		req.IssueDate = result.IssueDate
	}
	req.DueAt = result.DueDate
	if result.Currency != "" {
		req.Currency = result.Currency
	}
	if result.VATAmount != nil {
		req.VATAmount = *result.VATAmount
	}

	for _, line := range result.Lines {
		if line.Description == "" || line.Quantity.IsZero() {
			continue
		}
		req.LineItems = append(req.LineItems, invoicedomain.LineItemInput{
			Name:      line.Description,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	if len(req.LineItems) == 0 && result.Subtotal != nil && !result.Subtotal.IsZero() {
		req.LineItems = append(req.LineItems, invoicedomain.LineItemInput{
			Name:      "Imported invoice",
			Quantity:  oneDecimal,
			UnitPrice: *result.Subtotal,
		})
	}
	return req
}

var oneDecimal = decimal.NewFromInt(1)

func readerOf(data []byte) io.Reader {
	return bytes.NewReader(data)
}

var Module = fx.Module("extraction",
	fx.Provide(NewImportService),
)
