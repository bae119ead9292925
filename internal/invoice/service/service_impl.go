package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/mantodeus/mantodeus-manager/internal/audit/domain"
	"github.com/mantodeus/mantodeus-manager/internal/clock"
	"github.com/mantodeus/mantodeus-manager/internal/config"
	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
	"github.com/mantodeus/mantodeus-manager/internal/invoice/number"
	"github.com/mantodeus/mantodeus-manager/internal/observability/metrics"
	"github.com/mantodeus/mantodeus-manager/pkg/db"
	"github.com/mantodeus/mantodeus-manager/pkg/db/pagination"
)

// allocateRetries bounds re-allocation after losing an insert race on
// the (user_id, invoice_number) unique index.
const allocateRetries = 3

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Config   config.Config
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     invoicedomain.Repository
	AuditSvc auditdomain.Service
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	repo      invoicedomain.Repository
	allocator *number.Allocator
	auditSvc  auditdomain.Service
	metrics   *metrics.Metrics
}

func NewService(p Params) invoicedomain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invoice.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		allocator: number.NewAllocator(p.Config.InvoiceNumberPrefix),
		auditSvc:  p.AuditSvc,
		metrics:   p.Metrics,
	}
}

// txNumberSource scopes number reads to the surrounding transaction so
// allocation and insert observe the same snapshot.
type txNumberSource struct {
	repo invoicedomain.Repository
	tx   *gorm.DB
}

func (s txNumberSource) InvoiceNumbers(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.InvoiceNumbers(ctx, s.tx, userID)
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (*invoicedomain.InvoiceWithItems, error) {
	if req.UserID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}
	if req.IssueDate == nil {
		return nil, invoicedomain.ErrMissingIssueDate
	}

	// New invoices are always drafts, no matter what the caller asked
	// for.
	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" && status != string(invoicedomain.StatusDraft) {
		s.log.Warn("requested status ignored, forcing draft",
			zap.Int64("user_id", req.UserID),
			zap.String("requested_status", status),
		)
	}

	if err := validateLineItems(req.LineItems); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "EUR"
	}
	source := req.Source
	if source == "" {
		source = invoicedomain.SourceManual
	}

	explicitNumber := strings.TrimSpace(req.InvoiceNumber)

	var created *invoicedomain.Invoice
	err := s.withNumberRetry(ctx, explicitNumber == "", func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			now := s.clock.Now()

			inv := &invoicedomain.Invoice{
				ID:          s.genID.Generate(),
				UserID:      req.UserID,
				Type:        invoicedomain.TypeStandard,
				ContactID:   req.ContactID,
				IssueDate:   req.IssueDate.UTC(),
				DueAt:       req.DueAt,
				VATAmount:   req.VATAmount.Round(2),
				AmountPaid:  decimal.Zero,
				Currency:    currency,
				NeedsReview: req.NeedsReview,
				Source:      source,
				DocumentKey: req.DocumentKey,
				CreatedAt:   now,
				UpdatedAt:   now,
			}

			if err := s.assignNumber(ctx, tx, inv, explicitNumber); err != nil {
				return err
			}

			items := buildLineItems(s.genID, inv, req.LineItems, now)
			applyTotals(inv, items)

			if err := s.insertInvoice(ctx, tx, inv, items); err != nil {
				return err
			}
			created = inv
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceCreated(ctx, string(created.Source))
	s.emitAudit(ctx, "invoice.created", created, nil)
	return s.details(ctx, created)
}

func (s *Service) Update(ctx context.Context, req invoicedomain.UpdateInvoiceRequest) (*invoicedomain.InvoiceWithItems, error) {
	if req.UserID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}
	if req.InvoiceID == 0 {
		return nil, invoicedomain.ErrInvalidID
	}
	if req.LineItems != nil {
		if err := validateLineItems(req.LineItems); err != nil {
			return nil, err
		}
	}

	var updated *invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.loadForUpdate(ctx, tx, req.UserID, req.InvoiceID)
		if err != nil {
			return err
		}
		if inv.TrashedAt != nil {
			return invoicedomain.ErrReadOnly
		}
		if inv.ArchivedAt != nil {
			return invoicedomain.ErrArchived
		}
		if inv.IsCancellation() {
			return invoicedomain.ErrReadOnly
		}
		cancellation, err := s.repo.FindCancellationOf(ctx, tx, req.UserID, inv.ID)
		if err != nil {
			return err
		}
		if cancellation != nil {
			return invoicedomain.ErrReadOnly
		}
		if inv.Status() != invoicedomain.StatusDraft {
			return invoicedomain.ErrNotDraft
		}

		previousYear := inv.IssueDate.Year()

		if req.ContactID != nil {
			inv.ContactID = req.ContactID
		}
		if req.IssueDate != nil {
			inv.IssueDate = req.IssueDate.UTC()
		}
		if req.DueAt != nil {
			inv.DueAt = req.DueAt
		}
		if req.Currency != nil {
			if currency := strings.ToUpper(strings.TrimSpace(*req.Currency)); currency != "" {
				inv.Currency = currency
			}
		}
		if req.VATAmount != nil {
			inv.VATAmount = req.VATAmount.Round(2)
		}
		if req.NeedsReview != nil {
			inv.NeedsReview = *req.NeedsReview
		}

		switch {
		case req.InvoiceNumber != nil:
			if err := s.assignNumber(ctx, tx, inv, strings.TrimSpace(*req.InvoiceNumber)); err != nil {
				return err
			}
		case inv.IssueDate.Year() != previousYear:
			// The year moved and the caller did not pin a number, so the
			// invoice joins the new year's sequence.
			if err := s.assignNumber(ctx, tx, inv, ""); err != nil {
				return err
			}
		}

		items, err := s.repo.LineItems(ctx, tx, inv.ID)
		if err != nil {
			return err
		}
		if req.LineItems != nil {
			if err := s.repo.DeleteLineItems(ctx, tx, inv.ID); err != nil {
				return err
			}
			items = buildLineItems(s.genID, inv, req.LineItems, s.clock.Now())
			if err := s.repo.InsertLineItems(ctx, tx, items); err != nil {
				return err
			}
		}
		applyTotals(inv, items)

		inv.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateInvoice(ctx, tx, inv); err != nil {
			if db.IsDuplicateKeyErr(err) {
				s.metrics.RecordNumberConflict(ctx)
				return invoicedomain.ErrNumberConflict
			}
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "invoice.updated", updated, nil)
	return s.details(ctx, updated)
}

func (s *Service) GetByID(ctx context.Context, userID int64, id snowflake.ID) (*invoicedomain.InvoiceWithItems, error) {
	if userID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}
	inv, err := s.repo.FindByID(ctx, s.db, userID, id, false)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, invoicedomain.ErrNotFound
	}
	return s.details(ctx, inv)
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoicesRequest) ([]invoicedomain.InvoiceWithItems, *pagination.PageInfo, error) {
	if req.UserID == 0 {
		return nil, nil, invoicedomain.ErrInvalidUser
	}

	invoices, err := s.repo.List(ctx, s.db, req)
	if err != nil {
		return nil, nil, err
	}

	size := req.Page.PageSize
	if size <= 0 {
		size = 50
	}

	refs := make([]*invoicedomain.Invoice, len(invoices))
	for i := range invoices {
		refs[i] = &invoices[i]
	}
	pageInfo := pagination.BuildCursorPageInfo(refs, int32(size), func(inv *invoicedomain.Invoice) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        inv.ID.String(),
			CreatedAt: inv.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(invoices) > size {
		invoices = invoices[:size]
	}

	now := s.clock.Now()
	out := make([]invoicedomain.InvoiceWithItems, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, invoicedomain.InvoiceWithItems{
			Invoice: inv,
			State:   inv.State(now),
		})
	}
	return out, pageInfo, nil
}

func (s *Service) NextNumber(ctx context.Context, req invoicedomain.NextNumberRequest) (*invoicedomain.NextNumberResult, error) {
	if req.UserID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}
	issueDate := req.IssueDate
	if issueDate.IsZero() {
		issueDate = s.clock.Now()
	}

	alloc, err := s.allocator.Allocate(ctx, txNumberSource{repo: s.repo, tx: s.db}, req.UserID, issueDate, req.Seed)
	if err != nil {
		return nil, err
	}
	return &invoicedomain.NextNumberResult{
		InvoiceNumber:  alloc.InvoiceNumber,
		InvoiceCounter: alloc.InvoiceCounter,
		InvoiceYear:    alloc.InvoiceYear,
	}, nil
}

// assignNumber sets the invoice number, counter and year. An explicit
// number is stored verbatim; otherwise the next number in the user's
// sequence is minted. Mismatches between an explicit number and the
// sequence are logged, not rejected.
func (s *Service) assignNumber(ctx context.Context, tx *gorm.DB, inv *invoicedomain.Invoice, explicit string) error {
	if explicit != "" {
		parsed, err := number.Parse(explicit)
		if err != nil {
			return err
		}
		if alloc, allocErr := s.allocator.Allocate(ctx, txNumberSource{repo: s.repo, tx: tx}, inv.UserID, inv.IssueDate, ""); allocErr == nil && alloc.InvoiceNumber != explicit {
			s.log.Warn("explicit invoice number diverges from sequence",
				zap.Int64("user_id", inv.UserID),
				zap.String("invoice_number", explicit),
				zap.String("sequence_next", alloc.InvoiceNumber),
			)
		}
		inv.InvoiceNumber = explicit
		inv.InvoiceCounter = parsed.Value
		inv.InvoiceYear = inv.IssueDate.Year()
		return nil
	}

	alloc, err := s.allocator.Allocate(ctx, txNumberSource{repo: s.repo, tx: tx}, inv.UserID, inv.IssueDate, "")
	if err != nil {
		return err
	}
	inv.InvoiceNumber = alloc.InvoiceNumber
	inv.InvoiceCounter = alloc.InvoiceCounter
	inv.InvoiceYear = alloc.InvoiceYear
	return nil
}

// insertInvoice writes the invoice and its line items inside the
// caller's transaction. Duplicate numbers surface as ErrNumberConflict.
func (s *Service) insertInvoice(ctx context.Context, tx *gorm.DB, inv *invoicedomain.Invoice, items []invoicedomain.LineItem) error {
	if inv.Type == invoicedomain.TypeCancellation && inv.CancelledInvoiceID == nil {
		return invoicedomain.ErrIntegrity
	}
	if inv.Type == invoicedomain.TypeStandard && inv.CancelledInvoiceID != nil {
		return invoicedomain.ErrIntegrity
	}

	if err := s.repo.Insert(ctx, tx, inv); err != nil {
		if db.IsDuplicateKeyErr(err) {
			s.metrics.RecordNumberConflict(ctx)
			return invoicedomain.ErrNumberConflict
		}
		return err
	}
	return s.repo.InsertLineItems(ctx, tx, items)
}

// withNumberRetry reruns fn after a lost allocation race, but only when
// the number was minted rather than supplied.
func (s *Service) withNumberRetry(ctx context.Context, minted bool, fn func() error) error {
	attempts := 1
	if minted {
		attempts = allocateRetries
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		err = fn()
		if err == nil || err != invoicedomain.ErrNumberConflict {
			return err
		}
		s.log.Warn("invoice number already taken, reallocating", zap.Int("attempt", attempt+1))
	}
	return err
}

func (s *Service) loadForUpdate(ctx context.Context, tx *gorm.DB, userID int64, id snowflake.ID) (*invoicedomain.Invoice, error) {
	inv, err := s.repo.FindByID(ctx, tx, userID, id, true)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, invoicedomain.ErrNotFound
	}
	return inv, nil
}

func (s *Service) details(ctx context.Context, inv *invoicedomain.Invoice) (*invoicedomain.InvoiceWithItems, error) {
	items, err := s.repo.LineItems(ctx, s.db, inv.ID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.Payments(ctx, s.db, inv.ID)
	if err != nil {
		return nil, err
	}
	return &invoicedomain.InvoiceWithItems{
		Invoice:   *inv,
		State:     inv.State(s.clock.Now()),
		LineItems: items,
		Payments:  payments,
	}, nil
}

func (s *Service) emitAudit(ctx context.Context, action string, inv *invoicedomain.Invoice, extra map[string]any) {
	if s.auditSvc == nil || inv == nil {
		return
	}
	metadata := map[string]any{
		"invoice_number": inv.InvoiceNumber,
		"invoice_year":   inv.InvoiceYear,
		"type":           string(inv.Type),
		"status":         string(inv.Status()),
		"currency":       inv.Currency,
		"total":          inv.Total.StringFixed(2),
	}
	if inv.CancelledInvoiceID != nil {
		metadata["cancelled_invoice_id"] = inv.CancelledInvoiceID.String()
	}
	for key, value := range extra {
		if key == "" {
			continue
		}
		metadata[key] = value
	}

	targetID := inv.ID.String()
	userID := inv.UserID
	if err := s.auditSvc.AuditLog(ctx, &userID, "", nil, action, "invoice", &targetID, metadata); err != nil {
		s.log.Warn("audit emit failed", zap.String("action", action), zap.Error(err))
	}
}

func validateLineItems(items []invoicedomain.LineItemInput) error {
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return invoicedomain.ErrInvalidLineItems
		}
		if item.Quantity.IsZero() {
			return invoicedomain.ErrInvalidLineItems
		}
	}
	return nil
}

func buildLineItems(genID *snowflake.Node, inv *invoicedomain.Invoice, inputs []invoicedomain.LineItemInput, now time.Time) []invoicedomain.LineItem {
	items := make([]invoicedomain.LineItem, 0, len(inputs))
	for i, input := range inputs {
		items = append(items, invoicedomain.LineItem{
			ID:        genID.Generate(),
			InvoiceID: inv.ID,
			Name:      strings.TrimSpace(input.Name),
			Quantity:  input.Quantity.Round(2),
			UnitPrice: input.UnitPrice.Round(2),
			LineTotal: input.Quantity.Mul(input.UnitPrice).Round(2),
			Currency:  inv.Currency,
			Position:  i,
			CreatedAt: now,
		})
	}
	return items
}

func applyTotals(inv *invoicedomain.Invoice, items []invoicedomain.LineItem) {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal)
	}
	inv.Subtotal = subtotal.Round(2)
	inv.Total = subtotal.Add(inv.VATAmount).Round(2)
}
