package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
)

// CreateCancellation writes a counter-invoice whose monetary values are
// the exact negation of the original. The original must be open or
// paid; drafts are deleted instead. Both documents become read-only
// afterwards.
func (s *Service) CreateCancellation(ctx context.Context, userID int64, id snowflake.ID) (*invoicedomain.InvoiceWithItems, error) {
	if userID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}

	var cancellation *invoicedomain.Invoice
	var original *invoicedomain.Invoice
	err := s.withNumberRetry(ctx, true, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			orig, err := s.loadForUpdate(ctx, tx, userID, id)
			if err != nil {
				return err
			}
			if orig.TrashedAt != nil {
				return invoicedomain.ErrReadOnly
			}
			if orig.IsCancellation() {
				return invoicedomain.ErrCancelCancellation
			}
			if orig.NeedsReview {
				return invoicedomain.ErrNeedsReview
			}
			if orig.Status() == invoicedomain.StatusDraft {
				return invoicedomain.ErrCancelDraft
			}

			existing, err := s.repo.FindCancellationOf(ctx, tx, userID, orig.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				return invoicedomain.ErrCancellationExists
			}

			now := s.clock.Now()
			originalID := orig.ID
			counter := &invoicedomain.Invoice{
				ID:                 s.genID.Generate(),
				UserID:             userID,
				Type:               invoicedomain.TypeCancellation,
				CancelledInvoiceID: &originalID,
				ContactID:          orig.ContactID,
				IssueDate:          now,
				Subtotal:           orig.Subtotal.Neg(),
				VATAmount:          orig.VATAmount.Neg(),
				Total:              orig.Total.Neg(),
				AmountPaid:         decimal.Zero,
				Currency:           orig.Currency,
				Source:             invoicedomain.SourceManual,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			if err := s.assignNumber(ctx, tx, counter, ""); err != nil {
				return err
			}

			originalItems, err := s.repo.LineItems(ctx, tx, orig.ID)
			if err != nil {
				return err
			}
			items := make([]invoicedomain.LineItem, 0, len(originalItems))
			for i, item := range originalItems {
				items = append(items, invoicedomain.LineItem{
					ID:        s.genID.Generate(),
					InvoiceID: counter.ID,
					Name:      item.Name,
					Quantity:  item.Quantity.Neg(),
					UnitPrice: item.UnitPrice,
					LineTotal: item.LineTotal.Neg(),
					Currency:  item.Currency,
					Position:  i,
					CreatedAt: now,
				})
			}

			if err := s.insertInvoice(ctx, tx, counter, items); err != nil {
				return err
			}
			cancellation = counter
			original = orig
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceCancelled(ctx)
	s.emitAudit(ctx, "invoice.cancelled", original, map[string]any{
		"cancellation_id":     cancellation.ID.String(),
		"cancellation_number": cancellation.InvoiceNumber,
	})
	return s.details(ctx, cancellation)
}
