package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
)

// AddPayment records a partial or full payment against a sent invoice.
// The increment is capped at the outstanding balance; reaching zero does
// not flip the invoice to paid, that stays an explicit MarkAsPaid call.
func (s *Service) AddPayment(ctx context.Context, req invoicedomain.AddPaymentRequest) (*invoicedomain.InvoiceWithItems, error) {
	if req.UserID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}
	if !req.Amount.IsPositive() {
		return nil, invoicedomain.ErrInvalidAmount
	}
	amount := req.Amount.Round(2)

	var updated *invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.loadForUpdate(ctx, tx, req.UserID, req.InvoiceID)
		if err != nil {
			return err
		}
		if inv.TrashedAt != nil {
			return invoicedomain.ErrReadOnly
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
		if inv.NeedsReview {
			return invoicedomain.ErrNeedsReview
		}
		if inv.PaidAt != nil {
			return invoicedomain.ErrAlreadyPaid
		}
		if inv.SentAt == nil {
			return invoicedomain.ErrNotSent
		}

		outstanding := inv.Outstanding()
		if amount.GreaterThan(outstanding) {
			return fmt.Errorf("%w: outstanding %s", invoicedomain.ErrPaymentExceedsOutstanding, outstanding.StringFixed(2))
		}

		now := s.clock.Now()
		paidAt := now
		if req.PaidAt != nil {
			paidAt = req.PaidAt.UTC()
		}

		payment := &invoicedomain.Payment{
			ID:        s.genID.Generate(),
			InvoiceID: inv.ID,
			UserID:    req.UserID,
			Amount:    amount,
			PaidAt:    paidAt,
			Note:      req.Note,
			CreatedAt: now,
		}
		if err := s.repo.InsertPayment(ctx, tx, payment); err != nil {
			return err
		}
		if err := s.repo.AddToAmountPaid(ctx, tx, inv.ID, amount); err != nil {
			return err
		}

		inv.AmountPaid = inv.AmountPaid.Add(amount)
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPayment(ctx)
	s.emitAudit(ctx, "invoice.payment_recorded", updated, map[string]any{
		"amount":      amount.StringFixed(2),
		"outstanding": updated.Outstanding().StringFixed(2),
	})
	return s.details(ctx, updated)
}
