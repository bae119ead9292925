package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
)

// Issue moves a draft to open: sent_at is stamped and the document
// becomes immutable outside revert and cancellation.
func (s *Service) Issue(ctx context.Context, userID int64, id snowflake.ID) (*invoicedomain.InvoiceWithItems, error) {
	if userID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}

	var issued *invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.loadForUpdate(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if inv.TrashedAt != nil {
			return invoicedomain.ErrReadOnly
		}
		if inv.ArchivedAt != nil {
			return invoicedomain.ErrArchived
		}
		if inv.NeedsReview {
			return invoicedomain.ErrNeedsReview
		}
		if inv.Status() != invoicedomain.StatusDraft {
			return invoicedomain.ErrNotDraft
		}
		if !inv.Total.IsPositive() && !inv.IsCancellation() {
			return invoicedomain.ErrTotalNotPositive
		}

		if inv.IsCancellation() {
			if inv.CancelledInvoiceID == nil {
				return invoicedomain.ErrCancellationBacklinkBroken
			}
			original, err := s.repo.FindByID(ctx, tx, userID, *inv.CancelledInvoiceID, false)
			if err != nil {
				return err
			}
			if original == nil {
				return invoicedomain.ErrCancellationBacklinkBroken
			}
		} else {
			cancellation, err := s.repo.FindCancellationOf(ctx, tx, userID, inv.ID)
			if err != nil {
				return err
			}
			if cancellation != nil {
				return invoicedomain.ErrCancellationExists
			}
		}

		now := s.clock.Now()
		inv.SentAt = &now
		inv.PaidAt = nil
		inv.UpdatedAt = now
		if err := s.repo.UpdateInvoice(ctx, tx, inv); err != nil {
			return err
		}
		issued = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvoiceIssued(ctx)
	s.emitAudit(ctx, "invoice.issued", issued, nil)
	return s.details(ctx, issued)
}

// MarkAsPaid moves an open invoice to paid. Uploaded invoices may be
// back-dated without a prior sent timestamp.
func (s *Service) MarkAsPaid(ctx context.Context, req invoicedomain.MarkAsPaidRequest) (*invoicedomain.InvoiceWithItems, error) {
	if req.UserID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}

	var paid *invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.loadForUpdate(ctx, tx, req.UserID, req.InvoiceID)
		if err != nil {
			return err
		}
		if inv.TrashedAt != nil {
			return invoicedomain.ErrReadOnly
		}
		if inv.NeedsReview {
			return invoicedomain.ErrNeedsReview
		}
		if inv.PaidAt != nil {
			return invoicedomain.ErrAlreadyPaid
		}
		cancellation, err := s.repo.FindCancellationOf(ctx, tx, req.UserID, inv.ID)
		if err != nil {
			return err
		}
		if cancellation != nil {
			return invoicedomain.ErrReadOnly
		}
		if inv.IssueDate.IsZero() {
			return invoicedomain.ErrMissingIssueDate
		}
		if !inv.Total.IsPositive() {
			return invoicedomain.ErrTotalNotPositive
		}

		paidAt := s.clock.Now()
		if req.PaidAt != nil {
			paidAt = req.PaidAt.UTC()
		}

		if inv.SentAt == nil {
			if inv.Source != invoicedomain.SourceUpload {
				return invoicedomain.ErrNotSent
			}
			// Imported historical invoices were sent outside the system.
			sentAt := paidAt
			inv.SentAt = &sentAt
		}

		inv.PaidAt = &paidAt
		inv.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateInvoice(ctx, tx, inv); err != nil {
			return err
		}
		paid = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "invoice.paid", paid, nil)
	return s.details(ctx, paid)
}

// RevertStatus walks the lifecycle backwards one step. Only open to
// draft and paid to open exist; both require confirmation and are
// blocked once payments or a cancellation are on record.
func (s *Service) RevertStatus(ctx context.Context, req invoicedomain.RevertStatusRequest) (*invoicedomain.InvoiceWithItems, error) {
	if req.UserID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}
	if !req.Confirm {
		return nil, invoicedomain.ErrRevertNotConfirmed
	}
	if req.Target != invoicedomain.StatusDraft && req.Target != invoicedomain.StatusOpen {
		return nil, invoicedomain.ErrInvalidTransition
	}

	var reverted *invoicedomain.Invoice
	var previous invoicedomain.Status
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
		if inv.NeedsReview {
			return invoicedomain.ErrNeedsReview
		}

		previous = inv.Status()
		switch {
		case previous == invoicedomain.StatusOpen && req.Target == invoicedomain.StatusDraft:
		case previous == invoicedomain.StatusPaid && req.Target == invoicedomain.StatusOpen:
		default:
			return invoicedomain.ErrInvalidTransition
		}

		count, err := s.repo.CountPayments(ctx, tx, inv.ID)
		if err != nil {
			return err
		}
		if count > 0 || inv.AmountPaid.IsPositive() {
			return invoicedomain.ErrRevertBlocked
		}
		cancellation, err := s.repo.FindCancellationOf(ctx, tx, req.UserID, inv.ID)
		if err != nil {
			return err
		}
		if cancellation != nil {
			return invoicedomain.ErrRevertBlocked
		}

		if req.Target == invoicedomain.StatusDraft {
			inv.SentAt = nil
		}
		inv.PaidAt = nil
		inv.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateInvoice(ctx, tx, inv); err != nil {
			return err
		}
		reverted = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, "invoice.reverted", reverted, map[string]any{
		"previous_status": string(previous),
		"target_status":   string(req.Target),
	})
	return s.details(ctx, reverted)
}

// Archive hides an invoice from the default list. It is orthogonal to
// the lifecycle and idempotent.
func (s *Service) Archive(ctx context.Context, userID int64, id snowflake.ID) (*invoicedomain.InvoiceWithItems, error) {
	return s.setHousekeeping(ctx, userID, id, "invoice.archived", func(inv *invoicedomain.Invoice) error {
		if inv.TrashedAt != nil {
			return invoicedomain.ErrReadOnly
		}
		if inv.ArchivedAt == nil {
			now := s.clock.Now()
			inv.ArchivedAt = &now
		}
		return nil
	})
}

// Unarchive returns an archived invoice to the default list.
func (s *Service) Unarchive(ctx context.Context, userID int64, id snowflake.ID) (*invoicedomain.InvoiceWithItems, error) {
	return s.setHousekeeping(ctx, userID, id, "invoice.unarchived", func(inv *invoicedomain.Invoice) error {
		if inv.TrashedAt != nil {
			return invoicedomain.ErrReadOnly
		}
		inv.ArchivedAt = nil
		return nil
	})
}

// MoveToTrash soft-deletes a draft. Issued invoices are cancelled, not
// trashed.
func (s *Service) MoveToTrash(ctx context.Context, userID int64, id snowflake.ID) (*invoicedomain.InvoiceWithItems, error) {
	return s.setHousekeeping(ctx, userID, id, "invoice.trashed", func(inv *invoicedomain.Invoice) error {
		if inv.Status() != invoicedomain.StatusDraft {
			return invoicedomain.ErrNotDraft
		}
		if inv.TrashedAt == nil {
			now := s.clock.Now()
			inv.TrashedAt = &now
		}
		return nil
	})
}

// Restore brings an invoice back from trash or archive, clearing both
// markers.
func (s *Service) Restore(ctx context.Context, userID int64, id snowflake.ID) (*invoicedomain.InvoiceWithItems, error) {
	return s.setHousekeeping(ctx, userID, id, "invoice.restored", func(inv *invoicedomain.Invoice) error {
		if inv.TrashedAt == nil && inv.ArchivedAt == nil {
			return invoicedomain.ErrNotTrashed
		}
		inv.TrashedAt = nil
		inv.ArchivedAt = nil
		return nil
	})
}

// Delete permanently removes a trashed draft together with its line
// items.
func (s *Service) Delete(ctx context.Context, userID int64, id snowflake.ID) error {
	if userID == 0 {
		return invoicedomain.ErrInvalidUser
	}

	var deleted *invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.loadForUpdate(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if inv.Status() != invoicedomain.StatusDraft {
			return invoicedomain.ErrNotDraft
		}
		if inv.TrashedAt == nil {
			return invoicedomain.ErrNotTrashed
		}

		if err := s.repo.DeleteLineItems(ctx, tx, inv.ID); err != nil {
			return err
		}
		if err := s.repo.DeletePayments(ctx, tx, inv.ID); err != nil {
			return err
		}
		if err := s.repo.DeleteInvoice(ctx, tx, userID, inv.ID); err != nil {
			return err
		}
		deleted = inv
		return nil
	})
	if err != nil {
		return err
	}

	s.emitAudit(ctx, "invoice.deleted", deleted, nil)
	return nil
}

func (s *Service) setHousekeeping(ctx context.Context, userID int64, id snowflake.ID, action string, mutate func(*invoicedomain.Invoice) error) (*invoicedomain.InvoiceWithItems, error) {
	if userID == 0 {
		return nil, invoicedomain.ErrInvalidUser
	}

	var changed *invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.loadForUpdate(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if err := mutate(inv); err != nil {
			return err
		}
		inv.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateInvoice(ctx, tx, inv); err != nil {
			return err
		}
		changed = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitAudit(ctx, action, changed, nil)
	return s.details(ctx, changed)
}
