package domain

import "errors"

// Validation errors.
var (
	ErrInvalidUser        = errors.New("invalid_user")
	ErrInvalidID          = errors.New("invalid_invoice_id")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrMissingIssueDate   = errors.New("missing_issue_date")
	ErrInvalidLineItems   = errors.New("invalid_line_items")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrTotalNotPositive   = errors.New("total_not_positive")
	ErrImmutableFields    = errors.New("immutable_fields")
	ErrRevertNotConfirmed = errors.New("revert_not_confirmed")
)

// State machine errors.
var (
	ErrNotDraft           = errors.New("invoice_not_draft")
	ErrNotSent            = errors.New("invoice_not_sent")
	ErrNotTrashed         = errors.New("invoice_not_trashed")
	ErrAlreadyPaid        = errors.New("invoice_already_paid")
	ErrArchived           = errors.New("invoice_archived")
	ErrReadOnly           = errors.New("invoice_read_only")
	ErrNeedsReview        = errors.New("invoice_needs_review")
	ErrInvalidTransition  = errors.New("invalid_transition")
	ErrRevertBlocked      = errors.New("revert_blocked")
	ErrCancelDraft        = errors.New("cannot_cancel_draft")
	ErrCancelCancellation = errors.New("cannot_cancel_cancellation")
)

// Conflict and integrity errors.
var (
	ErrNotFound                   = errors.New("invoice_not_found")
	ErrNumberConflict             = errors.New("invoice_number_conflict")
	ErrCancellationExists         = errors.New("cancellation_exists")
	ErrPaymentExceedsOutstanding  = errors.New("payment_exceeds_outstanding")
	ErrIntegrity                  = errors.New("invoice_integrity_violation")
	ErrCancellationBacklinkBroken = errors.New("cancellation_backlink_broken")
)
