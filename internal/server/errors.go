package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	auditdomain "github.com/mantodeus/mantodeus-manager/internal/audit/domain"
	contactdomain "github.com/mantodeus/mantodeus-manager/internal/contact/domain"
	"github.com/mantodeus/mantodeus-manager/internal/extraction"
	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
	"github.com/mantodeus/mantodeus-manager/internal/invoice/number"
	projectdomain "github.com/mantodeus/mantodeus-manager/internal/project/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isLifecycleError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden_transition",
			Message: lifecycleMessage(err),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, extraction.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge, errorPayload{
			Type:    "document_too_large",
			Message: "document exceeds the size limit",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrInvalidUser),
		errors.Is(err, invoicedomain.ErrInvalidID),
		errors.Is(err, invoicedomain.ErrInvalidStatus),
		errors.Is(err, invoicedomain.ErrMissingIssueDate),
		errors.Is(err, invoicedomain.ErrInvalidLineItems),
		errors.Is(err, invoicedomain.ErrInvalidAmount),
		errors.Is(err, invoicedomain.ErrTotalNotPositive),
		errors.Is(err, invoicedomain.ErrImmutableFields),
		errors.Is(err, number.ErrNoNumericSequence),
		errors.Is(err, contactdomain.ErrInvalidName),
		errors.Is(err, contactdomain.ErrInvalidEmail),
		errors.Is(err, projectdomain.ErrInvalidName),
		errors.Is(err, projectdomain.ErrInvalidStatus),
		errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction),
		errors.Is(err, extraction.ErrInvalidDocument):
		return true
	default:
		return false
	}
}

// isLifecycleError reports state machine violations: the request was
// well-formed but the invoice is in a state that forbids it.
func isLifecycleError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrNotDraft),
		errors.Is(err, invoicedomain.ErrNotSent),
		errors.Is(err, invoicedomain.ErrNotTrashed),
		errors.Is(err, invoicedomain.ErrRevertNotConfirmed),
		errors.Is(err, invoicedomain.ErrArchived),
		errors.Is(err, invoicedomain.ErrReadOnly),
		errors.Is(err, invoicedomain.ErrNeedsReview),
		errors.Is(err, invoicedomain.ErrInvalidTransition),
		errors.Is(err, invoicedomain.ErrRevertBlocked),
		errors.Is(err, invoicedomain.ErrCancelDraft),
		errors.Is(err, invoicedomain.ErrCancelCancellation):
		return true
	default:
		return false
	}
}

func lifecycleMessage(err error) string {
	switch {
	case errors.Is(err, invoicedomain.ErrNotDraft):
		return "only draft invoices allow this operation"
	case errors.Is(err, invoicedomain.ErrNotSent):
		return "invoice has not been issued"
	case errors.Is(err, invoicedomain.ErrNotTrashed):
		return "invoice is not in the trash"
	case errors.Is(err, invoicedomain.ErrRevertNotConfirmed):
		return "reverting requires explicit confirmation"
	case errors.Is(err, invoicedomain.ErrArchived):
		return "invoice is archived"
	case errors.Is(err, invoicedomain.ErrReadOnly):
		return "invoice is read-only"
	case errors.Is(err, invoicedomain.ErrNeedsReview):
		return "invoice needs review before this operation"
	case errors.Is(err, invoicedomain.ErrInvalidTransition):
		return "transition is not allowed"
	case errors.Is(err, invoicedomain.ErrRevertBlocked):
		return "invoice has payments or a cancellation and cannot be reverted"
	case errors.Is(err, invoicedomain.ErrCancelDraft):
		return "draft invoices are deleted, not cancelled"
	case errors.Is(err, invoicedomain.ErrCancelCancellation):
		return "cancellation invoices cannot be cancelled"
	default:
		return "conflict"
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrNumberConflict),
		errors.Is(err, invoicedomain.ErrCancellationExists),
		errors.Is(err, invoicedomain.ErrAlreadyPaid),
		errors.Is(err, invoicedomain.ErrPaymentExceedsOutstanding):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, invoicedomain.ErrNumberConflict):
		return "invoice number is already taken"
	case errors.Is(err, invoicedomain.ErrCancellationExists):
		return "a cancellation invoice already exists"
	case errors.Is(err, invoicedomain.ErrAlreadyPaid):
		return "invoice is already paid"
	case errors.Is(err, invoicedomain.ErrPaymentExceedsOutstanding):
		return err.Error()
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, contactdomain.ErrNotFound),
		errors.Is(err, projectdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

// classifyErrorForLog buckets handler errors for the request log.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	switch {
	case asValidationErrors(err) != nil, isValidationError(err):
		return "validation", "invalid_request"
	case isLifecycleError(err), isConflictError(err):
		return "conflict", err.Error()
	case isNotFoundError(err):
		return "not_found", err.Error()
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized", "unauthorized"
	default:
		return "internal", err.Error()
	}
}
