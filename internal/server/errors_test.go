package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
	"github.com/mantodeus/mantodeus-manager/internal/invoice/number"
)

func TestMapErrorStatusCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid line items", invoicedomain.ErrInvalidLineItems, http.StatusBadRequest},
		{"missing issue date", invoicedomain.ErrMissingIssueDate, http.StatusBadRequest},
		{"unparseable number", number.ErrNoNumericSequence, http.StatusBadRequest},
		{"not draft", invoicedomain.ErrNotDraft, http.StatusForbidden},
		{"needs review", invoicedomain.ErrNeedsReview, http.StatusForbidden},
		{"revert unconfirmed", invoicedomain.ErrRevertNotConfirmed, http.StatusForbidden},
		{"revert blocked", invoicedomain.ErrRevertBlocked, http.StatusForbidden},
		{"read only", invoicedomain.ErrReadOnly, http.StatusForbidden},
		{"number conflict", invoicedomain.ErrNumberConflict, http.StatusConflict},
		{"cancellation exists", invoicedomain.ErrCancellationExists, http.StatusConflict},
		{"already paid", invoicedomain.ErrAlreadyPaid, http.StatusConflict},
		{"payment exceeds outstanding", invoicedomain.ErrPaymentExceedsOutstanding, http.StatusConflict},
		{"not found", invoicedomain.ErrNotFound, http.StatusNotFound},
		{"integrity", invoicedomain.ErrIntegrity, http.StatusInternalServerError},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.status, status)
			assert.NotEmpty(t, payload.Type)
		})
	}
}

func TestMapErrorValidationPayloadCarriesField(t *testing.T) {
	status, payload := mapError(newValidationError("quantity", "invalid_quantity", "invalid value"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Len(t, payload.Errors, 1)
	assert.Equal(t, "quantity", payload.Errors[0].Field)
}
