package server

import (
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
)

const dateOnlyLayout = "2006-01-02"

type lifecycleFunc func(ctx context.Context, userID int64, id snowflake.ID) (*invoicedomain.InvoiceWithItems, error)

func invoiceIDParam(c *gin.Context) (snowflake.ID, bool) {
	return idParam(c, "id")
}

func idParam(c *gin.Context, name string) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.Param(name))
	parsed, err := snowflake.ParseString(raw)
	if err != nil || parsed == 0 {
		AbortWithError(c, newValidationError(name, "invalid_id", "invalid id"))
		return 0, false
	}
	return parsed, true
}

// bindOptionalJSON binds the body when present; an empty body leaves
// the target at its zero value.
func bindOptionalJSON(c *gin.Context, target any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(target); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func parseOptionalInt(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	return strconv.Atoi(trimmed)
}

func parseOptionalSnowflakeID(value string) (*snowflake.ID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil || parsed == 0 {
		return nil, errors.New("invalid_snowflake_id")
	}
	return &parsed, nil
}

func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	if parsed, err := time.Parse(dateOnlyLayout, trimmed); err == nil {
		if endOfDay {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
		} else {
			parsed = time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		}
		return &parsed, nil
	}
	return nil, errors.New("invalid_time")
}
