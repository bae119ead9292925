package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mantodeus/mantodeus-manager/internal/clock"
	"github.com/mantodeus/mantodeus-manager/internal/config"
	invoicedomain "github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
	"github.com/mantodeus/mantodeus-manager/internal/invoice/repository"
)

var memdbSeq atomic.Int64

type fixture struct {
	db    *gorm.DB
	svc   invoicedomain.Service
	clock *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", memdbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.LineItem{},
		&invoicedomain.Payment{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:     db,
		Log:    zap.NewNop(),
		Config: config.Config{InvoiceNumberPrefix: "RE"},
		GenID:  node,
		Clock:  fake,
		Repo:   repository.Provide(),
	})

	return &fixture{db: db, svc: svc, clock: fake}
}

func (f *fixture) createDraft(t *testing.T, mutate func(*invoicedomain.CreateInvoiceRequest)) *invoicedomain.InvoiceWithItems {
	t.Helper()

	issueDate := f.clock.Now()
	req := invoicedomain.CreateInvoiceRequest{
		UserID:    1,
		IssueDate: &issueDate,
		Currency:  "EUR",
		LineItems: []invoicedomain.LineItemInput{
			{Name: "Consulting", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.NewFromInt(50)},
		},
	}
	if mutate != nil {
		mutate(&req)
	}

	created, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	return created
}

func (f *fixture) issue(t *testing.T, id snowflake.ID) *invoicedomain.InvoiceWithItems {
	t.Helper()
	issued, err := f.svc.Issue(context.Background(), 1, id)
	require.NoError(t, err)
	return issued
}

func (f *fixture) assertCount(t *testing.T, query string, want int64, args ...any) {
	t.Helper()
	var got int64
	require.NoError(t, f.db.Raw(query, args...).Scan(&got).Error)
	require.Equal(t, want, got)
}
