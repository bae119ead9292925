package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mantodeus/mantodeus-manager/internal/invoice/domain"
	"github.com/mantodeus/mantodeus-manager/pkg/db/option"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InvoiceNumbers(ctx context.Context, tx *gorm.DB, userID int64) ([]string, error) {
	var numbers []string
	err := tx.WithContext(ctx).Raw(
		`SELECT invoice_number FROM invoices WHERE user_id = ?`,
		userID,
	).Scan(&numbers).Error
	if err != nil {
		return nil, err
	}
	return numbers, nil
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, inv *domain.Invoice) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, user_id, invoice_number, invoice_counter, invoice_year,
			type, cancelled_invoice_id, contact_id,
			issue_date, due_at, sent_at, paid_at, archived_at, trashed_at,
			subtotal, vat_amount, total, amount_paid, currency,
			needs_review, source, document_key, metadata,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID,
		inv.UserID,
		inv.InvoiceNumber,
		inv.InvoiceCounter,
		inv.InvoiceYear,
		inv.Type,
		inv.CancelledInvoiceID,
		inv.ContactID,
		inv.IssueDate,
		inv.DueAt,
		inv.SentAt,
		inv.PaidAt,
		inv.ArchivedAt,
		inv.TrashedAt,
		inv.Subtotal,
		inv.VATAmount,
		inv.Total,
		inv.AmountPaid,
		inv.Currency,
		inv.NeedsReview,
		inv.Source,
		inv.DocumentKey,
		inv.Metadata,
		inv.CreatedAt,
		inv.UpdatedAt,
	).Error
}

func (r *repo) InsertLineItems(ctx context.Context, tx *gorm.DB, items []domain.LineItem) error {
	for i := range items {
		err := tx.WithContext(ctx).Exec(
			`INSERT INTO invoice_line_items (
				id, invoice_id, name, quantity, unit_price, line_total, currency, position, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			items[i].ID,
			items[i].InvoiceID,
			items[i].Name,
			items[i].Quantity,
			items[i].UnitPrice,
			items[i].LineTotal,
			items[i].Currency,
			items[i].Position,
			items[i].CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, tx *gorm.DB, userID int64, id snowflake.ID, forUpdate bool) (*domain.Invoice, error) {
	query := `SELECT * FROM invoices WHERE user_id = ? AND id = ?`
	if forUpdate && supportsRowLocks(tx) {
		query += ` FOR UPDATE`
	}
	var inv domain.Invoice
	err := tx.WithContext(ctx).Raw(query, userID, id).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, nil
	}
	return &inv, nil
}

func (r *repo) FindCancellationOf(ctx context.Context, tx *gorm.DB, userID int64, id snowflake.ID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM invoices WHERE user_id = ? AND cancelled_invoice_id = ?`,
		userID,
		id,
	).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, nil
	}
	return &inv, nil
}

func (r *repo) LineItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) ([]domain.LineItem, error) {
	var items []domain.LineItem
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM invoice_line_items WHERE invoice_id = ? ORDER BY position ASC, id ASC`,
		invoiceID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Payments(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM invoice_payments WHERE invoice_id = ? ORDER BY paid_at ASC, id ASC`,
		invoiceID,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) UpdateInvoice(ctx context.Context, tx *gorm.DB, inv *domain.Invoice) error {
	res := tx.WithContext(ctx).Exec(
		`UPDATE invoices SET
			invoice_number = ?, invoice_counter = ?, invoice_year = ?,
			contact_id = ?, issue_date = ?, due_at = ?,
			sent_at = ?, paid_at = ?, archived_at = ?, trashed_at = ?,
			subtotal = ?, vat_amount = ?, total = ?, amount_paid = ?, currency = ?,
			needs_review = ?, document_key = ?, metadata = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		inv.InvoiceNumber,
		inv.InvoiceCounter,
		inv.InvoiceYear,
		inv.ContactID,
		inv.IssueDate,
		inv.DueAt,
		inv.SentAt,
		inv.PaidAt,
		inv.ArchivedAt,
		inv.TrashedAt,
		inv.Subtotal,
		inv.VATAmount,
		inv.Total,
		inv.AmountPaid,
		inv.Currency,
		inv.NeedsReview,
		inv.DocumentKey,
		inv.Metadata,
		inv.UpdatedAt,
		inv.UserID,
		inv.ID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) DeleteLineItems(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) error {
	return tx.WithContext(ctx).Exec(
		`DELETE FROM invoice_line_items WHERE invoice_id = ?`, invoiceID,
	).Error
}

func (r *repo) DeletePayments(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) error {
	return tx.WithContext(ctx).Exec(
		`DELETE FROM invoice_payments WHERE invoice_id = ?`, invoiceID,
	).Error
}

func (r *repo) DeleteInvoice(ctx context.Context, tx *gorm.DB, userID int64, id snowflake.ID) error {
	res := tx.WithContext(ctx).Exec(
		`DELETE FROM invoices WHERE user_id = ? AND id = ?`, userID, id,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) InsertPayment(ctx context.Context, tx *gorm.DB, p *domain.Payment) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO invoice_payments (id, invoice_id, user_id, amount, paid_at, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.InvoiceID,
		p.UserID,
		p.Amount,
		p.PaidAt,
		p.Note,
		p.CreatedAt,
	).Error
}

func (r *repo) AddToAmountPaid(ctx context.Context, tx *gorm.DB, id snowflake.ID, amount decimal.Decimal) error {
	res := tx.WithContext(ctx).Exec(
		`UPDATE invoices SET amount_paid = amount_paid + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		amount,
		id,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) CountPayments(ctx context.Context, tx *gorm.DB, invoiceID snowflake.ID) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM invoice_payments WHERE invoice_id = ?`,
		invoiceID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) List(ctx context.Context, tx *gorm.DB, req domain.ListInvoicesRequest) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	stmt := tx.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("user_id = ?", req.UserID)

	switch {
	case req.Trashed:
		stmt = stmt.Where("trashed_at IS NOT NULL")
	case req.Archived:
		stmt = stmt.Where("trashed_at IS NULL AND archived_at IS NOT NULL")
	default:
		stmt = stmt.Where("trashed_at IS NULL AND archived_at IS NULL")
	}

	switch req.State {
	case domain.StateDraft:
		stmt = stmt.Where("sent_at IS NULL AND paid_at IS NULL")
	case domain.StatePaid:
		stmt = stmt.Where("paid_at IS NOT NULL")
	case domain.StateSent:
		stmt = stmt.Where("sent_at IS NOT NULL AND paid_at IS NULL")
	case domain.StatePartial:
		stmt = stmt.Where("sent_at IS NOT NULL AND paid_at IS NULL AND amount_paid > 0 AND amount_paid < total")
	case domain.StateOverdue:
		stmt = stmt.Where("sent_at IS NOT NULL AND paid_at IS NULL AND due_at IS NOT NULL AND due_at < CURRENT_TIMESTAMP")
	}

	if req.Type != "" {
		stmt = stmt.Where("type = ?", req.Type)
	}
	if req.ContactID != nil {
		stmt = stmt.Where("contact_id = ?", *req.ContactID)
	}
	if req.Year != 0 {
		stmt = stmt.Where("invoice_year = ?", req.Year)
	}
	if req.Query != "" {
		stmt = stmt.Where("invoice_number LIKE ?", "%"+req.Query+"%")
	}

	stmt = option.ApplyPagination(req.Page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// supportsRowLocks reports whether the dialect honors SELECT ... FOR
// UPDATE. SQLite locks the whole database on write and errors on the
// clause.
func supportsRowLocks(tx *gorm.DB) bool {
	name := tx.Dialector.Name()
	return name == "postgres" || name == "mysql"
}
