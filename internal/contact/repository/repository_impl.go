package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/mantodeus/mantodeus-manager/internal/contact/domain"
	"github.com/mantodeus/mantodeus-manager/pkg/db/option"
	"github.com/mantodeus/mantodeus-manager/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, contact *domain.Contact) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO contacts (
			id, user_id, name, company, email, phone,
			street, postal_code, city, country, vat_id, notes,
			metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		contact.ID,
		contact.UserID,
		contact.Name,
		contact.Company,
		contact.Email,
		contact.Phone,
		contact.Street,
		contact.PostalCode,
		contact.City,
		contact.Country,
		contact.VATID,
		contact.Notes,
		contact.Metadata,
		contact.CreatedAt,
		contact.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*domain.Contact, error) {
	var contact domain.Contact
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM contacts WHERE user_id = ? AND id = ?`,
		userID,
		id,
	).Scan(&contact).Error
	if err != nil {
		return nil, err
	}
	if contact.ID == 0 {
		return nil, nil
	}
	return &contact, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, contact *domain.Contact) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE contacts SET
			name = ?, company = ?, email = ?, phone = ?,
			street = ?, postal_code = ?, city = ?, country = ?,
			vat_id = ?, notes = ?, metadata = ?, updated_at = ?
		 WHERE user_id = ? AND id = ?`,
		contact.Name,
		contact.Company,
		contact.Email,
		contact.Phone,
		contact.Street,
		contact.PostalCode,
		contact.City,
		contact.Country,
		contact.VATID,
		contact.Notes,
		contact.Metadata,
		contact.UpdatedAt,
		contact.UserID,
		contact.ID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) error {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM contacts WHERE user_id = ? AND id = ?`, userID, id,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, userID int64, filter domain.ListContactFilter, page pagination.Pagination) ([]*domain.Contact, error) {
	var contacts []*domain.Contact
	stmt := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("user_id = ?", userID)

	if query := strings.TrimSpace(filter.Query); query != "" {
		pattern := "%" + query + "%"
		stmt = stmt.Where("name LIKE ? OR company LIKE ? OR email LIKE ?", pattern, pattern, pattern)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", *filter.CreatedTo)
	}

	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&contacts).Error
	if err != nil {
		return nil, err
	}
	return contacts, nil
}
