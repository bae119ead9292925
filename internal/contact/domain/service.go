package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/mantodeus/mantodeus-manager/pkg/db/pagination"
)

var (
	ErrInvalidUser  = errors.New("invalid_user")
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrNotFound     = errors.New("contact_not_found")
)

type CreateContactRequest struct {
	UserID     int64  `json:"-"`
	Name       string `json:"name" binding:"required"`
	Company    string `json:"company,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Street     string `json:"street,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	VATID      string `json:"vat_id,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type UpdateContactRequest struct {
	UserID     int64        `json:"-"`
	ContactID  snowflake.ID `json:"-"`
	Name       *string      `json:"name,omitempty"`
	Company    *string      `json:"company,omitempty"`
	Email      *string      `json:"email,omitempty"`
	Phone      *string      `json:"phone,omitempty"`
	Street     *string      `json:"street,omitempty"`
	PostalCode *string      `json:"postal_code,omitempty"`
	City       *string      `json:"city,omitempty"`
	Country    *string      `json:"country,omitempty"`
	VATID      *string      `json:"vat_id,omitempty"`
	Notes      *string      `json:"notes,omitempty"`
}

type ListContactFilter struct {
	Query       string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListContactRequest struct {
	pagination.Pagination
	UserID int64
	Query  string `form:"q"`
}

type ListContactResponse struct {
	pagination.PageInfo
	Contacts []Contact `json:"contacts"`
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, contact *Contact) error
	FindByID(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) (*Contact, error)
	Update(ctx context.Context, db *gorm.DB, contact *Contact) error
	Delete(ctx context.Context, db *gorm.DB, userID int64, id snowflake.ID) error
	List(ctx context.Context, db *gorm.DB, userID int64, filter ListContactFilter, page pagination.Pagination) ([]*Contact, error)
}

type Service interface {
	Create(ctx context.Context, req CreateContactRequest) (Contact, error)
	GetByID(ctx context.Context, userID int64, id snowflake.ID) (Contact, error)
	Update(ctx context.Context, req UpdateContactRequest) (Contact, error)
	Delete(ctx context.Context, userID int64, id snowflake.ID) error
	List(ctx context.Context, req ListContactRequest) (ListContactResponse, error)
}
