// Package domain holds the contact (customer) records invoices are
// addressed to.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Contact is a person or company an invoice can be addressed to.
type Contact struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID  int64        `gorm:"not null;index" json:"user_id"`
	Name    string       `gorm:"type:text;not null" json:"name"`
	Company string       `gorm:"type:text" json:"company,omitempty"`
	Email   string       `gorm:"type:text" json:"email,omitempty"`
	Phone   string       `gorm:"type:text" json:"phone,omitempty"`

	Street     string `gorm:"type:text" json:"street,omitempty"`
	PostalCode string `gorm:"type:text" json:"postal_code,omitempty"`
	City       string `gorm:"type:text" json:"city,omitempty"`
	Country    string `gorm:"type:text" json:"country,omitempty"`

	VATID string `gorm:"type:text" json:"vat_id,omitempty"`
	Notes string `gorm:"type:text" json:"notes,omitempty"`

	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Contact) TableName() string { return "contacts" }
