// Package domain holds projects, the loose grouping invoices and
// contacts hang off in the operations app.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
)

// Project groups the work an invoice bills for.
type Project struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID      int64             `gorm:"not null;index" json:"user_id"`
	ContactID   *snowflake.ID     `gorm:"index" json:"contact_id,omitempty"`
	Name        string            `gorm:"type:text;not null" json:"name"`
	Description string            `gorm:"type:text" json:"description,omitempty"`
	Status      ProjectStatus     `gorm:"type:text;not null;default:'active'" json:"status"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Project) TableName() string { return "projects" }

var (
	ErrInvalidUser   = errors.New("invalid_user")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidStatus = errors.New("invalid_project_status")
	ErrNotFound      = errors.New("project_not_found")
)

type CreateProjectRequest struct {
	UserID      int64         `json:"-"`
	ContactID   *snowflake.ID `json:"contact_id,string,omitempty"`
	Name        string        `json:"name" binding:"required"`
	Description string        `json:"description,omitempty"`
}

type UpdateProjectRequest struct {
	UserID      int64          `json:"-"`
	ProjectID   snowflake.ID   `json:"-"`
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Status      *ProjectStatus `json:"status,omitempty"`
	ContactID   *snowflake.ID  `json:"contact_id,string,omitempty"`
}

type ListProjectsRequest struct {
	UserID int64
	Status ProjectStatus
}

type Service interface {
	Create(ctx context.Context, req CreateProjectRequest) (Project, error)
	GetByID(ctx context.Context, userID int64, id snowflake.ID) (Project, error)
	Update(ctx context.Context, req UpdateProjectRequest) (Project, error)
	Delete(ctx context.Context, userID int64, id snowflake.ID) error
	List(ctx context.Context, req ListProjectsRequest) ([]Project, error)
}
