// Package repository provides a small generic gorm-backed store for
// simple catalog-style entities. Domain modules with transactional
// invariants (invoicing) use dedicated repositories instead.
package repository

import (
	"context"

	"github.com/mantodeus/mantodeus-manager/pkg/db/option"
	"gorm.io/gorm"
)

type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Update(ctx context.Context, resourceID string, resource any) error
	Delete(ctx context.Context, resourceID string) error
	Count(ctx context.Context, query *T) (int64, error)
}
