// Package option provides composable gorm query options shared by the
// repositories.
package option

import (
	"github.com/mantodeus/mantodeus-manager/pkg/db/pagination"
	"gorm.io/gorm"
)

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

// QueryOption mutates a gorm statement.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type optionFunc func(*gorm.DB) *gorm.DB

func (f optionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

// Condition is a single field comparison.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a comparison condition to the query.
func ApplyOperator(cond Condition) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		op := cond.Operator
		if op == "" {
			op = EQ
		}
		return db.Where(cond.Field+" "+string(op)+" ?", cond.Value)
	})
}

// QuerySortBy restricts sortable columns to an allow list.
type QuerySortBy struct {
	Allow   map[string]bool
	Field   string
	Desc    bool
	Default string
}

// WithSortBy orders the query by an allowed column, falling back to the
// default ordering when the requested column is not allowed.
func WithSortBy(sort QuerySortBy) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		field := sort.Field
		if field == "" || (sort.Allow != nil && !sort.Allow[field]) {
			field = sort.Default
		}
		if field == "" {
			field = "created_at"
		}
		direction := " asc"
		if sort.Desc {
			direction = " desc"
		}
		return db.Order(field + direction)
	})
}

// WithLimit caps the number of rows returned.
func WithLimit(limit int) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

// ApplyPagination applies cursor pagination. One extra row is fetched so
// the caller can detect whether more pages exist.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return optionFunc(func(db *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = 50
		}
		if page.PageToken != "" {
			cursor, err := pagination.DecodeCursor(page.PageToken)
			if err == nil && cursor != nil && cursor.CreatedAt != "" {
				db = db.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
			}
		}
		return db.Limit(size + 1)
	})
}
