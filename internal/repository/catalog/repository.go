package catalog

import (
	"context"
	"strings"

	"moviestore/internal/domain"
)

const (
	SortCreatedAt     = "created_at"
	SortPopularity    = "popularity"
	SortRentPrice     = "rent_price"
	SortPurchasePrice = "purchase_price"
	SortTitle         = "title"
	SortReleaseYear   = "release_year"

	DefaultLimit = 12
	MaxLimit     = 100
)

var sortFields = map[string]bool{
	SortCreatedAt:     true,
	SortPopularity:    true,
	SortRentPrice:     true,
	SortPurchasePrice: true,
	SortTitle:         true,
	SortReleaseYear:   true,
}

// ListFilter narrows and orders a catalog listing. Zero values mean "no filter".
type ListFilter struct {
	Search   string
	Category string
	Genre    string
	Sort     string
	Desc     bool
	Page     int
	Limit    int
}

// Normalize applies defaults: newest first, page 1, DefaultLimit items.
// Unknown sort fields fall back to the default order.
func (f ListFilter) Normalize() ListFilter {
	f.Search = strings.TrimSpace(f.Search)
	f.Category = strings.TrimSpace(f.Category)
	f.Genre = strings.TrimSpace(f.Genre)
	f.Sort = strings.ToLower(strings.TrimSpace(f.Sort))
	if !sortFields[f.Sort] {
		f.Sort = SortCreatedAt
		f.Desc = true
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	return f
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Repository is the inventory store. Every method participates in the
// transaction of the connection it was built on.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	// GetForUpdate reads an item and holds its row lock until the enclosing transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.CatalogItem, error)
	// DecrementStock lowers the mode's counter by amount and fails with
	// InsufficientStockError instead of going below zero.
	DecrementStock(ctx context.Context, id string, mode domain.Mode, amount int) error
	IncrementStock(ctx context.Context, id string, mode domain.Mode, amount int) error
	List(ctx context.Context, f ListFilter) ([]domain.CatalogItem, int, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error)
	Update(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error)
	Upsert(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error)
	Delete(ctx context.Context, id string) error
}
