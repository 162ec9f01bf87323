package order

import (
	"context"

	"moviestore/internal/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListFilter selects orders for the admin listing.
type ListFilter struct {
	UserID string
	Status domain.OrderStatus
	Page   int
	Limit  int
}

func (f ListFilter) Normalize() ListFilter {
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

// Repository is the order store. Orders are never deleted; only status changes.
type Repository interface {
	Create(ctx context.Context, o domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	// GetForUpdate reads an order and holds its row lock until the enclosing transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	List(ctx context.Context, f ListFilter) ([]domain.Order, int, error)
}
