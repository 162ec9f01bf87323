package cart

import (
	"context"

	"moviestore/internal/domain"
)

// Repository is the cart store. A user has exactly one cart.
type Repository interface {
	// GetOrCreate returns the user's cart, creating an empty one on first
	// access. In a transaction the cart stays locked until commit or rollback.
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	// Save replaces the stored lines of an existing cart with c.Lines.
	Save(ctx context.Context, c *domain.Cart) error
}
