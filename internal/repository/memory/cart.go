package memory

import (
	"context"

	"moviestore/internal/domain"

	"github.com/google/uuid"
)

type cartRepo struct {
	guard
}

func (r *cartRepo) GetOrCreate(_ context.Context, userID string) (*domain.Cart, error) {
	defer r.lock()()
	c, ok := r.s.carts[userID]
	if !ok {
		now := r.s.now()
		c = domain.Cart{ID: uuid.NewString(), UserID: userID, CreatedAt: now, UpdatedAt: now}
		r.s.carts[userID] = c
	}
	out := c.Clone()
	return &out, nil
}

func (r *cartRepo) Save(_ context.Context, c *domain.Cart) error {
	defer r.lock()()
	existing, ok := r.s.carts[c.UserID]
	if !ok || existing.ID != c.ID {
		return domain.ErrNotFound
	}
	stored := c.Clone()
	stored.UpdatedAt = r.s.now()
	r.s.carts[c.UserID] = stored
	return nil
}
