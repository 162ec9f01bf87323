package memory

import (
	"context"
	"sort"

	"moviestore/internal/domain"
	"moviestore/internal/repository/order"
)

type orderRepo struct {
	guard
}

func (r *orderRepo) Create(_ context.Context, o domain.Order) error {
	defer r.lock()()
	if _, ok := r.s.orders[o.ID]; ok {
		return domain.ErrAlreadyExists
	}
	for _, l := range o.Lines {
		if _, ok := r.s.items[l.ItemID]; !ok {
			return &domain.ItemNotFoundError{ItemID: l.ItemID}
		}
	}
	r.s.orders[o.ID] = o.Clone()
	r.s.next++
	r.s.seq[o.ID] = r.s.next
	return nil
}

func (r *orderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	defer r.lock()()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, &domain.OrderNotFoundError{OrderID: id}
	}
	out := o.Clone()
	return &out, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *orderRepo) UpdateStatus(_ context.Context, id string, status domain.OrderStatus) error {
	defer r.lock()()
	o, ok := r.s.orders[id]
	if !ok {
		return &domain.OrderNotFoundError{OrderID: id}
	}
	o = o.Clone()
	o.Status = status
	o.UpdatedAt = r.s.now()
	r.s.orders[id] = o
	return nil
}

func (r *orderRepo) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	defer r.lock()()
	return r.collect(func(o domain.Order) bool { return o.UserID == userID }), nil
}

func (r *orderRepo) List(_ context.Context, f order.ListFilter) ([]domain.Order, int, error) {
	f = f.Normalize()
	defer r.lock()()
	matched := r.collect(func(o domain.Order) bool {
		if f.UserID != "" && o.UserID != f.UserID {
			return false
		}
		return f.Status == "" || o.Status == f.Status
	})
	total := len(matched)
	start := min(f.Offset(), total)
	end := min(start+f.Limit, total)
	return matched[start:end], total, nil
}

// collect returns matching orders newest first. Callers hold the lock.
func (r *orderRepo) collect(match func(domain.Order) bool) []domain.Order {
	var out []domain.Order
	for _, o := range r.s.orders {
		if match(o) {
			out = append(out, o.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.s.seq[out[i].ID] > r.s.seq[out[j].ID]
	})
	return out
}
