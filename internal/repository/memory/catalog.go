package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"moviestore/internal/domain"
	"moviestore/internal/repository/catalog"

	"github.com/google/uuid"
)

type catalogRepo struct {
	guard
}

func (r *catalogRepo) GetByID(_ context.Context, id string) (*domain.CatalogItem, error) {
	defer r.lock()()
	item, ok := r.s.items[id]
	if !ok {
		return nil, &domain.ItemNotFoundError{ItemID: id}
	}
	return &item, nil
}

// GetForUpdate needs no extra locking: transactions are already exclusive.
func (r *catalogRepo) GetForUpdate(ctx context.Context, id string) (*domain.CatalogItem, error) {
	return r.GetByID(ctx, id)
}

func (r *catalogRepo) DecrementStock(_ context.Context, id string, mode domain.Mode, amount int) error {
	if amount < 1 {
		return domain.ErrInvalidQuantity
	}
	return r.adjust(id, mode, -amount)
}

func (r *catalogRepo) IncrementStock(_ context.Context, id string, mode domain.Mode, amount int) error {
	if amount < 1 {
		return domain.ErrInvalidQuantity
	}
	return r.adjust(id, mode, amount)
}

func (r *catalogRepo) adjust(id string, mode domain.Mode, delta int) error {
	if !mode.Valid() {
		return domain.ErrInvalidMode
	}
	defer r.lock()()
	item, ok := r.s.items[id]
	if !ok {
		return &domain.ItemNotFoundError{ItemID: id}
	}
	if err := item.AdjustStock(mode, delta); err != nil {
		return err
	}
	item.UpdatedAt = r.s.now()
	r.s.items[id] = item
	return nil
}

func (r *catalogRepo) List(_ context.Context, f catalog.ListFilter) ([]domain.CatalogItem, int, error) {
	f = f.Normalize()
	defer r.lock()()

	search := strings.ToLower(f.Search)
	var matched []domain.CatalogItem
	for _, item := range r.s.items {
		if search != "" &&
			!strings.Contains(strings.ToLower(item.Title), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(item.Category, f.Category) {
			continue
		}
		if f.Genre != "" && !slices.ContainsFunc(item.Genres, func(g string) bool { return strings.EqualFold(g, f.Genre) }) {
			continue
		}
		matched = append(matched, item)
	}

	sort.Slice(matched, func(i, j int) bool {
		c := compareItems(matched[i], matched[j], f.Sort)
		if f.Desc {
			c = -c
		}
		if c == 0 {
			return matched[i].ID < matched[j].ID
		}
		return c < 0
	})

	total := len(matched)
	start := min(f.Offset(), total)
	end := min(start+f.Limit, total)
	return append([]domain.CatalogItem{}, matched[start:end]...), total, nil
}

func compareItems(a, b domain.CatalogItem, field string) int {
	switch field {
	case catalog.SortPopularity:
		return a.Popularity - b.Popularity
	case catalog.SortRentPrice:
		return a.RentPrice.Cmp(b.RentPrice)
	case catalog.SortPurchasePrice:
		return a.PurchasePrice.Cmp(b.PurchasePrice)
	case catalog.SortTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case catalog.SortReleaseYear:
		return a.ReleaseYear - b.ReleaseYear
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r *catalogRepo) Categories(context.Context) ([]string, error) {
	defer r.lock()()
	seen := map[string]bool{}
	var out []string
	for _, item := range r.s.items {
		if item.Category == "" || seen[item.Category] {
			continue
		}
		seen[item.Category] = true
		out = append(out, item.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (r *catalogRepo) Create(_ context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	defer r.lock()()
	if r.keyTaken(item.Key, "") {
		return nil, domain.ErrAlreadyExists
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if _, ok := r.s.items[item.ID]; ok {
		return nil, domain.ErrAlreadyExists
	}
	now := r.s.now()
	item.CreatedAt, item.UpdatedAt = now, now
	r.s.items[item.ID] = item
	return &item, nil
}

func (r *catalogRepo) Update(_ context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	defer r.lock()()
	existing, ok := r.s.items[item.ID]
	if !ok {
		return nil, &domain.ItemNotFoundError{ItemID: item.ID}
	}
	if r.keyTaken(item.Key, item.ID) {
		return nil, domain.ErrAlreadyExists
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = r.s.now()
	r.s.items[item.ID] = item
	return &item, nil
}

func (r *catalogRepo) Upsert(_ context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	defer r.lock()()
	now := r.s.now()
	for id, existing := range r.s.items {
		if existing.Key == item.Key {
			item.ID = id
			item.CreatedAt = existing.CreatedAt
			item.UpdatedAt = now
			r.s.items[id] = item
			return &item, nil
		}
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	item.CreatedAt, item.UpdatedAt = now, now
	r.s.items[item.ID] = item
	return &item, nil
}

func (r *catalogRepo) Delete(_ context.Context, id string) error {
	defer r.lock()()
	if _, ok := r.s.items[id]; !ok {
		return &domain.ItemNotFoundError{ItemID: id}
	}
	for _, c := range r.s.carts {
		for _, l := range c.Lines {
			if l.ItemID == id {
				return domain.ErrItemInUse
			}
		}
	}
	for _, o := range r.s.orders {
		for _, l := range o.Lines {
			if l.ItemID == id {
				return domain.ErrItemInUse
			}
		}
	}
	delete(r.s.items, id)
	return nil
}

func (r *catalogRepo) keyTaken(key, exceptID string) bool {
	for id, item := range r.s.items {
		if item.Key == key && id != exceptID {
			return true
		}
	}
	return false
}
