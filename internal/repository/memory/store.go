// Package memory implements the catalog, cart and order stores in process
// memory. A single mutex serialises transactions; a failed transaction is
// undone by restoring the maps captured when it started.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"moviestore/internal/domain"
	"moviestore/internal/repository/txn"
)

// Store values are replaced, never mutated in place, so a shallow copy of the
// maps is a complete snapshot.
type Store struct {
	mu     sync.Mutex
	items  map[string]domain.CatalogItem
	carts  map[string]domain.Cart
	orders map[string]domain.Order
	seq    map[string]int64
	next   int64
	now    func() time.Time
}

func New() *Store {
	return &Store{
		items:  make(map[string]domain.CatalogItem),
		carts:  make(map[string]domain.Cart),
		orders: make(map[string]domain.Order),
		seq:    make(map[string]int64),
		now:    time.Now,
	}
}

type snapshot struct {
	items  map[string]domain.CatalogItem
	carts  map[string]domain.Cart
	orders map[string]domain.Order
	seq    map[string]int64
	next   int64
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		items:  maps.Clone(s.items),
		carts:  maps.Clone(s.carts),
		orders: maps.Clone(s.orders),
		seq:    maps.Clone(s.seq),
		next:   s.next,
	}
}

func (s *Store) restore(snap snapshot) {
	s.items = snap.items
	s.carts = snap.carts
	s.orders = snap.orders
	s.seq = snap.seq
	s.next = snap.next
}

// Stores returns repositories that lock the store per call.
func (s *Store) Stores() txn.Stores {
	return s.bind(false)
}

// WithinTx runs fn with exclusive access to the store and rolls back every
// write fn made when it returns an error.
func (s *Store) WithinTx(ctx context.Context, fn func(txn.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(s.bind(true)); err != nil {
		s.restore(snap)
		return err
	}
	if err := ctx.Err(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) bind(inTx bool) txn.Stores {
	g := guard{s: s, inTx: inTx}
	return txn.Stores{
		Catalog: &catalogRepo{guard: g},
		Carts:   &cartRepo{guard: g},
		Orders:  &orderRepo{guard: g},
	}
}

// guard takes the store mutex unless the caller already holds it through WithinTx.
type guard struct {
	s    *Store
	inTx bool
}

func (g guard) lock() func() {
	if g.inTx {
		return func() {}
	}
	g.s.mu.Lock()
	return g.s.mu.Unlock
}
