// Package txn binds the catalog, cart and order stores to a single database
// transaction so multi-store writes commit or roll back together.
package txn

import (
	"context"
	"fmt"
	"io"
	"log"

	"moviestore/internal/db"
	"moviestore/internal/repository/cart"
	"moviestore/internal/repository/catalog"
	"moviestore/internal/repository/order"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Stores groups the repositories that share one connection or transaction.
type Stores struct {
	Catalog catalog.Repository
	Carts   cart.Repository
	Orders  order.Repository
}

// Postgres runs callbacks inside pgx transactions.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) *Postgres {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Postgres{pool: pool, logger: logger}
}

// Stores returns repositories bound to the pool, outside any transaction.
func (p *Postgres) Stores() Stores {
	return bind(p.pool, p.logger)
}

// WithinTx commits when fn returns nil and rolls back otherwise. Row locks
// taken by fn are held until then.
func (p *Postgres) WithinTx(ctx context.Context, fn func(Stores) error) error {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(bind(tx, p.logger)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func bind(conn db.DBTX, logger *log.Logger) Stores {
	return Stores{
		Catalog: catalog.NewPostgres(conn, logger),
		Carts:   cart.NewPostgres(conn, logger),
		Orders:  order.NewPostgres(conn, logger),
	}
}
