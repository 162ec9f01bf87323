package cart

import (
	"context"
	"fmt"
	"io"
	"log"

	"moviestore/internal/db"
	"moviestore/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type postgresRepo struct {
	conn   db.DBTX
	logger *log.Logger
}

func NewPostgres(conn db.DBTX, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{conn: conn, logger: logger}
}

func (r *postgresRepo) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	if _, err := r.conn.Exec(ctx, `
INSERT INTO carts (id, user_id)
VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING
`, uuid.NewString(), userID); err != nil {
		return nil, fmt.Errorf("ensure cart: %w", err)
	}

	var c domain.Cart
	if err := r.conn.QueryRow(ctx, `
SELECT id::text, user_id, created_at, updated_at
FROM carts
WHERE user_id = $1
FOR UPDATE
`, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}

	rows, err := r.conn.Query(ctx, `
SELECT item_id::text, mode, quantity, unit_price, added_at
FROM cart_lines
WHERE cart_id = $1
ORDER BY position ASC
`, c.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		var mode string
		if err := rows.Scan(&line.ItemID, &mode, &line.Quantity, &line.UnitPriceAtAdd, &line.AddedAt); err != nil {
			return nil, err
		}
		line.Mode = domain.Mode(mode)
		c.Lines = append(c.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) Save(ctx context.Context, c *domain.Cart) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM cart_lines WHERE cart_id = $1`, c.ID)
	for i, line := range c.Lines {
		batch.Queue(`
INSERT INTO cart_lines (cart_id, item_id, mode, quantity, unit_price, position, added_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, c.ID, line.ItemID, string(line.Mode), line.Quantity, line.UnitPriceAtAdd, i, line.AddedAt)
	}
	batch.Queue(`UPDATE carts SET updated_at = now() WHERE id = $1`, c.ID)

	br := r.conn.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			r.logger.Printf("cart repo: save cart_id=%s error=%v", c.ID, err)
			return fmt.Errorf("save cart: %w", err)
		}
	}
	r.logger.Printf("cart repo: saved cart_id=%s lines=%d", c.ID, len(c.Lines))
	return nil
}
