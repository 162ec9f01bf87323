package order

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"moviestore/internal/db"
	"moviestore/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const orderColumns = `id::text, user_id, status, total_amount, created_at, updated_at`

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

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) error {
	batch := &pgx.Batch{}
	batch.Queue(`
INSERT INTO orders (id, user_id, status, total_amount, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, o.ID, o.UserID, string(o.Status), o.TotalAmount, o.CreatedAt, o.UpdatedAt)
	for i, l := range o.Lines {
		batch.Queue(`
INSERT INTO order_lines (order_id, line_no, item_id, title, mode, quantity, unit_price, line_subtotal)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, o.ID, i+1, l.ItemID, l.Title, string(l.Mode), l.Quantity, l.UnitPrice, l.LineSubtotal)
	}

	br := r.conn.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			r.logger.Printf("order repo: create id=%s error=%v", o.ID, err)
			return fmt.Errorf("create order: %w", err)
		}
	}
	r.logger.Printf("order repo: created id=%s user_id=%s lines=%d total=%s", o.ID, o.UserID, len(o.Lines), o.TotalAmount)
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresRepo) get(ctx context.Context, q, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.OrderNotFoundError{OrderID: id}
	}
	o, err := scanOrder(r.conn.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.OrderNotFoundError{OrderID: id}
		}
		return nil, err
	}
	orders := []domain.Order{o}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if _, err := uuid.Parse(id); err != nil {
		return &domain.OrderNotFoundError{OrderID: id}
	}
	cmd, err := r.conn.Exec(ctx, `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1
`, id, string(status))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &domain.OrderNotFoundError{OrderID: id}
	}
	r.logger.Printf("order repo: status id=%s status=%s", id, status)
	return nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	rows, err := r.conn.Query(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, err
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Order, int, error) {
	f = f.Normalize()

	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn.QueryRow(ctx, `SELECT count(*) FROM orders`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, clause, len(args)+1, len(args)+2)
	rows, err := r.conn.Query(ctx, q, append(args, f.Limit, f.Offset())...)
	if err != nil {
		return nil, 0, err
	}
	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachLines(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *postgresRepo) attachLines(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	pos := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		pos[o.ID] = i
	}

	rows, err := r.conn.Query(ctx, `
SELECT order_id::text, item_id::text, title, mode, quantity, unit_price, line_subtotal
FROM order_lines
WHERE order_id = ANY($1::uuid[])
ORDER BY order_id, line_no
`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			mode    string
			line    domain.OrderLine
		)
		if err := rows.Scan(&orderID, &line.ItemID, &line.Title, &mode, &line.Quantity, &line.UnitPrice, &line.LineSubtotal); err != nil {
			return err
		}
		line.Mode = domain.Mode(mode)
		i := pos[orderID]
		orders[i].Lines = append(orders[i].Lines, line)
	}
	return rows.Err()
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	defer rows.Close()
	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.UserID, &status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	return o, nil
}
