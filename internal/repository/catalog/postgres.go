package catalog

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

const itemColumns = `id::text, key, title, description, release_year, category, genres, rating,
rent_price, purchase_price, rent_stock, purchase_stock, image_url, popularity, created_at, updated_at`

type postgresRepo struct {
	conn   db.DBTX
	logger *log.Logger
}

// NewPostgres builds an inventory store on conn, which may be a pool or a transaction.
func NewPostgres(conn db.DBTX, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{conn: conn, logger: logger}
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	return r.get(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE id = $1`, id)
}

func (r *postgresRepo) GetForUpdate(ctx context.Context, id string) (*domain.CatalogItem, error) {
	return r.get(ctx, `SELECT `+itemColumns+` FROM catalog_items WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresRepo) get(ctx context.Context, q, id string) (*domain.CatalogItem, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &domain.ItemNotFoundError{ItemID: id}
	}
	item, err := scanItem(r.conn.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Printf("catalog repo: get id=%s not found", id)
			return nil, &domain.ItemNotFoundError{ItemID: id}
		}
		r.logger.Printf("catalog repo: get id=%s error=%v", id, err)
		return nil, err
	}
	return &item, nil
}

func stockColumn(mode domain.Mode) (string, error) {
	switch mode {
	case domain.ModeRent:
		return "rent_stock", nil
	case domain.ModePurchase:
		return "purchase_stock", nil
	default:
		return "", domain.ErrInvalidMode
	}
}

func (r *postgresRepo) DecrementStock(ctx context.Context, id string, mode domain.Mode, amount int) error {
	col, err := stockColumn(mode)
	if err != nil {
		return err
	}
	if amount < 1 {
		return domain.ErrInvalidQuantity
	}
	if _, err := uuid.Parse(id); err != nil {
		return &domain.ItemNotFoundError{ItemID: id}
	}
	q := fmt.Sprintf(`
UPDATE catalog_items
SET %[1]s = %[1]s - $2, updated_at = now()
WHERE id = $1 AND %[1]s >= $2
RETURNING %[1]s
`, col)
	var remaining int
	err = r.conn.QueryRow(ctx, q, id, amount).Scan(&remaining)
	if err == nil {
		r.logger.Printf("catalog repo: decrement id=%s mode=%s amount=%d remaining=%d", id, mode, amount, remaining)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	var available int
	err = r.conn.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM catalog_items WHERE id = $1`, col), id).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return &domain.ItemNotFoundError{ItemID: id}
	}
	if err != nil {
		return err
	}
	return &domain.InsufficientStockError{ItemID: id, Mode: mode, Requested: amount, Available: available}
}

func (r *postgresRepo) IncrementStock(ctx context.Context, id string, mode domain.Mode, amount int) error {
	col, err := stockColumn(mode)
	if err != nil {
		return err
	}
	if amount < 1 {
		return domain.ErrInvalidQuantity
	}
	if _, err := uuid.Parse(id); err != nil {
		return &domain.ItemNotFoundError{ItemID: id}
	}
	cmd, err := r.conn.Exec(ctx, fmt.Sprintf(`
UPDATE catalog_items
SET %[1]s = %[1]s + $2, updated_at = now()
WHERE id = $1
`, col), id, amount)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return &domain.ItemNotFoundError{ItemID: id}
	}
	r.logger.Printf("catalog repo: increment id=%s mode=%s amount=%d", id, mode, amount)
	return nil
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.CatalogItem, int, error) {
	f = f.Normalize()

	var (
		where []string
		args  []any
	)
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, fmt.Sprintf("lower(category) = lower($%d)", len(args)))
	}
	if f.Genre != "" {
		args = append(args, f.Genre)
		where = append(where, fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(genres) g WHERE lower(g) = lower($%d))", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn.QueryRow(ctx, `SELECT count(*) FROM catalog_items`+clause, args...).Scan(&total); err != nil {
		r.logger.Printf("catalog repo: count error=%v", err)
		return nil, 0, err
	}

	dir := "ASC"
	if f.Desc {
		dir = "DESC"
	}
	// f.Sort is whitelisted by Normalize.
	q := fmt.Sprintf(`SELECT %s FROM catalog_items%s ORDER BY %s %s, id ASC LIMIT $%d OFFSET $%d`,
		itemColumns, clause, f.Sort, dir, len(args)+1, len(args)+2)
	rows, err := r.conn.Query(ctx, q, append(args, f.Limit, f.Offset())...)
	if err != nil {
		r.logger.Printf("catalog repo: list error=%v", err)
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]domain.CatalogItem, 0, f.Limit)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	r.logger.Printf("catalog repo: list count=%d total=%d", len(items), total)
	return items, total, nil
}

func (r *postgresRepo) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.conn.Query(ctx, `
SELECT DISTINCT category
FROM catalog_items
WHERE category <> ''
ORDER BY category
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Create(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	const q = `
INSERT INTO catalog_items (id, key, title, description, release_year, category, genres, rating,
    rent_price, purchase_price, rent_stock, purchase_stock, image_url, popularity)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING created_at, updated_at
`
	err := r.conn.QueryRow(ctx, q, writeArgs(item)...).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		r.logger.Printf("catalog repo: create key=%s error=%v", item.Key, err)
		return nil, db.MapError(err)
	}
	r.logger.Printf("catalog repo: created key=%s id=%s", item.Key, item.ID)
	return &item, nil
}

func (r *postgresRepo) Update(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	if _, err := uuid.Parse(item.ID); err != nil {
		return nil, &domain.ItemNotFoundError{ItemID: item.ID}
	}
	const q = `
UPDATE catalog_items
SET key = $2, title = $3, description = $4, release_year = $5, category = $6, genres = $7, rating = $8,
    rent_price = $9, purchase_price = $10, rent_stock = $11, purchase_stock = $12, image_url = $13,
    popularity = $14, updated_at = now()
WHERE id = $1
RETURNING created_at, updated_at
`
	err := r.conn.QueryRow(ctx, q, writeArgs(item)...).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.ItemNotFoundError{ItemID: item.ID}
		}
		r.logger.Printf("catalog repo: update id=%s error=%v", item.ID, err)
		return nil, db.MapError(err)
	}
	r.logger.Printf("catalog repo: updated id=%s", item.ID)
	return &item, nil
}

// Upsert inserts or replaces an item identified by its key.
func (r *postgresRepo) Upsert(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	const q = `
INSERT INTO catalog_items (id, key, title, description, release_year, category, genres, rating,
    rent_price, purchase_price, rent_stock, purchase_stock, image_url, popularity)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
ON CONFLICT (key) DO UPDATE SET
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    release_year = EXCLUDED.release_year,
    category = EXCLUDED.category,
    genres = EXCLUDED.genres,
    rating = EXCLUDED.rating,
    rent_price = EXCLUDED.rent_price,
    purchase_price = EXCLUDED.purchase_price,
    rent_stock = EXCLUDED.rent_stock,
    purchase_stock = EXCLUDED.purchase_stock,
    image_url = EXCLUDED.image_url,
    popularity = EXCLUDED.popularity,
    updated_at = now()
RETURNING id::text, created_at, updated_at
`
	err := r.conn.QueryRow(ctx, q, writeArgs(item)...).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		r.logger.Printf("catalog repo: upsert key=%s error=%v", item.Key, err)
		return nil, db.MapError(err)
	}
	r.logger.Printf("catalog repo: upserted key=%s id=%s", item.Key, item.ID)
	return &item, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &domain.ItemNotFoundError{ItemID: id}
	}
	cmd, err := r.conn.Exec(ctx, `DELETE FROM catalog_items WHERE id = $1`, id)
	if err != nil {
		r.logger.Printf("catalog repo: delete id=%s error=%v", id, err)
		return db.MapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.ItemNotFoundError{ItemID: id}
	}
	r.logger.Printf("catalog repo: deleted id=%s", id)
	return nil
}

func writeArgs(item domain.CatalogItem) []any {
	genres := item.Genres
	if genres == nil {
		genres = []string{}
	}
	return []any{
		item.ID,
		item.Key,
		item.Title,
		item.Description,
		item.ReleaseYear,
		item.Category,
		genres,
		item.Rating,
		item.RentPrice,
		item.PurchasePrice,
		item.RentStock,
		item.PurchaseStock,
		item.ImageURL,
		item.Popularity,
	}
}

func scanItem(row pgx.Row) (domain.CatalogItem, error) {
	var item domain.CatalogItem
	err := row.Scan(
		&item.ID,
		&item.Key,
		&item.Title,
		&item.Description,
		&item.ReleaseYear,
		&item.Category,
		&item.Genres,
		&item.Rating,
		&item.RentPrice,
		&item.PurchasePrice,
		&item.RentStock,
		&item.PurchaseStock,
		&item.ImageURL,
		&item.Popularity,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}
