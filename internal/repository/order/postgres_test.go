package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"moviestore/internal/db/dbtest"
	"moviestore/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

func insertItem(ctx context.Context, t *testing.T, pool *pgxpool.Pool) domain.CatalogItem {
	t.Helper()
	item := domain.CatalogItem{ID: uuid.NewString(), Title: "Heat"}
	_, err := pool.Exec(ctx, `
INSERT INTO catalog_items (id, key, title, rent_price, purchase_price, rent_stock, purchase_stock)
VALUES ($1, $1, $2, 1, 1, 10, 10)`, item.ID, item.Title)
	if err != nil {
		t.Fatalf("insert item: %v", err)
	}
	return item
}

func makeOrder(t *testing.T, userID string, item domain.CatalogItem, qty int, at time.Time) domain.Order {
	t.Helper()
	line, err := domain.NewCartLine(item.ID, domain.ModeRent, qty, decimal.RequireFromString("12.50"), at)
	if err != nil {
		t.Fatalf("NewCartLine: %v", err)
	}
	o, err := domain.NewOrder(userID, []domain.OrderLine{domain.NewOrderLine(item, line)}, at)
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	return o
}

func TestPostgres_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)
	item := insertItem(ctx, t, pool)

	o := makeOrder(t, "u1", item, 2, time.Now().UTC())
	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := repo.GetByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.UserID != "u1" || got.Status != domain.OrderCompleted || len(got.Lines) != 1 {
		t.Fatalf("unexpected order %+v", got)
	}
	if got.Lines[0].Title != "Heat" || !got.TotalAmount.Equal(decimal.RequireFromString("25")) {
		t.Fatalf("unexpected lines or total %+v %s", got.Lines, got.TotalAmount)
	}

	if err := repo.UpdateStatus(ctx, o.ID, domain.OrderCancelled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, err = repo.GetByID(ctx, o.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.OrderCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}

	var missing *domain.OrderNotFoundError
	if _, err := repo.GetByID(ctx, uuid.NewString()); !errors.As(err, &missing) {
		t.Fatalf("expected order not found, got %v", err)
	}
	if err := repo.UpdateStatus(ctx, "bogus", domain.OrderPending); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgres_ListOrdering(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)
	item := insertItem(ctx, t, pool)

	base := time.Now().UTC().Truncate(time.Second)
	older := makeOrder(t, "u1", item, 1, base)
	newer := makeOrder(t, "u1", item, 1, base.Add(time.Minute))
	other := makeOrder(t, "u2", item, 1, base.Add(2*time.Minute))
	for _, o := range []domain.Order{older, newer, other} {
		if err := repo.Create(ctx, o); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	mine, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != newer.ID || mine[1].ID != older.ID || len(mine[0].Lines) != 1 {
		t.Fatalf("unexpected history %+v", mine)
	}

	all, total, err := repo.List(ctx, ListFilter{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 || len(all) != 2 || all[0].ID != other.ID {
		t.Fatalf("unexpected page %d %+v", total, all)
	}

	if err := repo.UpdateStatus(ctx, other.ID, domain.OrderCancelled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	cancelled, total, err := repo.List(ctx, ListFilter{Status: domain.OrderCancelled})
	if err != nil {
		t.Fatalf("List cancelled: %v", err)
	}
	if total != 1 || cancelled[0].ID != other.ID {
		t.Fatalf("unexpected cancelled list %d %+v", total, cancelled)
	}
	forUser, total, err := repo.List(ctx, ListFilter{UserID: "u2", Status: domain.OrderCompleted})
	if err != nil || total != 0 || len(forUser) != 0 {
		t.Fatalf("expected no completed orders for u2, got %d %+v %v", total, forUser, err)
	}
}

func TestPostgres_ListAttachesLinesPerOrder(t *testing.T) {
	ctx := context.Background()
	pool := dbtest.Pool(t)
	repo := NewPostgres(pool, nil)
	heat := insertItem(ctx, t, pool)
	ronin := insertItem(ctx, t, pool)

	base := time.Now().UTC().Truncate(time.Second)
	var placed []domain.Order
	for i, items := range [][]domain.CatalogItem{{heat, ronin}, {ronin}} {
		var lines []domain.OrderLine
		for qty, item := range items {
			cl, err := domain.NewCartLine(item.ID, domain.ModePurchase, qty+1, decimal.NewFromInt(3), base)
			if err != nil {
				t.Fatalf("NewCartLine: %v", err)
			}
			lines = append(lines, domain.NewOrderLine(item, cl))
		}
		o, err := domain.NewOrder("u1", lines, base.Add(time.Duration(i)*time.Minute))
		if err != nil {
			t.Fatalf("NewOrder: %v", err)
		}
		if err := repo.Create(ctx, o); err != nil {
			t.Fatalf("Create: %v", err)
		}
		placed = append(placed, o)
	}

	got, err := repo.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(got) != 2 || got[0].ID != placed[1].ID || got[1].ID != placed[0].ID {
		t.Fatalf("unexpected orders %+v", got)
	}
	if len(got[0].Lines) != 1 || got[0].Lines[0].ItemID != ronin.ID {
		t.Fatalf("unexpected lines on newest order %+v", got[0].Lines)
	}
	if len(got[1].Lines) != 2 || got[1].Lines[0].ItemID != heat.ID || got[1].Lines[1].ItemID != ronin.ID || got[1].Lines[1].Quantity != 2 {
		t.Fatalf("unexpected lines on oldest order %+v", got[1].Lines)
	}
}
