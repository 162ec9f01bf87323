package txn_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"moviestore/internal/db/dbtest"
	"moviestore/internal/domain"
	"moviestore/internal/repository/txn"
	cartsvc "moviestore/internal/service/cart"
	checkoutsvc "moviestore/internal/service/checkout"
	ordersvc "moviestore/internal/service/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedItem(t *testing.T, tx *txn.Postgres, key string, rentStock, purchaseStock int) domain.CatalogItem {
	t.Helper()
	item, err := domain.NewCatalogItem(domain.CatalogItemInput{
		Key:           key,
		Title:         key,
		RentPrice:     decimal.RequireFromString("49.90"),
		PurchasePrice: decimal.RequireFromString("199.90"),
		RentStock:     rentStock,
		PurchaseStock: purchaseStock,
	})
	require.NoError(t, err)
	created, err := tx.Stores().Catalog.Create(context.Background(), item)
	require.NoError(t, err)
	return *created
}

func TestWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	tx := txn.NewPostgres(dbtest.Pool(t), nil)
	item := seedItem(t, tx, "heat", 5, 5)

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(st txn.Stores) error {
		if err := st.Catalog.DecrementStock(ctx, item.ID, domain.ModeRent, 5); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := tx.Stores().Catalog.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.RentStock)
	require.NoError(t, tx.Ping(ctx))
}

func TestCheckoutScenarioOnPostgres(t *testing.T) {
	ctx := context.Background()
	tx := txn.NewPostgres(dbtest.Pool(t), nil)
	item := seedItem(t, tx, "inception", 10, 5)

	carts := cartsvc.New(tx, nil)
	_, err := carts.AddItem(ctx, "u1", item.ID, "purchase", 5)
	require.NoError(t, err)

	order, err := checkoutsvc.New(tx, nil).Checkout(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("999.50")))

	got, err := tx.Stores().Catalog.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.PurchaseStock)

	view, err := carts.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	orders := ordersvc.New(tx, nil)
	_, err = orders.SetStatus(ctx, order.ID, "cancelled", domain.Principal{UserID: "admin", Admin: true})
	require.NoError(t, err)
	_, err = orders.SetStatus(ctx, order.ID, "cancelled", domain.Principal{UserID: "admin", Admin: true})
	require.NoError(t, err)

	got, err = tx.Stores().Catalog.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.PurchaseStock)
}

func TestConcurrentCheckoutsOnPostgres(t *testing.T) {
	ctx := context.Background()
	tx := txn.NewPostgres(dbtest.Pool(t), nil)
	item := seedItem(t, tx, "heat", 0, 1)

	const buyers = 8
	carts := cartsvc.New(tx, nil)
	for i := range buyers {
		_, err := carts.AddItem(ctx, userID(i), item.ID, "purchase", 1)
		require.NoError(t, err)
	}

	checkout := checkoutsvc.New(tx, nil)
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := range buyers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := checkout.Checkout(ctx, userID(i))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	for _, err := range failures {
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	}
	got, err := tx.Stores().Catalog.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.PurchaseStock)
}

func userID(i int) string {
	return "buyer-" + string(rune('a'+i))
}
