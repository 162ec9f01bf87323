package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Rent ")
	require.NoError(t, err)
	assert.Equal(t, ModeRent, m)

	m, err = ParseMode("purchase")
	require.NoError(t, err)
	assert.Equal(t, ModePurchase, m)

	_, err = ParseMode("lease")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, OrderCancelled, s)

	_, err = ParseOrderStatus("shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestNewCatalogItemValidates(t *testing.T) {
	_, err := NewCatalogItem(CatalogItemInput{Title: "  "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewCatalogItem(CatalogItemInput{Title: "X", RentStock: -1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewCatalogItem(CatalogItemInput{Title: "X", Rating: 11})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = NewCatalogItem(CatalogItemInput{Title: "X", PurchasePrice: decimal.RequireFromString("-1")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewCatalogItemDerivesKey(t *testing.T) {
	item, err := NewCatalogItem(CatalogItemInput{
		Title:     "The Matrix",
		Genres:    []string{" Action ", ""},
		RentPrice: decimal.RequireFromString("39.904"),
	})
	require.NoError(t, err)
	assert.Equal(t, "the-matrix", item.Key)
	assert.Equal(t, []string{"Action"}, item.Genres)
	assert.True(t, item.RentPrice.Equal(decimal.RequireFromString("39.90")))
}

func TestCatalogItemAdjustStock(t *testing.T) {
	item := CatalogItem{ID: "x", RentStock: 2, PurchaseStock: 1}
	require.NoError(t, item.AdjustStock(ModeRent, -2))
	assert.Equal(t, 0, item.RentStock)

	err := item.AdjustStock(ModePurchase, -3)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 1, item.PurchaseStock)
}

func TestCartAddMergesAndKeepsPrice(t *testing.T) {
	now := time.Now()
	var c Cart
	first, err := NewCartLine("a", ModeRent, 2, decimal.NewFromInt(10), now)
	require.NoError(t, err)
	second, err := NewCartLine("a", ModeRent, 3, decimal.NewFromInt(99), now)
	require.NoError(t, err)

	require.NoError(t, c.Add(first))
	require.NoError(t, c.Add(second))

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 5, c.Lines[0].Quantity)
	assert.True(t, c.Lines[0].UnitPriceAtAdd.Equal(decimal.NewFromInt(10)))

	other, err := NewCartLine("a", ModePurchase, 1, decimal.NewFromInt(50), now)
	require.NoError(t, err)
	require.NoError(t, c.Add(other))
	assert.Len(t, c.Lines, 2)
	assert.Equal(t, 6, c.TotalItems())
	assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(100)))
}

func TestCartAddRejectsOverflowingQuantity(t *testing.T) {
	now := time.Now()
	var c Cart
	first, err := NewCartLine("a", ModeRent, 1, decimal.NewFromInt(10), now)
	require.NoError(t, err)
	require.NoError(t, c.Add(first))

	huge, err := NewCartLine("a", ModeRent, math.MaxInt, decimal.NewFromInt(10), now)
	require.NoError(t, err)
	assert.ErrorIs(t, c.Add(huge), ErrInvalidQuantity)
	assert.Equal(t, 1, c.Lines[0].Quantity)

	assert.ErrorIs(t, c.Add(CartLine{ItemID: "b", Mode: ModeRent}), ErrInvalidQuantity)
	assert.Len(t, c.Lines, 1)
}

func TestCartSetQuantityAndRemove(t *testing.T) {
	line, err := NewCartLine("a", ModeRent, 1, decimal.NewFromInt(1), time.Now())
	require.NoError(t, err)
	c := Cart{Lines: []CartLine{line}}

	assert.ErrorIs(t, c.SetQuantity("a", ModeRent, 0), ErrInvalidQuantity)

	err = c.SetQuantity("a", ModePurchase, 2)
	var notInCart *ItemNotInCartError
	require.ErrorAs(t, err, &notInCart)

	require.NoError(t, c.SetQuantity("a", ModeRent, 4))
	assert.Equal(t, 4, c.Quantity("a", ModeRent))

	require.NoError(t, c.Remove("a", ModeRent))
	assert.True(t, c.IsEmpty())
	assert.ErrorIs(t, c.Remove("a", ModeRent), ErrNotFound)
}

func TestNewCartLineRejectsBadInput(t *testing.T) {
	_, err := NewCartLine("a", ModeRent, 0, decimal.Zero, time.Now())
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = NewCartLine("a", Mode("lease"), 1, decimal.Zero, time.Now())
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestNewOrderTotals(t *testing.T) {
	item := CatalogItem{ID: "x", Title: "Inception", RentPrice: decimal.NewFromInt(1000)}
	line, err := NewCartLine("x", ModeRent, 3, decimal.RequireFromString("49.90"), time.Now())
	require.NoError(t, err)

	o, err := NewOrder("u1", []OrderLine{NewOrderLine(item, line)}, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, OrderCompleted, o.Status)
	assert.True(t, o.Lines[0].UnitPrice.Equal(decimal.RequireFromString("49.90")))
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("149.70")))

	_, err = NewOrder("u1", nil, time.Now())
	assert.True(t, errors.Is(err, ErrEmptyCart))
}

func TestPrincipalCanView(t *testing.T) {
	o := Order{UserID: "u1"}
	assert.True(t, Principal{UserID: "u1"}.CanView(o))
	assert.False(t, Principal{UserID: "u2"}.CanView(o))
	assert.True(t, Principal{UserID: "u2", Admin: true}.CanView(o))
}
