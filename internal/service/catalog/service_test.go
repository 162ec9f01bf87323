package catalog

import (
	"context"
	"testing"

	"moviestore/internal/domain"
	catalogrepo "moviestore/internal/repository/catalog"
	"moviestore/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return New(store.Stores().Catalog, nil), store
}

func movie(title, category string, genres []string, rent string, popularity int) domain.CatalogItemInput {
	return domain.CatalogItemInput{
		Title:         title,
		Category:      category,
		Genres:        genres,
		RentPrice:     decimal.RequireFromString(rent),
		PurchasePrice: decimal.RequireFromString("100"),
		RentStock:     3,
		PurchaseStock: 1,
		Popularity:    popularity,
	}
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, movie("Inception", "Sci-Fi", []string{"Thriller"}, "49.90", 90))
	require.NoError(t, err)
	assert.Equal(t, "inception", created.Key)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Inception", got.Title)

	_, err = svc.Create(ctx, movie("Inception", "Sci-Fi", nil, "1", 0))
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Create(context.Background(), domain.CatalogItemInput{Title: "X", RentStock: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListFiltersSortsAndPaginates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for _, in := range []domain.CatalogItemInput{
		movie("Inception", "Sci-Fi", []string{"Thriller", "Action"}, "49.90", 90),
		movie("The Matrix", "Sci-Fi", []string{"Action"}, "39.90", 95),
		movie("Amelie", "Comedy", []string{"Romance"}, "19.90", 70),
	} {
		_, err := svc.Create(ctx, in)
		require.NoError(t, err)
	}

	page, err := svc.List(ctx, catalogrepo.ListFilter{Category: "sci-fi", Sort: catalogrepo.SortRentPrice})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "The Matrix", page.Items[0].Title)
	assert.Equal(t, 2, page.Total)

	page, err = svc.List(ctx, catalogrepo.ListFilter{Genre: "action", Sort: catalogrepo.SortPopularity, Desc: true})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "The Matrix", page.Items[0].Title)

	page, err = svc.List(ctx, catalogrepo.ListFilter{Search: "MATRIX"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	page, err = svc.List(ctx, catalogrepo.ListFilter{Sort: catalogrepo.SortTitle, Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "The Matrix", page.Items[0].Title)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Pages)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Comedy", "Sci-Fi"}, cats)
}

func TestUpdateAndDelete(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, movie("Inception", "Sci-Fi", nil, "49.90", 90))
	require.NoError(t, err)

	in := movie("Inception", "Sci-Fi", nil, "59.90", 91)
	updated, err := svc.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.True(t, updated.RentPrice.Equal(decimal.RequireFromString("59.90")))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, "missing", in)
	var missing *domain.ItemNotFoundError
	require.ErrorAs(t, err, &missing)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteReferencedItemIsRejected(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, movie("Inception", "Sci-Fi", nil, "49.90", 90))
	require.NoError(t, err)

	carts := store.Stores().Carts
	c, err := carts.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	line, err := domain.NewCartLine(created.ID, domain.ModeRent, 1, created.RentPrice, created.CreatedAt)
	require.NoError(t, err)
	c.Add(line)
	require.NoError(t, carts.Save(ctx, c))

	assert.ErrorIs(t, svc.Delete(ctx, created.ID), domain.ErrItemInUse)
}
