package seed

import (
	"context"
	"testing"

	catalogrepo "moviestore/internal/repository/catalog"
	"moviestore/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.New().Stores().Catalog

	for range 2 {
		n, err := Apply(ctx, repo)
		require.NoError(t, err)
		assert.Equal(t, len(Movies), n)
	}

	items, total, err := repo.List(ctx, catalogrepo.ListFilter{Sort: catalogrepo.SortPopularity, Desc: true})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	assert.Equal(t, "the-matrix", items[0].Key)
	assert.Equal(t, 5, items[1].PurchaseStock)
	assert.True(t, items[1].PurchasePrice.Equal(decimal.RequireFromString("199.90")))
}
