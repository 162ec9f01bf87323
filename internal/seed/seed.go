package seed

import (
	"context"
	"fmt"

	"moviestore/internal/domain"

	"github.com/shopspring/decimal"
)

type CatalogWriter interface {
	Upsert(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error)
}

// Movies is the demo catalog.
var Movies = []domain.CatalogItemInput{
	{
		Key:           "inception",
		Title:         "Inception",
		Description:   "Un ladrón que roba secretos corporativos a través del uso de la tecnología de compartir sueños.",
		ReleaseYear:   2010,
		Category:      "Ciencia Ficción",
		Genres:        []string{"Ciencia Ficción", "Thriller", "Acción"},
		Rating:        8.8,
		RentPrice:     decimal.RequireFromString("49.90"),
		PurchasePrice: decimal.RequireFromString("199.90"),
		RentStock:     10,
		PurchaseStock: 5,
		ImageURL:      "https://m.media-amazon.com/images/I/912AErFSBHL._AC_SL1500_.jpg",
		Popularity:    90,
	},
	{
		Key:           "the-matrix",
		Title:         "The Matrix",
		Description:   "Un hacker descubre la verdadera naturaleza de su realidad y su papel en la guerra contra sus controladores.",
		ReleaseYear:   1999,
		Category:      "Ciencia Ficción",
		Genres:        []string{"Ciencia Ficción", "Acción"},
		Rating:        8.7,
		RentPrice:     decimal.RequireFromString("39.90"),
		PurchasePrice: decimal.RequireFromString("179.90"),
		RentStock:     15,
		PurchaseStock: 8,
		ImageURL:      "https://m.media-amazon.com/images/I/51EG732BV3L._AC_.jpg",
		Popularity:    95,
	},
}

// Apply inserts the demo catalog. It is idempotent: items are upserted by key,
// which also resets their stock to the seed values.
func Apply(ctx context.Context, repo CatalogWriter) (int, error) {
	for i, in := range Movies {
		item, err := domain.NewCatalogItem(in)
		if err != nil {
			return i, fmt.Errorf("seed item %s: %w", in.Key, err)
		}
		if _, err := repo.Upsert(ctx, item); err != nil {
			return i, fmt.Errorf("upsert item %s: %w", in.Key, err)
		}
	}
	return len(Movies), nil
}
