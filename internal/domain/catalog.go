package domain

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

// Mode selects which price and stock counter of a CatalogItem a line uses.
type Mode string

const (
	ModeRent     Mode = "rent"
	ModePurchase Mode = "purchase"
)

// ParseMode accepts "rent" or "purchase" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRent:
		return ModeRent, nil
	case ModePurchase:
		return ModePurchase, nil
	default:
		return "", ErrInvalidMode
	}
}

func (m Mode) Valid() bool {
	return m == ModeRent || m == ModePurchase
}

// CatalogItem is a movie that can be rented and purchased with independent prices and stock.
type CatalogItem struct {
	ID            string          `json:"id"`
	Key           string          `json:"key"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	ReleaseYear   int             `json:"releaseYear,omitempty"`
	Category      string          `json:"category,omitempty"`
	Genres        []string        `json:"genres"`
	Rating        float64         `json:"rating"`
	RentPrice     decimal.Decimal `json:"rentPrice"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	RentStock     int             `json:"rentStock"`
	PurchaseStock int             `json:"purchaseStock"`
	ImageURL      string          `json:"imageUrl,omitempty"`
	Popularity    int             `json:"popularity"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (i CatalogItem) Price(m Mode) decimal.Decimal {
	if m == ModeRent {
		return i.RentPrice
	}
	return i.PurchasePrice
}

func (i CatalogItem) Stock(m Mode) int {
	if m == ModeRent {
		return i.RentStock
	}
	return i.PurchaseStock
}

// AdjustStock adds delta to the counter for m. A result below zero is rejected
// and leaves the item untouched.
func (i *CatalogItem) AdjustStock(m Mode, delta int) error {
	current := i.Stock(m)
	if current+delta < 0 {
		return &InsufficientStockError{ItemID: i.ID, Mode: m, Requested: -delta, Available: current}
	}
	if m == ModeRent {
		i.RentStock += delta
	} else {
		i.PurchaseStock += delta
	}
	return nil
}

// CatalogItemInput is the writable part of a CatalogItem.
type CatalogItemInput struct {
	Key           string          `json:"key"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	ReleaseYear   int             `json:"releaseYear"`
	Category      string          `json:"category"`
	Genres        []string        `json:"genres"`
	Rating        float64         `json:"rating"`
	RentPrice     decimal.Decimal `json:"rentPrice"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	RentStock     int             `json:"rentStock"`
	PurchaseStock int             `json:"purchaseStock"`
	ImageURL      string          `json:"imageUrl"`
	Popularity    int             `json:"popularity"`
}

// NewCatalogItem validates in and returns an item without an ID. The key
// defaults to a slug of the title.
func NewCatalogItem(in CatalogItemInput) (CatalogItem, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return CatalogItem{}, &ValidationError{Field: "title", Reason: "required"}
	}
	if in.RentPrice.IsNegative() {
		return CatalogItem{}, &ValidationError{Field: "rentPrice", Reason: "must not be negative"}
	}
	if in.PurchasePrice.IsNegative() {
		return CatalogItem{}, &ValidationError{Field: "purchasePrice", Reason: "must not be negative"}
	}
	if in.RentStock < 0 {
		return CatalogItem{}, &ValidationError{Field: "rentStock", Reason: "must not be negative"}
	}
	if in.PurchaseStock < 0 {
		return CatalogItem{}, &ValidationError{Field: "purchaseStock", Reason: "must not be negative"}
	}
	if in.Rating < 0 || in.Rating > 10 {
		return CatalogItem{}, &ValidationError{Field: "rating", Reason: "must be between 0 and 10"}
	}
	if in.ReleaseYear < 0 {
		return CatalogItem{}, &ValidationError{Field: "releaseYear", Reason: "must not be negative"}
	}

	key := slug.Make(strings.TrimSpace(in.Key))
	if key == "" {
		key = slug.Make(title)
	}
	genres := make([]string, 0, len(in.Genres))
	for _, g := range in.Genres {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}

	return CatalogItem{
		Key:           key,
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		ReleaseYear:   in.ReleaseYear,
		Category:      strings.TrimSpace(in.Category),
		Genres:        genres,
		Rating:        in.Rating,
		RentPrice:     in.RentPrice.Round(2),
		PurchasePrice: in.PurchasePrice.Round(2),
		RentStock:     in.RentStock,
		PurchaseStock: in.PurchaseStock,
		ImageURL:      strings.TrimSpace(in.ImageURL),
		Popularity:    in.Popularity,
	}, nil
}
