package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"moviestore/internal/domain"

	"github.com/shopspring/decimal"
)

type CatalogWriter interface {
	Upsert(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error)
}

// CSVImporter reads catalog CSV files and inserts or updates items by key.
//
// Expected header: key,title,description,release_year,category,genres,rating,
// rent_price,purchase_price,rent_stock,purchase_stock,image_url,popularity.
// Genres are separated by ";". A row with an empty key and title adds its
// genres to the previous item.
type CSVImporter struct {
	reader *csv.Reader
	repo   CatalogWriter
}

func NewCSVImporter(r io.Reader, repo CatalogWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{reader: csvr, repo: repo}
}

type csvRow struct {
	line  int
	input domain.CatalogItemInput
}

// Run parses CSV rows and upserts one catalog item per keyed row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["title"]; !ok {
		return 0, errors.New("read headers: title column is required")
	}

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		if row == nil {
			continue
		}
		row.line = line

		if row.input.Title != "" || row.input.Key != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows carry extra genres for the current item.
		if current != nil {
			current.input.Genres = append(current.input.Genres, row.input.Genres...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	item, err := domain.NewCatalogItem(row.input)
	if err != nil {
		return fmt.Errorf("row %d: %w", row.line, err)
	}
	if _, err := i.repo.Upsert(ctx, item); err != nil {
		return fmt.Errorf("upsert item %q: %w", item.Key, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	return idx
}

// parseRow returns nil for blank rows.
func parseRow(record []string, index map[string]int) (*csvRow, error) {
	in := domain.CatalogItemInput{
		Key:         pick(record, index, "key"),
		Title:       pick(record, index, "title"),
		Description: pick(record, index, "description"),
		Category:    pick(record, index, "category"),
		ImageURL:    pick(record, index, "image_url"),
		Genres:      splitGenres(pick(record, index, "genres")),
	}
	if in.Key == "" && in.Title == "" {
		if len(in.Genres) == 0 {
			return nil, nil
		}
		return &csvRow{input: in}, nil
	}

	var err error
	if in.ReleaseYear, err = pickInt(record, index, "release_year"); err != nil {
		return nil, err
	}
	if in.RentStock, err = pickInt(record, index, "rent_stock"); err != nil {
		return nil, err
	}
	if in.PurchaseStock, err = pickInt(record, index, "purchase_stock"); err != nil {
		return nil, err
	}
	if in.Popularity, err = pickInt(record, index, "popularity"); err != nil {
		return nil, err
	}
	if in.RentPrice, err = pickDecimal(record, index, "rent_price"); err != nil {
		return nil, err
	}
	if in.PurchasePrice, err = pickDecimal(record, index, "purchase_price"); err != nil {
		return nil, err
	}
	if raw := pick(record, index, "rating"); raw != "" {
		if in.Rating, err = strconv.ParseFloat(raw, 64); err != nil {
			return nil, fmt.Errorf("rating: %w", err)
		}
	}
	return &csvRow{input: in}, nil
}

func splitGenres(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, g := range strings.Split(raw, ";") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func pickInt(record []string, index map[string]int, key string) (int, error) {
	raw := pick(record, index, key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func pickDecimal(record []string, index map[string]int, key string) (decimal.Decimal, error) {
	raw := pick(record, index, key)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
