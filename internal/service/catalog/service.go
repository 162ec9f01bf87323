package catalog

import (
	"context"
	"io"
	"log"
	"strings"

	"moviestore/internal/domain"
	catalogrepo "moviestore/internal/repository/catalog"
)

type Service struct {
	repo   catalogrepo.Repository
	logger *log.Logger
}

func New(repo catalogrepo.Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, logger: logger}
}

// Page is one page of a catalog listing.
type Page struct {
	Items []domain.CatalogItem `json:"items"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
	Pages int                  `json:"pages"`
}

func (s *Service) List(ctx context.Context, f catalogrepo.ListFilter) (*Page, error) {
	f = f.Normalize()
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page{
		Items: items,
		Total: total,
		Page:  f.Page,
		Limit: f.Limit,
		Pages: (total + f.Limit - 1) / f.Limit,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.CatalogItem, error) {
	return s.repo.GetByID(ctx, strings.TrimSpace(id))
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.repo.Categories(ctx)
}

func (s *Service) Create(ctx context.Context, in domain.CatalogItemInput) (*domain.CatalogItem, error) {
	item, err := domain.NewCatalogItem(in)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("catalog: created id=%s key=%s", created.ID, created.Key)
	return created, nil
}

// Update replaces every writable field of the item. Existing carts keep the
// prices they captured.
func (s *Service) Update(ctx context.Context, id string, in domain.CatalogItemInput) (*domain.CatalogItem, error) {
	item, err := domain.NewCatalogItem(in)
	if err != nil {
		return nil, err
	}
	item.ID = strings.TrimSpace(id)
	updated, err := s.repo.Update(ctx, item)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("catalog: updated id=%s", updated.ID)
	return updated, nil
}

// Delete fails with domain.ErrItemInUse while carts or orders reference the item.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(id)); err != nil {
		return err
	}
	s.logger.Printf("catalog: deleted id=%s", id)
	return nil
}
