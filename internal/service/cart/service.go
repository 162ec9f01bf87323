package cart

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"strings"
	"time"

	"moviestore/internal/domain"
	catalogrepo "moviestore/internal/repository/catalog"
	"moviestore/internal/repository/txn"
	"moviestore/internal/telemetry"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type txRunner interface {
	WithinTx(ctx context.Context, fn func(txn.Stores) error) error
}

// Service implements the cart operations. Each call is one transaction that
// holds the cart lock, so concurrent calls for the same user serialise.
type Service struct {
	tx     txRunner
	logger *log.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func New(tx txRunner, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		tx:     tx,
		logger: logger,
		tracer: telemetry.Tracer("moviestore/cart"),
		now:    time.Now,
	}
}

// View is a cart with display data resolved from the catalog.
type View struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Lines      []LineView      `json:"lines"`
	TotalItems int             `json:"totalItems"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

type LineView struct {
	domain.CartLine
	Title        string          `json:"title"`
	ImageURL     string          `json:"imageUrl,omitempty"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	Available    int             `json:"available"`
	LineSubtotal decimal.Decimal `json:"lineSubtotal"`
}

func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "cart.get", userID, func(context.Context, txn.Stores, *domain.Cart) (bool, error) {
		return false, nil
	})
}

func (s *Service) AddItem(ctx context.Context, userID, itemID, mode string, quantity int) (*View, error) {
	m, err := validateLine(userID, itemID, mode)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	return s.mutate(ctx, "cart.add_item", userID, func(ctx context.Context, st txn.Stores, c *domain.Cart) (bool, error) {
		item, err := st.Catalog.GetByID(ctx, itemID)
		if err != nil {
			return false, err
		}
		existing, available := c.Quantity(item.ID, m), item.Stock(m)
		if quantity > available-existing {
			requested := math.MaxInt
			if quantity <= math.MaxInt-existing {
				requested = existing + quantity
			}
			return false, &domain.InsufficientStockError{ItemID: item.ID, Mode: m, Requested: requested, Available: available}
		}
		line, err := domain.NewCartLine(item.ID, m, quantity, item.Price(m), s.now())
		if err != nil {
			return false, err
		}
		if err := c.Add(line); err != nil {
			return false, err
		}
		return true, nil
	})
}

// UpdateItemQuantity sets an existing line's quantity. Zero is rejected;
// removal goes through RemoveItem.
func (s *Service) UpdateItemQuantity(ctx context.Context, userID, itemID, mode string, quantity int) (*View, error) {
	m, err := validateLine(userID, itemID, mode)
	if err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}
	return s.mutate(ctx, "cart.update_quantity", userID, func(ctx context.Context, st txn.Stores, c *domain.Cart) (bool, error) {
		if c.Quantity(itemID, m) == 0 {
			return false, &domain.ItemNotInCartError{ItemID: itemID, Mode: m}
		}
		item, err := st.Catalog.GetByID(ctx, itemID)
		if err != nil {
			return false, err
		}
		if available := item.Stock(m); quantity > available {
			return false, &domain.InsufficientStockError{ItemID: item.ID, Mode: m, Requested: quantity, Available: available}
		}
		return true, c.SetQuantity(itemID, m, quantity)
	})
}

func (s *Service) RemoveItem(ctx context.Context, userID, itemID, mode string) (*View, error) {
	m, err := validateLine(userID, itemID, mode)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "cart.remove_item", userID, func(_ context.Context, _ txn.Stores, c *domain.Cart) (bool, error) {
		return true, c.Remove(itemID, m)
	})
}

// Clear empties the cart. It succeeds for empty and never-used carts.
func (s *Service) Clear(ctx context.Context, userID string) (*View, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, "cart.clear", userID, func(_ context.Context, _ txn.Stores, c *domain.Cart) (bool, error) {
		if c.IsEmpty() {
			return false, nil
		}
		c.Clear()
		return true, nil
	})
}

type mutation func(ctx context.Context, st txn.Stores, c *domain.Cart) (changed bool, err error)

func (s *Service) mutate(ctx context.Context, op, userID string, fn mutation) (*View, error) {
	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	var view *View
	err := s.tx.WithinTx(ctx, func(st txn.Stores) error {
		c, err := st.Carts.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		changed, err := fn(ctx, st, c)
		if err != nil {
			return err
		}
		if changed {
			if err := st.Carts.Save(ctx, c); err != nil {
				return err
			}
		}
		view, err = buildView(ctx, st.Catalog, c)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Printf("cart: %s user_id=%s error=%v", op, userID, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("cart.lines", len(view.Lines)))
	return view, nil
}

func buildView(ctx context.Context, items catalogrepo.Repository, c *domain.Cart) (*View, error) {
	view := &View{
		ID:         c.ID,
		UserID:     c.UserID,
		Lines:      make([]LineView, 0, len(c.Lines)),
		TotalItems: c.TotalItems(),
		Subtotal:   c.Subtotal(),
		UpdatedAt:  c.UpdatedAt,
	}
	for _, line := range c.Lines {
		lv := LineView{CartLine: line, LineSubtotal: line.Subtotal()}
		item, err := items.GetByID(ctx, line.ItemID)
		switch {
		case err == nil:
			lv.Title = item.Title
			lv.ImageURL = item.ImageURL
			lv.CurrentPrice = item.Price(line.Mode)
			lv.Available = item.Stock(line.Mode)
		case errors.Is(err, domain.ErrNotFound):
			// line stays visible without display data
		default:
			return nil, err
		}
		view.Lines = append(view.Lines, lv)
	}
	return view, nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return &domain.ValidationError{Field: "userId", Reason: "required"}
	}
	return nil
}

func validateLine(userID, itemID, mode string) (domain.Mode, error) {
	if err := requireUser(userID); err != nil {
		return "", err
	}
	m, err := domain.ParseMode(mode)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(itemID) == "" {
		return "", &domain.ValidationError{Field: "itemId", Reason: "required"}
	}
	return m, nil
}
