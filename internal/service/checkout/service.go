package checkout

import (
	"context"
	"errors"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"moviestore/internal/domain"
	"moviestore/internal/repository/txn"
	"moviestore/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type txRunner interface {
	WithinTx(ctx context.Context, fn func(txn.Stores) error) error
}

// Service turns a user's cart into an order. Stock decrements, the order
// insert and the cart reset share one transaction.
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
		tracer: telemetry.Tracer("moviestore/checkout"),
		now:    time.Now,
	}
}

// Checkout validates the whole cart before touching stock. It fails with
// EmptyCartError, ItemNotFoundError or InsufficientStockError, in that order
// of precedence, and leaves storage unchanged on any error.
func (s *Service) Checkout(ctx context.Context, userID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.run", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		err := &domain.ValidationError{Field: "userId", Reason: "required"}
		telemetry.RecordError(span, err)
		return nil, err
	}

	var order domain.Order
	err := s.tx.WithinTx(ctx, func(st txn.Stores) error {
		c, err := st.Carts.GetOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		if c.IsEmpty() {
			return &domain.EmptyCartError{UserID: userID}
		}
		span.SetAttributes(attribute.Int("cart.lines", len(c.Lines)))

		items, err := lockItems(ctx, st, c.Lines)
		if err != nil {
			return err
		}
		for _, line := range c.Lines {
			if _, ok := items[line.ItemID]; !ok {
				return &domain.ItemNotFoundError{ItemID: line.ItemID}
			}
		}
		for _, line := range c.Lines {
			if available := items[line.ItemID].Stock(line.Mode); line.Quantity > available {
				return &domain.InsufficientStockError{
					ItemID:    line.ItemID,
					Mode:      line.Mode,
					Requested: line.Quantity,
					Available: available,
				}
			}
		}

		lines := make([]domain.OrderLine, 0, len(c.Lines))
		for _, line := range c.Lines {
			if err := st.Catalog.DecrementStock(ctx, line.ItemID, line.Mode, line.Quantity); err != nil {
				return err
			}
			lines = append(lines, domain.NewOrderLine(items[line.ItemID], line))
		}

		order, err = domain.NewOrder(userID, lines, s.now())
		if err != nil {
			return err
		}
		if err := st.Orders.Create(ctx, order); err != nil {
			return err
		}
		c.Clear()
		return st.Carts.Save(ctx, c)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Printf("checkout: user_id=%s error=%v", userID, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("order.total", order.TotalAmount.String()),
	)
	s.logger.Printf("checkout: user_id=%s order_id=%s lines=%d total=%s", userID, order.ID, len(order.Lines), order.TotalAmount)
	return &order, nil
}

// lockItems locks every referenced item in ascending id order so two
// checkouts sharing items cannot deadlock. Missing items are left out of the
// result.
func lockItems(ctx context.Context, st txn.Stores, lines []domain.CartLine) (map[string]domain.CatalogItem, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if !seen[l.ItemID] {
			seen[l.ItemID] = true
			ids = append(ids, l.ItemID)
		}
	}
	sort.Strings(ids)

	items := make(map[string]domain.CatalogItem, len(ids))
	for _, id := range ids {
		item, err := st.Catalog.GetForUpdate(ctx, id)
		if err != nil {
			var missing *domain.ItemNotFoundError
			if errors.As(err, &missing) {
				continue
			}
			return nil, err
		}
		items[id] = *item
	}
	return items, nil
}
