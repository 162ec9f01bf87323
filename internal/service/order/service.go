package order

import (
	"context"
	"io"
	"log"
	"slices"
	"strings"

	"moviestore/internal/domain"
	orderrepo "moviestore/internal/repository/order"
	"moviestore/internal/repository/txn"
	"moviestore/internal/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type storage interface {
	WithinTx(ctx context.Context, fn func(txn.Stores) error) error
	Stores() txn.Stores
}

type Service struct {
	store  storage
	logger *log.Logger
	tracer trace.Tracer
}

func New(store storage, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{store: store, logger: logger, tracer: telemetry.Tracer("moviestore/order")}
}

// SetStatus changes an order's status. Only admins may call it. Moving an
// order into cancelled from any other status returns its quantities to stock
// in the same transaction; cancelling twice restores nothing the second time.
func (s *Service) SetStatus(ctx context.Context, orderID, status string, actor domain.Principal) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.set_status", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status", status),
		attribute.String("actor.id", actor.UserID),
	))
	defer span.End()

	if !actor.Admin {
		telemetry.RecordError(span, domain.ErrForbidden)
		return nil, domain.ErrForbidden
	}
	next, err := domain.ParseOrderStatus(status)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var result domain.Order
	err = s.store.WithinTx(ctx, func(st txn.Stores) error {
		o, err := st.Orders.GetForUpdate(ctx, strings.TrimSpace(orderID))
		if err != nil {
			return err
		}
		prev := o.Status
		if next == domain.OrderCancelled && prev != domain.OrderCancelled {
			for _, l := range restockOrder(o.Lines) {
				if err := st.Catalog.IncrementStock(ctx, l.ItemID, l.Mode, l.Quantity); err != nil {
					return err
				}
			}
			span.SetAttributes(attribute.Bool("stock.restored", true))
		}
		if prev != next {
			if err := st.Orders.UpdateStatus(ctx, o.ID, next); err != nil {
				return err
			}
		}
		o.Status = next
		result = *o
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Printf("order: set status id=%s status=%s error=%v", orderID, next, err)
		return nil, err
	}
	s.logger.Printf("order: set status id=%s status=%s actor=%s", result.ID, next, actor.UserID)
	return &result, nil
}

// restockOrder sorts lines by item id, the order checkout locks items in, so
// a cancel and a checkout sharing items cannot deadlock.
func restockOrder(lines []domain.OrderLine) []domain.OrderLine {
	out := slices.Clone(lines)
	slices.SortStableFunc(out, func(a, b domain.OrderLine) int {
		return strings.Compare(a.ItemID, b.ItemID)
	})
	return out
}

// History returns the user's orders, newest first.
func (s *Service) History(ctx context.Context, userID string) ([]domain.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, &domain.ValidationError{Field: "userId", Reason: "required"}
	}
	orders, err := s.store.Stores().Orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// Get returns an order to its owner or to an admin.
func (s *Service) Get(ctx context.Context, orderID string, actor domain.Principal) (*domain.Order, error) {
	o, err := s.store.Stores().Orders.GetByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return nil, err
	}
	if !actor.CanView(*o) {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

type ListInput struct {
	UserID string
	Status string
	Page   int
	Limit  int
}

type Page struct {
	Orders []domain.Order `json:"orders"`
	Total  int            `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
	Pages  int            `json:"pages"`
}

// List is the admin view over all orders.
func (s *Service) List(ctx context.Context, in ListInput, actor domain.Principal) (*Page, error) {
	if !actor.Admin {
		return nil, domain.ErrForbidden
	}
	f := orderrepo.ListFilter{UserID: strings.TrimSpace(in.UserID), Page: in.Page, Limit: in.Limit}
	if strings.TrimSpace(in.Status) != "" {
		status, err := domain.ParseOrderStatus(in.Status)
		if err != nil {
			return nil, err
		}
		f.Status = status
	}
	f = f.Normalize()

	orders, total, err := s.store.Stores().Orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return &Page{
		Orders: orders,
		Total:  total,
		Page:   f.Page,
		Limit:  f.Limit,
		Pages:  (total + f.Limit - 1) / f.Limit,
	}, nil
}
