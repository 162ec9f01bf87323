package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(strings.ToLower(strings.TrimSpace(s))) {
	case OrderPending:
		return OrderPending, nil
	case OrderCompleted:
		return OrderCompleted, nil
	case OrderCancelled:
		return OrderCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Order is a settled checkout. Lines are frozen copies of the cart at checkout time.
type Order struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Lines       []OrderLine     `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Status      OrderStatus     `json:"status"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type OrderLine struct {
	ItemID       string          `json:"itemId"`
	Title        string          `json:"title"`
	Mode         Mode            `json:"mode"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	LineSubtotal decimal.Decimal `json:"lineSubtotal"`
}

// NewOrderLine snapshots a cart line. The unit price is the one captured in the
// cart, not the item's current price.
func NewOrderLine(item CatalogItem, line CartLine) OrderLine {
	return OrderLine{
		ItemID:       item.ID,
		Title:        item.Title,
		Mode:         line.Mode,
		Quantity:     line.Quantity,
		UnitPrice:    line.UnitPriceAtAdd,
		LineSubtotal: line.Subtotal(),
	}
}

// NewOrder builds a completed order with a fresh ID and a total equal to the
// sum of the line subtotals.
func NewOrder(userID string, lines []OrderLine, now time.Time) (Order, error) {
	if strings.TrimSpace(userID) == "" {
		return Order{}, &ValidationError{Field: "userId", Reason: "required"}
	}
	if len(lines) == 0 {
		return Order{}, &EmptyCartError{UserID: userID}
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.LineSubtotal)
	}
	return Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		Lines:       append([]OrderLine(nil), lines...),
		TotalAmount: total,
		Status:      OrderCompleted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (o Order) Clone() Order {
	out := o
	out.Lines = append([]OrderLine(nil), o.Lines...)
	return out
}

// Principal is the authenticated caller as supplied by the auth layer.
type Principal struct {
	UserID string
	Admin  bool
}

// CanView reports whether p may read o.
func (p Principal) CanView(o Order) bool {
	return p.Admin || (p.UserID != "" && p.UserID == o.UserID)
}
