package domain

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Cart belongs to exactly one user and holds at most one line per (item, mode).
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Lines     []CartLine `json:"lines"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CartLine keeps the price seen when the line was first added.
type CartLine struct {
	ItemID         string          `json:"itemId"`
	Mode           Mode            `json:"mode"`
	Quantity       int             `json:"quantity"`
	UnitPriceAtAdd decimal.Decimal `json:"unitPriceAtAdd"`
	AddedAt        time.Time       `json:"addedAt"`
}

func NewCartLine(itemID string, mode Mode, quantity int, unitPrice decimal.Decimal, addedAt time.Time) (CartLine, error) {
	if strings.TrimSpace(itemID) == "" {
		return CartLine{}, &ValidationError{Field: "itemId", Reason: "required"}
	}
	if !mode.Valid() {
		return CartLine{}, ErrInvalidMode
	}
	if quantity < 1 {
		return CartLine{}, ErrInvalidQuantity
	}
	if unitPrice.IsNegative() {
		return CartLine{}, &ValidationError{Field: "unitPrice", Reason: "must not be negative"}
	}
	return CartLine{
		ItemID:         itemID,
		Mode:           mode,
		Quantity:       quantity,
		UnitPriceAtAdd: unitPrice,
		AddedAt:        addedAt,
	}, nil
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPriceAtAdd.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (c *Cart) index(itemID string, mode Mode) int {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID && c.Lines[i].Mode == mode {
			return i
		}
	}
	return -1
}

// Quantity returns the quantity of the (item, mode) line, or 0.
func (c *Cart) Quantity(itemID string, mode Mode) int {
	if i := c.index(itemID, mode); i >= 0 {
		return c.Lines[i].Quantity
	}
	return 0
}

// Add merges line into an existing (item, mode) line by summing quantities.
// The existing unit price is kept. A sum that does not fit an int is rejected
// and leaves the cart unchanged.
func (c *Cart) Add(line CartLine) error {
	if line.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if i := c.index(line.ItemID, line.Mode); i >= 0 {
		if line.Quantity > math.MaxInt-c.Lines[i].Quantity {
			return ErrInvalidQuantity
		}
		c.Lines[i].Quantity += line.Quantity
		return nil
	}
	c.Lines = append(c.Lines, line)
	return nil
}

func (c *Cart) SetQuantity(itemID string, mode Mode, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	i := c.index(itemID, mode)
	if i < 0 {
		return &ItemNotInCartError{ItemID: itemID, Mode: mode}
	}
	c.Lines[i].Quantity = quantity
	return nil
}

func (c *Cart) Remove(itemID string, mode Mode) error {
	i := c.index(itemID, mode)
	if i < 0 {
		return &ItemNotInCartError{ItemID: itemID, Mode: mode}
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c Cart) TotalItems() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

func (c Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

// Clone returns a copy whose line slice is not shared with c.
func (c Cart) Clone() Cart {
	out := c
	if c.Lines != nil {
		out.Lines = append([]CartLine(nil), c.Lines...)
	}
	return out
}
