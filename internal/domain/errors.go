package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrForbidden indicates the actor lacks the capability for the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is the parent of every input validation failure.
	ErrValidation = errors.New("validation failed")
	// ErrItemInUse is returned when deleting a catalog item still referenced by carts or orders.
	ErrItemInUse = errors.New("catalog item is referenced by carts or orders")

	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInvalidMode       = errors.New("mode must be rent or purchase")
	ErrInvalidStatus     = errors.New("status must be pending, completed or cancelled")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type EmptyCartError struct {
	UserID string
}

func (e *EmptyCartError) Error() string {
	return fmt.Sprintf("cart of user %s is empty", e.UserID)
}

func (e *EmptyCartError) Is(target error) bool { return target == ErrEmptyCart }

// ItemNotFoundError names a catalog item that does not exist (any more).
type ItemNotFoundError struct {
	ItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("catalog item %s not found", e.ItemID)
}

func (e *ItemNotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientStockError carries enough detail to render "available X, requested Y".
type InsufficientStockError struct {
	ItemID    string
	Mode      Mode
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient %s stock for item %s: available %d, requested %d", e.Mode, e.ItemID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

type ItemNotInCartError struct {
	ItemID string
	Mode   Mode
}

func (e *ItemNotInCartError) Error() string {
	return fmt.Sprintf("item %s (%s) is not in the cart", e.ItemID, e.Mode)
}

func (e *ItemNotInCartError) Is(target error) bool { return target == ErrNotFound }

type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}

func (e *OrderNotFoundError) Is(target error) bool { return target == ErrNotFound }
