package httpserver

import (
	"errors"
	"net/http"

	"moviestore/internal/domain"

	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func abortWithError(c *gin.Context, status int, code, message string, details map[string]any) {
	c.AbortWithStatusJSON(status, errorBody{Error: errorPayload{Code: code, Message: message, Details: details}})
}

func (h *handlers) writeError(c *gin.Context, err error) {
	status, code, details := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Printf("http: %s %s error=%v", c.Request.Method, c.FullPath(), err)
		msg = "internal error"
	}
	abortWithError(c, status, code, msg, details)
}

// classify maps service errors onto an HTTP status and a stable error code.
// Typed errors are checked before the sentinels they wrap.
func classify(err error) (int, string, map[string]any) {
	var (
		stock      *domain.InsufficientStockError
		empty      *domain.EmptyCartError
		notInCart  *domain.ItemNotInCartError
		missing    *domain.ItemNotFoundError
		noOrder    *domain.OrderNotFoundError
		validation *domain.ValidationError
	)
	switch {
	case errors.As(err, &stock):
		return http.StatusConflict, "INSUFFICIENT_STOCK", map[string]any{
			"itemId":    stock.ItemID,
			"mode":      stock.Mode,
			"requested": stock.Requested,
			"available": stock.Available,
		}
	case errors.As(err, &empty):
		return http.StatusBadRequest, "EMPTY_CART", nil
	case errors.As(err, &notInCart):
		return http.StatusNotFound, "ITEM_NOT_IN_CART", map[string]any{"itemId": notInCart.ItemID, "mode": notInCart.Mode}
	case errors.As(err, &missing):
		return http.StatusNotFound, "ITEM_NOT_FOUND", map[string]any{"itemId": missing.ItemID}
	case errors.As(err, &noOrder):
		return http.StatusNotFound, "ORDER_NOT_FOUND", map[string]any{"orderId": noOrder.OrderID}
	case errors.As(err, &validation):
		return http.StatusBadRequest, "VALIDATION", map[string]any{"field": validation.Field}
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest, "INVALID_QUANTITY", nil
	case errors.Is(err, domain.ErrInvalidMode):
		return http.StatusBadRequest, "INVALID_MODE", nil
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest, "INVALID_STATUS", nil
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "VALIDATION", nil
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN", nil
	case errors.Is(err, domain.ErrItemInUse), errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "CONFLICT", nil
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", nil
	default:
		return http.StatusInternalServerError, "INTERNAL", nil
	}
}
