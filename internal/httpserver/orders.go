package httpserver

import (
	"net/http"
	"time"

	"moviestore/internal/domain"
	ordersvc "moviestore/internal/service/order"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// orderResponse is the checkout confirmation and order detail payload.
type orderResponse struct {
	OrderID     string             `json:"orderId"`
	UserID      string             `json:"userId"`
	Items       []domain.OrderLine `json:"items"`
	TotalAmount decimal.Decimal    `json:"totalAmount"`
	Status      domain.OrderStatus `json:"status"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

func toOrderResponse(o domain.Order) orderResponse {
	items := o.Lines
	if items == nil {
		items = []domain.OrderLine{}
	}
	return orderResponse{
		OrderID:     o.ID,
		UserID:      o.UserID,
		Items:       items,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOrderResponses(orders []domain.Order) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *handlers) checkout(c *gin.Context) {
	o, err := h.deps.Checkout.Checkout(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(*o))
}

func (h *handlers) orderHistory(c *gin.Context) {
	orders, err := h.deps.Orders.History(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": toOrderResponses(orders)})
}

func (h *handlers) getOrder(c *gin.Context) {
	o, err := h.deps.Orders.Get(c.Request.Context(), c.Param("id"), principal(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*o))
}

func (h *handlers) listOrders(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	res, err := h.deps.Orders.List(c.Request.Context(), ordersvc.ListInput{
		UserID: c.Query("userId"),
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	}, principal(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"orders": toOrderResponses(res.Orders),
		"total":  res.Total,
		"page":   res.Page,
		"limit":  res.Limit,
		"pages":  res.Pages,
	})
}

func (h *handlers) setOrderStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	o, err := h.deps.Orders.SetStatus(c.Request.Context(), c.Param("id"), req.Status, principal(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(*o))
}
