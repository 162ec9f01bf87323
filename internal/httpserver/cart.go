package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ItemID   string `json:"itemId"`
	Mode     string `json:"mode"`
	Quantity int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *handlers) getCart(c *gin.Context) {
	view, err := h.deps.Cart.Get(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) addCartItem(c *gin.Context) {
	var req addItemRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.deps.Cart.AddItem(c.Request.Context(), principal(c).UserID, req.ItemID, req.Mode, req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req quantityRequest
	if !bindJSON(c, &req) {
		return
	}
	view, err := h.deps.Cart.UpdateItemQuantity(c.Request.Context(), principal(c).UserID, c.Param("itemId"), c.Param("mode"), req.Quantity)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) removeCartItem(c *gin.Context) {
	view, err := h.deps.Cart.RemoveItem(c.Request.Context(), principal(c).UserID, c.Param("itemId"), c.Param("mode"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) clearCart(c *gin.Context) {
	view, err := h.deps.Cart.Clear(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
