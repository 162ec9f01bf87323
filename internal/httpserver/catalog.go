package httpserver

import (
	"net/http"
	"strings"

	"moviestore/internal/domain"
	catalogrepo "moviestore/internal/repository/catalog"

	"github.com/gin-gonic/gin"
)

func (h *handlers) listCatalog(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	search := c.Query("search")
	if search == "" {
		search = c.Query("q")
	}
	f := catalogrepo.ListFilter{
		Search:   search,
		Category: c.Query("category"),
		Genre:    c.Query("genre"),
		Sort:     c.Query("sort"),
		Desc:     strings.EqualFold(c.Query("order"), "desc"),
		Page:     page,
		Limit:    limit,
	}
	res, err := h.deps.Catalog.List(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if res.Items == nil {
		res.Items = []domain.CatalogItem{}
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) categories(c *gin.Context) {
	cats, err := h.deps.Catalog.Categories(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (h *handlers) getCatalogItem(c *gin.Context) {
	item, err := h.deps.Catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *handlers) createCatalogItem(c *gin.Context) {
	var in domain.CatalogItemInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.deps.Catalog.Create(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *handlers) updateCatalogItem(c *gin.Context) {
	var in domain.CatalogItemInput
	if !bindJSON(c, &in) {
		return
	}
	item, err := h.deps.Catalog.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *handlers) deleteCatalogItem(c *gin.Context) {
	if err := h.deps.Catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
