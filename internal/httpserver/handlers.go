package httpserver

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type handlers struct {
	deps   Deps
	logger *log.Logger
}

// bindJSON decodes the body and answers 400 itself on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWithError(c, http.StatusBadRequest, "VALIDATION", "invalid request body: "+err.Error(), nil)
		return false
	}
	return true
}

// queryInt reads an optional integer query parameter. It answers 400 itself on a malformed value.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "VALIDATION", name+" must be an integer", map[string]any{"field": name})
		return 0, false
	}
	return v, true
}
