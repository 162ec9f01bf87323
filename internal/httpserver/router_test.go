package httpserver

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"moviestore/internal/domain"

	"github.com/gin-gonic/gin"
)

type stubVerifier struct {
	principal domain.Principal
	err       error
}

func (s *stubVerifier) Verify(_ string) (domain.Principal, error) {
	return s.principal, s.err
}

func serveWithAuth(t *testing.T, verifier TokenVerifier, header string, extra ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handlers := append([]gin.HandlerFunc{authMiddleware(verifier)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		if principal(c).UserID == "" {
			t.Fatalf("expected principal in context")
		}
		c.Status(http.StatusOK)
	})
	router.GET("/test", handlers...)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_Success(t *testing.T) {
	rec := serveWithAuth(t, &stubVerifier{principal: domain.Principal{UserID: "u1"}}, "Bearer abc")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rec := serveWithAuth(t, &stubVerifier{}, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_WrongScheme(t *testing.T) {
	rec := serveWithAuth(t, &stubVerifier{principal: domain.Principal{UserID: "u1"}}, "Basic abc")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	rec := serveWithAuth(t, &stubVerifier{err: errors.New("expired")}, "Bearer abc")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	rec := serveWithAuth(t, &stubVerifier{principal: domain.Principal{UserID: "u1"}}, "Bearer abc", requireAdmin())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
	rec = serveWithAuth(t, &stubVerifier{principal: domain.Principal{UserID: "root", Admin: true}}, "Bearer abc", requireAdmin())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRateLimit_PerUserBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	set := newLimiterSet(1, 2)
	router := gin.New()
	router.POST("/act", func(c *gin.Context) {
		c.Set(principalKey, domain.Principal{UserID: c.Query("u")})
		c.Next()
	}, rateLimit(set), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 4)
	for _, user := range []string{"a", "a", "a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/act?u="+user, nil))
		codes = append(codes, rec.Code)
	}
	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusOK}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("request %d: expected %d, got %d (all %v)", i, want[i], codes[i], codes)
		}
	}
}

func TestRateLimit_EvictsIdleUsers(t *testing.T) {
	set := newLimiterSet(60, 2)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	set.now = func() time.Time { return clock }

	set.get("a")
	b := set.get("b")
	clock = clock.Add(30 * time.Second)
	set.get("b")
	clock = clock.Add(40 * time.Second)
	set.get("c")

	if len(set.limiters) != 2 {
		t.Fatalf("expected idle user to be evicted, have %d limiters", len(set.limiters))
	}
	if _, ok := set.limiters["a"]; ok {
		t.Fatalf("expected limiter for idle user a to be dropped")
	}
	if set.get("b") != b {
		t.Fatalf("expected active user b to keep its limiter")
	}
}

func TestRateLimit_DisabledWhenZero(t *testing.T) {
	if newLimiterSet(0, 5) != nil {
		t.Fatalf("expected nil limiter set for zero rate")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&domain.EmptyCartError{UserID: "u"}, http.StatusBadRequest, "EMPTY_CART"},
		{&domain.InsufficientStockError{ItemID: "i", Mode: domain.ModeRent, Requested: 2, Available: 1}, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{&domain.ItemNotFoundError{ItemID: "i"}, http.StatusNotFound, "ITEM_NOT_FOUND"},
		{&domain.ItemNotInCartError{ItemID: "i", Mode: domain.ModeRent}, http.StatusNotFound, "ITEM_NOT_IN_CART"},
		{&domain.OrderNotFoundError{OrderID: "o"}, http.StatusNotFound, "ORDER_NOT_FOUND"},
		{&domain.ValidationError{Field: "title", Reason: "required"}, http.StatusBadRequest, "VALIDATION"},
		{domain.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
		{domain.ErrInvalidMode, http.StatusBadRequest, "INVALID_MODE"},
		{domain.ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{domain.ErrItemInUse, http.StatusConflict, "CONFLICT"},
		{domain.ErrAlreadyExists, http.StatusConflict, "CONFLICT"},
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tc := range cases {
		status, code, _ := classify(tc.err)
		if status != tc.status || code != tc.code {
			t.Fatalf("%v: expected %d %s, got %d %s", tc.err, tc.status, tc.code, status, code)
		}
	}
}
