package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"moviestore/internal/domain"
	catalogrepo "moviestore/internal/repository/catalog"
	cartsvc "moviestore/internal/service/cart"
	catalogsvc "moviestore/internal/service/catalog"
	ordersvc "moviestore/internal/service/order"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type CatalogService interface {
	List(ctx context.Context, f catalogrepo.ListFilter) (*catalogsvc.Page, error)
	Get(ctx context.Context, id string) (*domain.CatalogItem, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, in domain.CatalogItemInput) (*domain.CatalogItem, error)
	Update(ctx context.Context, id string, in domain.CatalogItemInput) (*domain.CatalogItem, error)
	Delete(ctx context.Context, id string) error
}

type CartService interface {
	Get(ctx context.Context, userID string) (*cartsvc.View, error)
	AddItem(ctx context.Context, userID, itemID, mode string, quantity int) (*cartsvc.View, error)
	UpdateItemQuantity(ctx context.Context, userID, itemID, mode string, quantity int) (*cartsvc.View, error)
	RemoveItem(ctx context.Context, userID, itemID, mode string) (*cartsvc.View, error)
	Clear(ctx context.Context, userID string) (*cartsvc.View, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, userID string) (*domain.Order, error)
}

type OrderService interface {
	History(ctx context.Context, userID string) ([]domain.Order, error)
	Get(ctx context.Context, orderID string, actor domain.Principal) (*domain.Order, error)
	List(ctx context.Context, in ordersvc.ListInput, actor domain.Principal) (*ordersvc.Page, error)
	SetStatus(ctx context.Context, orderID, status string, actor domain.Principal) (*domain.Order, error)
}

// TokenVerifier turns a bearer token into the calling principal.
type TokenVerifier interface {
	Verify(token string) (domain.Principal, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps wires the services behind the routes.
type Deps struct {
	Catalog  CatalogService
	Cart     CartService
	Checkout CheckoutService
	Orders   OrderService
	Tokens   TokenVerifier
	Health   Pinger
}

// Options tunes cross-cutting middleware. A zero RatePerMinute disables rate limiting.
type Options struct {
	CORSOrigins   []string
	RatePerMinute int
	RateBurst     int
}

// buildRouter wires routes for the API.
func buildRouter(logger *log.Logger, deps Deps, opts Options) (*gin.Engine, error) {
	if deps.Catalog == nil || deps.Cart == nil || deps.Checkout == nil || deps.Orders == nil {
		return nil, errors.New("httpserver: catalog, cart, checkout and order services are required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("httpserver: token verifier is required")
	}
	if logger == nil {
		logger = logDiscard()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(opts.CORSOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Health))

	h := &handlers{deps: deps, logger: logger}
	limit := rateLimit(newLimiterSet(opts.RatePerMinute, opts.RateBurst))
	authed := authMiddleware(deps.Tokens)

	api := router.Group("/api")

	catalog := api.Group("/catalog")
	catalog.GET("", h.listCatalog)
	catalog.GET("/categories", h.categories)
	catalog.GET("/:id", h.getCatalogItem)
	catalogAdmin := catalog.Group("", authed, requireAdmin())
	catalogAdmin.POST("", h.createCatalogItem)
	catalogAdmin.PUT("/:id", h.updateCatalogItem)
	catalogAdmin.DELETE("/:id", h.deleteCatalogItem)

	cart := api.Group("/cart", authed)
	cart.GET("", h.getCart)
	cart.POST("/items", limit, h.addCartItem)
	cart.PUT("/items/:itemId/:mode", limit, h.updateCartItem)
	cart.DELETE("/items/:itemId/:mode", limit, h.removeCartItem)
	cart.DELETE("", limit, h.clearCart)

	api.POST("/checkout", authed, limit, h.checkout)

	orders := api.Group("/orders", authed)
	orders.GET("/mine", h.orderHistory)
	orders.GET("/:id", h.getOrder)
	orders.GET("", requireAdmin(), h.listOrders)
	orders.PUT("/:id/status", requireAdmin(), h.setOrderStatus)

	return router, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func logDiscard() *log.Logger {
	return log.New(io.Discard, "", 0)
}
