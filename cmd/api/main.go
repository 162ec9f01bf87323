package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"moviestore/internal/auth"
	"moviestore/internal/config"
	"moviestore/internal/db"
	"moviestore/internal/httpserver"
	"moviestore/internal/repository/memory"
	"moviestore/internal/repository/txn"
	"moviestore/internal/seed"
	cartsvc "moviestore/internal/service/cart"
	catalogsvc "moviestore/internal/service/catalog"
	checkoutsvc "moviestore/internal/service/checkout"
	ordersvc "moviestore/internal/service/order"
	"moviestore/internal/telemetry"

	"github.com/joho/godotenv"
)

type store interface {
	Stores() txn.Stores
	WithinTx(ctx context.Context, fn func(txn.Stores) error) error
	Ping(ctx context.Context) error
}

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}
	cfg := config.FromEnv()

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{ServiceName: cfg.ServiceName, Endpoint: cfg.OTLPEndpoint}, logger)
	if err != nil {
		logger.Fatalf("init tracing: %v", err)
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret)
	if err != nil {
		logger.Fatalf("init auth: %v", err)
	}

	var st store
	switch cfg.Storage {
	case config.StorageMemory:
		mem := memory.New()
		n, err := seed.Apply(ctx, mem.Stores().Catalog)
		if err != nil {
			logger.Fatalf("seed memory store: %v", err)
		}
		logger.Printf("using in-memory storage with %d demo items", n)
		st = mem
	default:
		dbpool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer dbpool.Close()
		st = txn.NewPostgres(dbpool, logger)
	}

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Catalog:  catalogsvc.New(st.Stores().Catalog, logger),
		Cart:     cartsvc.New(st, logger),
		Checkout: checkoutsvc.New(st, logger),
		Orders:   ordersvc.New(st, logger),
		Tokens:   tokens,
		Health:   st,
	}, httpserver.Options{
		CORSOrigins:   cfg.CORSOrigins,
		RatePerMinute: cfg.RatePerMinute,
		RateBurst:     cfg.RateBurst,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
	if err := shutdownTracing(ctx); err != nil {
		logger.Printf("flush traces: %v", err)
	}
}
