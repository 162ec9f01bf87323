package main

import (
	"context"
	"errors"
	"log"
	"os"

	"moviestore/internal/config"
	"moviestore/internal/db"
	catalogrepo "moviestore/internal/repository/catalog"
	"moviestore/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}
	cfg := config.FromEnv()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	n, err := seed.Apply(ctx, catalogrepo.NewPostgres(pool, logger))
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied: %d items", n)
}
