// Command token mints bearer tokens for local testing.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"moviestore/internal/auth"
	"moviestore/internal/config"
	"moviestore/internal/domain"

	"github.com/joho/godotenv"
)

func main() {
	var (
		subject string
		admin   bool
		ttl     time.Duration
	)
	flag.StringVar(&subject, "sub", "", "User id to put in the token")
	flag.BoolVar(&admin, "admin", false, "Grant the admin role")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	flag.Parse()

	if subject == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "[token] ", log.LstdFlags|log.LUTC)
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("load .env: %v", err)
	}
	cfg := config.FromEnv()

	tokens, err := auth.NewTokens(cfg.JWTSecret)
	if err != nil {
		logger.Fatalf("init auth: %v", err)
	}
	tok, err := tokens.Issue(domain.Principal{UserID: subject, Admin: admin}, ttl)
	if err != nil {
		logger.Fatalf("issue token: %v", err)
	}
	fmt.Println(tok)
}
