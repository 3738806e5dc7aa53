// Package main is the entry point for the zentropay overdue sweeper.
// Intended to run on a schedule (cron); a single pass marks every pending
// invoice past its due date as overdue and prunes stale refresh tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"zentropay/internal/domain/clients"
	"zentropay/internal/domain/invoices"
	"zentropay/internal/infrastructure/numerator"
	"zentropay/internal/infrastructure/storage/postgres"
	"zentropay/internal/infrastructure/storage/postgres/auth_repo"
	"zentropay/internal/infrastructure/storage/postgres/client_repo"
	"zentropay/internal/infrastructure/storage/postgres/invoice_repo"
	"zentropay/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	clientService := clients.NewService(client_repo.New(txManager), txManager)
	invoiceService := invoices.NewService(
		invoice_repo.New(txManager),
		numerator.New(txManager),
		txManager,
		clientService,
	)

	count, err := invoiceService.MarkOverdueInvoices(ctx, time.Now())
	if err != nil {
		log.Fatalw("overdue sweep failed", "error", err)
	}
	log.Infow("overdue sweep complete", "marked_overdue", count)

	tokenRepo := auth_repo.NewTokenRepo(txManager)
	removed, err := tokenRepo.CleanupExpiredTokens(ctx)
	if err != nil {
		log.Warnw("token cleanup failed", "error", err)
	} else {
		log.Infow("token cleanup complete", "removed", removed)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
