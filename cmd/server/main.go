// Package main is the entry point for the zentropay API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zentropay/internal/domain"
	"zentropay/internal/domain/auth"
	"zentropay/internal/domain/clients"
	"zentropay/internal/domain/invoices"
	"zentropay/internal/domain/payments"
	"zentropay/internal/domain/reports"
	v1 "zentropay/internal/infrastructure/http/v1"
	"zentropay/internal/infrastructure/numerator"
	"zentropay/internal/infrastructure/storage/postgres"
	"zentropay/internal/infrastructure/storage/postgres/auth_repo"
	"zentropay/internal/infrastructure/storage/postgres/client_repo"
	"zentropay/internal/infrastructure/storage/postgres/invoice_repo"
	"zentropay/internal/infrastructure/storage/postgres/payment_repo"
	"zentropay/internal/infrastructure/storage/postgres/report_repo"
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

	ctx := context.Background()
	log.Info("starting zentropay server")

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	numeratorService := numerator.New(txManager)

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	// --- Repositories ---
	clientRepo := client_repo.New(txManager)
	invoiceRepo := invoice_repo.New(txManager)
	paymentRepo := payment_repo.New(txManager)
	reportRepo := report_repo.New(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)
	tokenRepo := auth_repo.NewTokenRepo(txManager)

	// --- Services ---
	clientService := clients.NewService(clientRepo, txManager)
	invoiceService := invoices.NewService(invoiceRepo, numeratorService, txManager, clientService)
	paymentService := payments.NewService(paymentRepo, invoiceService, numeratorService, txManager)
	reportService := reports.NewService(reportRepo, txManager)

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))
	authService := auth.NewService(userRepo, tokenRepo, txManager, jwtService, auth.DefaultServiceConfig())

	registerAuditHooks(auditService, clientService, invoiceService, paymentService)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		Logger:         log,
		JWTValidator:   jwtService,
		AuthService:    authService,
		ClientService:  clientService,
		InvoiceService: invoiceService,
		PaymentService: paymentService,
		ReportService:  reportService,
		Company:        companyFromEnv(),
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// registerAuditHooks wires entity lifecycle events into the audit log.
func registerAuditHooks(
	audit *postgres.AuditService,
	clientService *clients.Service,
	invoiceService *invoices.Service,
	paymentService *payments.Service,
) {
	clientService.Hooks().On(domain.AfterCreate, func(ctx context.Context, c *clients.Client) error {
		return audit.LogChange(ctx, "client", c.ID, postgres.AuditActionCreate, c)
	})
	clientService.Hooks().On(domain.AfterUpdate, func(ctx context.Context, c *clients.Client) error {
		return audit.LogChange(ctx, "client", c.ID, postgres.AuditActionUpdate, c)
	})
	clientService.Hooks().On(domain.AfterDelete, func(ctx context.Context, c *clients.Client) error {
		return audit.LogChange(ctx, "client", c.ID, postgres.AuditActionDelete, nil)
	})

	invoiceService.Hooks().On(domain.AfterCreate, func(ctx context.Context, inv *invoices.Invoice) error {
		return audit.LogChange(ctx, "invoice", inv.ID, postgres.AuditActionCreate, inv)
	})
	invoiceService.Hooks().On(domain.AfterUpdate, func(ctx context.Context, inv *invoices.Invoice) error {
		return audit.LogChange(ctx, "invoice", inv.ID, postgres.AuditActionUpdate, inv)
	})
	invoiceService.Hooks().On(domain.AfterStatusChange, func(ctx context.Context, inv *invoices.Invoice) error {
		return audit.LogChange(ctx, "invoice", inv.ID, postgres.AuditActionStatusChange, map[string]any{
			"status":  inv.Status,
			"sent_at": inv.SentAt,
			"paid_at": inv.PaidAt,
		})
	})
	invoiceService.Hooks().On(domain.AfterDelete, func(ctx context.Context, inv *invoices.Invoice) error {
		return audit.LogChange(ctx, "invoice", inv.ID, postgres.AuditActionDelete, nil)
	})

	paymentService.Hooks().On(domain.AfterCreate, func(ctx context.Context, p *payments.Payment) error {
		return audit.LogChange(ctx, "payment", p.ID, postgres.AuditActionPayment, p)
	})
	paymentService.Hooks().On(domain.AfterDelete, func(ctx context.Context, p *payments.Payment) error {
		return audit.LogChange(ctx, "payment", p.ID, postgres.AuditActionDelete, nil)
	})
}

// companyFromEnv reads the issuing-company profile printed on documents.
func companyFromEnv() invoices.CompanyProfile {
	return invoices.CompanyProfile{
		Name:       getEnv("COMPANY_NAME", "Zentropay"),
		Address:    os.Getenv("COMPANY_ADDRESS"),
		City:       os.Getenv("COMPANY_CITY"),
		Country:    os.Getenv("COMPANY_COUNTRY"),
		PostalCode: os.Getenv("COMPANY_POSTAL_CODE"),
		Email:      os.Getenv("COMPANY_EMAIL"),
		Phone:      os.Getenv("COMPANY_PHONE"),
		TaxID:      os.Getenv("COMPANY_TAX_ID"),
		Website:    os.Getenv("COMPANY_WEBSITE"),
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
