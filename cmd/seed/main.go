// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	appctx "zentropay/internal/core/context"
	"zentropay/internal/core/id"
	"zentropay/internal/core/types"
	"zentropay/internal/domain/clients"
	"zentropay/internal/domain/invoices"
	"zentropay/internal/domain/payments"
	"zentropay/internal/infrastructure/numerator"
	"zentropay/internal/infrastructure/storage/postgres"
	"zentropay/internal/infrastructure/storage/postgres/client_repo"
	"zentropay/internal/infrastructure/storage/postgres/invoice_repo"
	"zentropay/internal/infrastructure/storage/postgres/payment_repo"
	"zentropay/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	adminID, err := seedAdminUser(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, pool, log, adminID); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@zentropay.io"
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	// Check if admin already exists
	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1`,
		adminEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", adminEmail, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check admin exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, is_active, version)
		VALUES ($1, $2, $3, 'System Admin', $4, true, 1)
	`, userID, adminEmail, string(passwordHash), appctx.RoleAdmin)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert admin user: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", userID)
	return userID, nil
}

func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger, adminID id.ID) error {
	log.Info("seeding demo data...")

	txManager := postgres.NewTxManager(pool)
	numeratorService := numerator.New(txManager)

	clientService := clients.NewService(client_repo.New(txManager), txManager)
	invoiceService := invoices.NewService(invoice_repo.New(txManager), numeratorService, txManager, clientService)
	paymentService := payments.NewService(payment_repo.New(txManager), invoiceService, numeratorService, txManager)

	createdBy := adminID.String()

	acme := clients.NewClient("Acme Corp", "billing@acme.example", createdBy)
	acme.CompanyName = "Acme Corporation"
	acme.Address = "1 Industrial Way"
	acme.City = "Springfield"
	acme.Country = "US"
	acme.CreditLimit = types.MustMoney("10000.00")
	if err := clientService.Create(ctx, acme); err != nil {
		return fmt.Errorf("seed client acme: %w", err)
	}

	wayne := clients.NewClient("Wayne Enterprises", "ap@wayne.example", createdBy)
	wayne.CompanyName = "Wayne Enterprises Ltd"
	wayne.City = "Gotham"
	wayne.Country = "US"
	wayne.CreditLimit = types.MustMoney("25000.00")
	if err := clientService.Create(ctx, wayne); err != nil {
		return fmt.Errorf("seed client wayne: %w", err)
	}

	now := time.Now().UTC()

	// Pending invoice for Acme: consulting plus support, due in 30 days.
	inv1 := invoices.NewInvoice(acme.ID, now, now.AddDate(0, 0, 30), createdBy)
	inv1.Status = invoices.StatusPending
	inv1.Notes = "Monthly services"
	inv1.AddItem(invoices.Item{
		Description: "Consulting hours",
		Quantity:    types.NewQuantityFromFloat64(20),
		UnitPrice:   types.MustMoney("150.00"),
		TaxRate:     types.MustMoney("10"),
	})
	inv1.AddItem(invoices.Item{
		Description:  "Support retainer",
		Quantity:     types.NewQuantityFromFloat64(1),
		UnitPrice:    types.MustMoney("500.00"),
		TaxRate:      types.MustMoney("10"),
		DiscountRate: types.MustMoney("5"),
	})
	if err := invoiceService.Create(ctx, inv1); err != nil {
		return fmt.Errorf("seed invoice 1: %w", err)
	}

	// Invoice for Wayne, paid in full right away.
	inv2 := invoices.NewInvoice(wayne.ID, now, now.AddDate(0, 0, 14), createdBy)
	inv2.Status = invoices.StatusPending
	inv2.AddItem(invoices.Item{
		Description:  "Platform licence",
		Quantity:     types.NewQuantityFromFloat64(2),
		UnitPrice:    types.MustMoney("100.00"),
		TaxRate:      types.MustMoney("10"),
		DiscountRate: types.MustMoney("5"),
	})
	if err := invoiceService.Create(ctx, inv2); err != nil {
		return fmt.Errorf("seed invoice 2: %w", err)
	}

	pay := payments.NewPayment(inv2.ID, inv2.TotalAmount, payments.MethodBankTransfer, createdBy)
	pay.Reference = "DEMO-0001"
	if err := paymentService.Record(ctx, pay); err != nil {
		return fmt.Errorf("seed payment: %w", err)
	}

	// Recording does not flip the status; mark it paid explicitly.
	if _, err := invoiceService.MarkAsPaid(ctx, inv2.ID); err != nil {
		return fmt.Errorf("seed mark paid: %w", err)
	}

	log.Infow("demo data seeded",
		"clients", 2,
		"invoices", 2,
		"payments", 1,
	)
	return nil
}
