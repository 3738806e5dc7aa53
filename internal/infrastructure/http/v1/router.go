// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	appctx "zentropay/internal/core/context"
	"zentropay/internal/domain/auth"
	"zentropay/internal/domain/clients"
	"zentropay/internal/domain/invoices"
	"zentropay/internal/domain/payments"
	"zentropay/internal/domain/reports"
	"zentropay/internal/infrastructure/http/v1/handlers"
	"zentropay/internal/infrastructure/http/v1/middleware"
	"zentropay/internal/infrastructure/storage/postgres"
	"zentropay/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	JWTValidator middleware.JWTValidator

	AuthService    *auth.Service
	ClientService  *clients.Service
	InvoiceService *invoices.Service
	PaymentService *payments.Service
	ReportService  *reports.Service

	Company invoices.CompanyProfile
}

// NewRouter creates and configures the gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	base := handlers.NewBaseHandler()

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	authHandler := handlers.NewAuthHandler(base, cfg.AuthService)
	clientHandler := handlers.NewClientHandler(base, cfg.ClientService)
	invoiceHandler := handlers.NewInvoiceHandler(base, cfg.InvoiceService, cfg.ClientService, cfg.PaymentService, cfg.Company)
	paymentHandler := handlers.NewPaymentHandler(base, cfg.PaymentService)
	reportHandler := handlers.NewReportHandler(base, cfg.ReportService)

	v1 := router.Group("/api/v1")
	{
		// Public auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			// Register is public for client accounts; staff roles require
			// an authenticated admin, which the service enforces.
			authGroup.POST("/register", authHandler.Register)
		}

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		protected.POST("/auth/logout", authHandler.Logout)
		protected.GET("/auth/me", authHandler.Me)
		protected.GET("/auth/users", middleware.RequireRole(appctx.RoleAdmin), authHandler.ListUsers)

		// Staff routes: clients, invoices, payments, reports
		staff := protected.Group("")
		staff.Use(middleware.RequireStaff())
		{
			clientGroup := staff.Group("/clients")
			{
				clientGroup.POST("", clientHandler.Create)
				clientGroup.GET("", clientHandler.List)
				clientGroup.GET("/:id", clientHandler.GetByID)
				clientGroup.PUT("/:id", clientHandler.Update)
				clientGroup.DELETE("/:id", clientHandler.Delete)
				clientGroup.GET("/:id/balance", clientHandler.GetBalance)
			}

			invoiceGroup := staff.Group("/invoices")
			{
				invoiceGroup.POST("", invoiceHandler.Create)
				invoiceGroup.GET("", invoiceHandler.List)
				invoiceGroup.GET("/mine", invoiceHandler.ListMine)
				invoiceGroup.POST("/sweep-overdue", invoiceHandler.SweepOverdue)
				invoiceGroup.GET("/:id", invoiceHandler.GetByID)
				invoiceGroup.PUT("/:id", invoiceHandler.Update)
				invoiceGroup.DELETE("/:id", invoiceHandler.Delete)
				invoiceGroup.POST("/:id/send", invoiceHandler.MarkAsSent)
				invoiceGroup.POST("/:id/pay", invoiceHandler.MarkAsPaid)
				invoiceGroup.POST("/:id/cancel", invoiceHandler.Cancel)
				invoiceGroup.POST("/:id/duplicate", invoiceHandler.Duplicate)
				invoiceGroup.GET("/:id/document", invoiceHandler.Document)
				invoiceGroup.GET("/:id/payments", paymentHandler.ListByInvoice)
				invoiceGroup.GET("/:id/payments/summary", paymentHandler.Summary)
			}

			paymentGroup := staff.Group("/payments")
			{
				paymentGroup.POST("", paymentHandler.Record)
				paymentGroup.GET("", paymentHandler.List)
				paymentGroup.GET("/:id", paymentHandler.GetByID)
				paymentGroup.DELETE("/:id", paymentHandler.Delete)
			}

			reportGroup := staff.Group("/reports")
			{
				reportGroup.GET("/dashboard", reportHandler.Dashboard)
				reportGroup.GET("/revenue", reportHandler.Revenue)
				reportGroup.GET("/top-clients", reportHandler.TopClients)
			}
		}

		// Client portal: invoices billed to the authenticated client
		portal := protected.Group("/portal")
		portal.Use(middleware.RequireRole(appctx.RoleClient))
		{
			portal.GET("/invoices", invoiceHandler.PortalList)
			portal.GET("/invoices/:id", invoiceHandler.PortalGet)
			portal.GET("/invoices/:id/document", invoiceHandler.PortalDocument)
		}
	}

	return router
}
