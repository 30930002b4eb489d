package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/helsby/invoicer/internal"
	"github.com/helsby/invoicer/internal/billing"
	"github.com/helsby/invoicer/internal/email"
	"github.com/helsby/invoicer/internal/handler"
	"github.com/helsby/invoicer/internal/handler/webhook"
	"github.com/helsby/invoicer/internal/markup"
	"github.com/helsby/invoicer/internal/middleware"
	"github.com/helsby/invoicer/internal/pdf"
	"github.com/helsby/invoicer/internal/postgres"
	"github.com/helsby/invoicer/internal/router"
	"github.com/helsby/invoicer/internal/service"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info().Msg("connecting to database")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	logger.Info().Msg("running database migrations")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Initialize pgx connection pool for the application
	pool, err := postgres.NewPool(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Stores
	invoiceStore := postgres.NewInvoiceStore(pool)
	templateStore := postgres.NewTemplateStore(pool)
	orderStore := postgres.NewOrderStore(pool)
	companyStore := postgres.NewCompanyStore(pool)

	// Stripe billing provider
	stripeConfig := billing.StripeConfig{
		APIKey:        cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}
	billingProvider, err := billing.NewStripeProvider(stripeConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize Stripe provider: %w", err)
	}
	logger.Info().Bool("test_mode", stripeConfig.IsTestMode()).Msg("stripe billing provider initialized")

	// Email sender
	var sender email.Sender
	switch cfg.Email.Provider {
	case "smtp":
		sender = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.Host,
			Port:     int(cfg.Email.Port),
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		}, logger)
	default:
		sender = email.NewContactSender(email.ContactConfig{
			BaseURL:              cfg.Contact.URL,
			APIKey:               cfg.Contact.APIKey,
			DefaultCredentialID:  cfg.Contact.CredentialID,
			DefaultCredentialKey: cfg.Contact.CredentialKey,
		})
	}
	logger.Info().Str("provider", cfg.Email.Provider).Msg("email sender initialized")

	// Rendering pipeline: placeholder engine plus headless Chrome with retries
	engine := markup.New(markup.Options{
		PayBaseURL: cfg.PaymentServiceURL,
		AppBaseURL: cfg.BaseURL,
	})
	chromeConfig := pdf.ChromeConfig{
		Timeout:   time.Duration(cfg.Render.TimeoutSeconds) * time.Second,
		NoSandbox: cfg.Render.NoSandbox,
	}
	renderer := pdf.NewRenderer(func() (pdf.Engine, error) {
		return pdf.NewChromeEngine(chromeConfig)
	}, pdf.RendererConfig{
		Attempts: cfg.Render.Attempts,
		Delay:    time.Duration(cfg.Render.DelaySeconds) * time.Second,
	}, logger)

	// Invoice service
	invoiceService := service.NewInvoiceService(service.Deps{
		Invoices:    invoiceStore,
		Templates:   templateStore,
		Orders:      orderStore,
		Companies:   companyStore,
		Engine:      engine,
		Renderer:    renderer,
		Payments:    billingProvider,
		Links:       billing.NewLinkBuilder(cfg.PaymentServiceURL),
		Sender:      sender,
		FrontendURL: cfg.FrontendURL,
		Logger:      logger,
	})

	// Handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	stripeWebhookHandler := webhook.NewStripeHandler(billingProvider, invoiceService, cfg.Stripe.WebhookSecret, logger)

	// Prometheus metrics
	metrics := middleware.NewMetrics("invoicer")

	r := router.New(
		router.Recovery(logger),
		middleware.RequestID,
		metrics.Middleware,
		middleware.MaxBodySize(middleware.DefaultMaxBodySize),
		middleware.Timeout(middleware.DefaultTimeout),
		router.CORS([]string{cfg.FrontendURL}),
		middleware.WithRequestLogger(logger),
	)

	// Metrics endpoint (protect via firewall in production)
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) {
		metrics.Handler().ServeHTTP(w, req)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	invoiceHandler.RegisterRoutes(r)
	r.Post("/webhooks/stripe", stripeWebhookHandler.HandleWebhook)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info().Str("address", addr).Msg("starting invoice service")

	if err := http.ListenAndServe(addr, r); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
