// Package app wires the service together: storage, domain services,
// transports, and the HTTP server lifecycle.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/dukapos/dukapos/internal/auth"
	"github.com/dukapos/dukapos/internal/cache"
	"github.com/dukapos/dukapos/internal/domain/product"
	"github.com/dukapos/dukapos/internal/domain/sale"
	"github.com/dukapos/dukapos/internal/handler"
	"github.com/dukapos/dukapos/internal/notify"
	"github.com/dukapos/dukapos/internal/payment"
	"github.com/dukapos/dukapos/internal/report"
	"github.com/dukapos/dukapos/internal/storage/postgres"
	"github.com/dukapos/dukapos/pkg/health"
	"github.com/dukapos/dukapos/pkg/httpmiddleware"
)

// referenceLogCapacity sizes the bloom filter for repeated payment
// references. At one percent false positives this covers roughly a year
// of receipts for a busy shop.
const (
	referenceLogCapacity = 1_000_000
	referenceLogFPRate   = 0.01
)

// Run creates all dependencies, starts the HTTP server, and handles
// graceful shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadiness("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddLiveness("goroutines", time.Second, health.GoroutineCountCheck(10000))

	// Repositories.
	userRepo := postgres.NewUserRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	saleStore := postgres.NewSaleStore(pool)

	var (
		productRepo product.Repository = postgres.NewProductRepository(pool)
		invalidator handler.Invalidator
	)
	if cfg.Redis.Addr != "" {
		catalogCache := cache.NewCatalogCache(productRepo, cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		})
		defer func() { _ = catalogCache.Close() }()
		healthSvc.AddReadiness("redis", 2*time.Second, catalogCache.Ping)
		productRepo = catalogCache
		invalidator = catalogCache
	}

	healthSvc.SetReady(true)

	// Notification channels. Absent config disables a channel; the sale
	// workflow treats a nil notifier the same way.
	var notifier sale.Notifier
	if cfg.SMTP.Host != "" || cfg.SMS.AccountSID != "" {
		var email notify.EmailSender
		if cfg.SMTP.Host != "" {
			email = notify.NewSMTPSender(notify.SMTPConfig{
				Host:     cfg.SMTP.Host,
				Port:     cfg.SMTP.Port,
				Username: cfg.SMTP.Username,
				Password: cfg.SMTP.Password,
				From:     cfg.SMTP.From,
			})
		}
		var sms notify.SMSSender
		if cfg.SMS.AccountSID != "" {
			sms = notify.NewTwilioSender(notify.SMSConfig{
				AccountSID: cfg.SMS.AccountSID,
				AuthToken:  cfg.SMS.AuthToken,
				From:       cfg.SMS.From,
				BaseURL:    cfg.SMS.BaseURL,
			})
		}
		notifier = notify.NewCustomerNotifier(email, sms)
	}

	// Domain services.
	saleService := sale.NewService(customerRepo, saleStore, notifier,
		sale.NewReferenceLog(referenceLogCapacity, referenceLogFPRate))

	// Payment rails.
	var gateway *payment.Gateway
	if cfg.Airtel.ClientID != "" || cfg.Bank.APIKey != "" {
		gateway = payment.NewGateway()
		if cfg.Airtel.ClientID != "" {
			gateway.Register(payment.MethodAirtelMoney, payment.NewAirtelProvider(payment.AirtelConfig{
				ClientID:     cfg.Airtel.ClientID,
				ClientSecret: cfg.Airtel.ClientSecret,
				BaseURL:      cfg.Airtel.BaseURL,
				Currency:     cfg.Currency,
			}))
		}
		if cfg.Bank.APIKey != "" {
			gateway.Register(payment.MethodBank, payment.NewBankProvider(payment.BankConfig{
				APIKey:  cfg.Bank.APIKey,
				BaseURL: cfg.Bank.BaseURL,
			}))
		}
	}

	// HTTP handlers.
	metrics, err := handler.NewMetrics(m.MeterProvider().Meter("dukapos"))
	if err != nil {
		return errors.Wrap(err, "create metrics")
	}

	srv := handler.NewServer(handler.Config{
		Sales:     saleService,
		Products:  productRepo,
		Customers: customerRepo,
		Users:     userRepo,
		Tokens:    auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL),
		Payments:  gateway,
		Reports:   report.NewExporter(reportRepo, cfg.Currency),
		Cache:     invalidator,
	}, metrics)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", srv.Routes())

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			cors.Handler(cors.Options{
				AllowedOrigins:   cfg.CORS.Origins,
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Content-Type", "Authorization"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httprate.LimitByIP(cfg.RateLimit.Max, cfg.RateLimit.Window),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			func(next http.Handler) http.Handler {
				return otelhttp.NewHandler(next, "dukapos-api",
					otelhttp.WithTracerProvider(m.TracerProvider()),
					otelhttp.WithMeterProvider(m.MeterProvider()),
				)
			},
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
