package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/mstgnz/nepalpay/handler"
	"github.com/mstgnz/nepalpay/infra/config"
	"github.com/mstgnz/nepalpay/infra/events"
	"github.com/mstgnz/nepalpay/infra/logger"
	"github.com/mstgnz/nepalpay/infra/middle"
	"github.com/mstgnz/nepalpay/infra/opensearch"
	"github.com/mstgnz/nepalpay/provider"
	"github.com/mstgnz/nepalpay/router"
)

var providerIDs = []string{
	string(provider.Esewa),
	string(provider.Khalti),
	string(provider.ConnectIPS),
	string(provider.ImePay),
	string(provider.PrabhuPay),
	string(provider.GlobalIME),
}

func main() {
	// a missing .env is fine, the process environment is used as is
	_ = godotenv.Load(".env")
	cfg := config.GetAppConfig()

	var auditLogger *opensearch.Logger
	if cfg.EnableLogging {
		osClient, err := opensearch.NewClient(cfg, providerIDs...)
		if err != nil {
			logger.InitGlobalLogger(nil)
			logger.Warn("OpenSearch unavailable, continuing without audit logging", logger.LogContext{
				Fields: map[string]any{"error": err.Error()},
			})
		} else {
			auditLogger = opensearch.NewLogger(osClient)
			logger.InitGlobalLogger(auditLogger)
			logger.Info("OpenSearch logging initialized")
		}
	} else {
		logger.InitGlobalLogger(nil)
	}

	settings := config.NewProviderConfig()
	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		logger.Fatal("Failed to create data directory", err)
	}
	storage, err := config.NewSQLiteStorage(cfg.SQLitePath)
	if err != nil {
		logger.Fatal("Failed to open provider settings store", err)
	}
	defer storage.Close()
	if err := settings.AttachStorage(storage); err != nil {
		logger.Fatal("Failed to load stored provider settings", err)
	}
	settings.LoadFromEnv(providerIDs...)

	// one notifier for every rebuilt service so subscriptions survive reloads
	notifier := events.NewNotifier(events.WithAsync())
	defer notifier.Wait()

	opts := []provider.Option{provider.WithNotifier(notifier)}
	if auditLogger != nil {
		opts = append(opts, provider.WithPaymentLogger(auditLogger))
		for _, name := range events.Names {
			_, _ = notifier.Subscribe(name, func(ctx context.Context, e events.Event) {
				if err := auditLogger.LogPaymentEvent(ctx, e); err != nil {
					logger.Warn("Failed to store payment event", logger.LogContext{
						Provider:      e.Provider,
						RequestID:     e.RequestID,
						TransactionID: e.TransactionID,
						Fields:        map[string]any{"error": err.Error(), "event": e.Name},
					})
				}
			})
		}
	}

	build := func(c provider.Config) (*provider.PaymentService, error) {
		return provider.NewPaymentService(c, opts...)
	}
	live, err := handler.NewLiveService(build, provider.ConfigFromMap(settings.All()))
	if err != nil {
		logger.Fatal("Failed to configure payment providers", err)
	}
	if len(live.Providers()) == 0 {
		logger.Warn("No payment providers configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middle.RequestIDMiddleware())
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.RateLimitMiddleware(middle.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)))
	r.Use(middle.RequestValidationMiddleware(router.CallbackPrefix))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", middle.RequestIDHeader},
		ExposedHeaders:   []string{"Content-Length", middle.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300, // Preflight cache time (second)
	}))

	deps := router.Deps{
		Service:      live,
		Settings:     settings,
		APIKey:       cfg.APIKey,
		AuditEnabled: auditLogger != nil,
	}
	if auditLogger != nil {
		deps.Logs = auditLogger
	}
	router.Routes(r, deps)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           r,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", err)
		}
	}()

	logger.Info("API is running", logger.LogContext{Fields: map[string]any{
		"port":      cfg.Port,
		"providers": live.Providers(),
	}})

	<-ctx.Done()
	logger.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", err)
	}
}
