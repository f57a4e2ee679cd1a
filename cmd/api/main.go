package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	coreport "github.com/p4cs-974/verse-billing/internal/domain/port/core"
	"github.com/p4cs-974/verse-billing/internal/domain/usecase/billing"
	"github.com/p4cs-974/verse-billing/internal/domain/usecase/pricing"
	"github.com/p4cs-974/verse-billing/internal/domain/usecase/reporting"

	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/api/handler"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/api/routes"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/database"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/idgen"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/logger"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/metrics"
	timeProvider "github.com/p4cs-974/verse-billing/internal/infrastructure/adapter/time"
	"github.com/p4cs-974/verse-billing/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(cfg.Environment == config.Production)
	defer func() { _ = appLogger.Flush() }()

	// Database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
		LogLevel:        cfg.Logger.Level,
	}

	tp := timeProvider.NewRealTimeProvider()

	conn, err := database.NewConnection(dbConfig, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer func() { _ = conn.Close() }()

	if err := database.Migrate(conn.DB); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	// Core adapters
	idGen, err := idgen.NewSnowflakeGenerator(cfg.Billing.SnowflakeNodeID)
	if err != nil {
		appLogger.Error("Failed to create id generator", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	billingMetrics := metrics.NewBillingMetrics(registry)

	uow := database.NewUnitOfWork(conn.DB, appLogger, tp)

	// Use cases
	billingCfg := billing.Config{
		SignupCreditCents:    cfg.Billing.SignupCreditCents,
		BonusPercent:         cfg.Billing.FirstTopupBonusPercent,
		BonusCapCents:        cfg.Billing.FirstTopupBonusCapCents,
		FeeBps:               cfg.Billing.PlatformFeeBps,
		MaxAmountCents:       cfg.Billing.MaxAmountCents,
		MaxCASRetries:        cfg.Billing.MaxConcurrencyRetries,
		IdempotencyRetention: time.Duration(cfg.Billing.IdempotencyRetentionDays) * 24 * time.Hour,
	}

	billingService := billing.NewService(billingCfg, uow, idGen, tp, appLogger, billingMetrics)
	catalog := pricing.NewCatalog(uow, idGen, tp, appLogger)
	reporter := reporting.NewReporter(uow, idGen, tp, appLogger)

	// Background purge of expired idempotency keys
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go runIdempotencyJanitor(janitorCtx, billingService, cfg.Billing.PurgeInterval, appLogger)

	// HTTP
	billingHandler := handler.NewBillingHandler(billingService, appLogger)
	adminHandler := handler.NewAdminHandler(billingService, catalog, reporter, appLogger)

	router := gin.New()
	routes.SetupMiddlewares(router, appLogger)
	routes.SetupRoutes(router, billingHandler, adminHandler, cfg.Admin.Token, registry)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		appLogger.Info("Starting server", map[string]any{
			"port": cfg.Server.Port,
			"env":  cfg.Environment,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)
	stopJanitor()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{"error": err.Error()})
	}

	appLogger.Info("Server exited gracefully", nil)
}

// runIdempotencyJanitor periodically purges expired idempotency keys
func runIdempotencyJanitor(ctx context.Context, svc *billing.Service, interval time.Duration, appLogger coreport.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.PurgeExpiredIdempotencyKeys(ctx); err != nil {
				appLogger.Error("Idempotency purge failed", map[string]any{"error": err.Error()})
			}
		}
	}
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}
	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}
	if cfg.Database.Host == "" {
		missingConfigs = append(missingConfigs, "database.host (or VB_DB_HOST environment variable)")
	}
	if cfg.Database.Username == "" {
		missingConfigs = append(missingConfigs, "database.username (or VB_DB_USERNAME environment variable)")
	}
	if cfg.Database.Database == "" {
		missingConfigs = append(missingConfigs, "database.database (or VB_DB_NAME environment variable)")
	}
	if cfg.Billing.PlatformFeeBps < 0 {
		missingConfigs = append(missingConfigs, "billing.platformFeeBps")
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missingConfigs, ", "))
	}
	return nil
}
