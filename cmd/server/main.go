package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"tuition-backend/internal/cache"
	"tuition-backend/internal/config"
	"tuition-backend/internal/database"
	"tuition-backend/internal/db"
	"tuition-backend/internal/handlers"
	"tuition-backend/internal/health"
	h "tuition-backend/internal/http"
	"tuition-backend/internal/middleware"
	"tuition-backend/internal/monitoring"
	"tuition-backend/internal/repositories"
	"tuition-backend/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	memory := flag.Bool("memory", false, "Run on the in-memory store (no database)")
	flag.Parse()

	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// Connect to PostgreSQL unless running in memory mode. A connection
	// failure falls back to the in-memory store so the service stays
	// usable for local development and demos.
	var pool *pgxpool.Pool
	if !*memory {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		p, err := db.Connect(ctx, cfg)
		cancel()
		if err != nil {
			log.Printf("[DB] Connection failed: %v", err)
			log.Printf("[DB] Falling back to in-memory store (data will not persist)")
		} else {
			pool = p
			defer pool.Close()
			log.Printf("[DB] Connected to %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
		}
	}

	// Redis cache is optional; everything degrades gracefully without it
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	var feeStore repositories.FeeStore
	var paymentStore repositories.PaymentStore
	if pool != nil {
		migrator := database.NewMigrator(pool, "migrations")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := migrator.RunMigrations(ctx)
		cancel()
		if err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		feeStore = repositories.NewFeeRepository(pool)
		paymentStore = repositories.NewPaymentRepository(pool)
	} else {
		store := repositories.NewMemoryStore()
		feeStore = store.Fees()
		paymentStore = store.Payments()
	}

	healthChecker := health.NewHealthChecker(pool)

	ledgerService := services.NewLedgerService(feeStore, paymentStore)
	analyticsService := services.NewAnalyticsService(feeStore, paymentStore)
	receiptService := services.NewReceiptService(ledgerService, cfg.Institute.Name)
	reportService := services.NewReportService(feeStore, paymentStore, cfg.Institute.Name)

	if cfg.Monitoring.Enabled {
		monitor := monitoring.NewMonitoringServer(pool, cfg.Monitoring.Port)
		analyticsService.SetAlerter(monitor, cfg.Analytics.OverdueAlertThreshold)
		go monitor.Start()
	}

	feeHandler := handlers.NewFeeHandler(ledgerService)
	paymentHandler := handlers.NewPaymentHandler(ledgerService, receiptService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	reportHandler := handlers.NewReportHandler(reportService)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	router := h.NewRouter(
		feeHandler,
		paymentHandler,
		analyticsHandler,
		reportHandler,
		healthHandler,
	)

	corsMiddleware := middleware.NewCORS(cfg)
	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(corsMiddleware(router)))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("[Server] Listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
