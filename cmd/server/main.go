package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"dairy-backend/internal/auth"
	"dairy-backend/internal/cache"
	"dairy-backend/internal/config"
	"dairy-backend/internal/database"
	"dairy-backend/internal/db"
	"dairy-backend/internal/handlers"
	dhttp "dairy-backend/internal/http"
	"dairy-backend/internal/middleware"
	"dairy-backend/internal/monitoring"
	"dairy-backend/internal/repositories"
	"dairy-backend/internal/services"
	"dairy-backend/internal/storage"
)

func main() {
	cfg := config.Load()

	pool := db.Connect(cfg)
	defer pool.Close()
	log.Printf("Connected to database: %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	// Redis cache is optional; summary lookups fall back to Postgres.
	if err := cache.Init(); err != nil {
		log.Printf("[Redis] Cache unavailable: %v (summary reads will hit the database)", err)
	} else {
		log.Println("[Redis] Cache connected successfully")
	}

	log.Println("Running database migrations...")
	migrator := database.NewMigrator(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := migrator.RunMigrations(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to run migrations: %v", err)
	}
	cancel()

	jwtManager := auth.NewJWTManager(cfg)

	// Repositories
	userRepo := repositories.NewUserRepository(pool)
	farmerRepo := repositories.NewFarmerRepository(pool)
	profileRepo := repositories.NewCreditProfileRepository(pool)
	ledgerRepo := repositories.NewCreditTransactionRepository(pool)
	requestRepo := repositories.NewCreditRequestRepository(pool)
	collectionRepo := repositories.NewCollectionRepository(pool)
	approvalRepo := repositories.NewMilkApprovalRepository(pool)
	summaryRepo := repositories.NewCollectorSummaryRepository(pool)
	paymentRepo := repositories.NewCollectorPaymentRepository(pool)
	settingRepo := repositories.NewSystemSettingRepository(pool)
	repaymentRepo := repositories.NewOnlineRepaymentRepository(pool)

	// Live dashboard hub; reconciliation runs broadcast their results here.
	hub := monitoring.NewHub()
	statsHandler := monitoring.NewStatsHandler(pool)

	// Services
	creditService := services.NewCreditService(profileRepo, ledgerRepo, requestRepo, settingRepo)
	approvalService := services.NewApprovalService(approvalRepo, collectionRepo, summaryRepo, settingRepo,
		cfg.Credit.VarianceTolerancePercent, cfg.Credit.PenaltyRatePerLiter)
	collectionService := services.NewCollectionService(collectionRepo, farmerRepo)
	reconciliationService := services.NewReconciliationService(collectionRepo, approvalRepo, approvalService, hub)
	farmerService := services.NewFarmerService(farmerRepo, profileRepo, cfg)
	paymentService := services.NewCollectorPaymentService(paymentRepo, summaryRepo, settingRepo, cfg.Credit.CollectorRatePerLiter)
	settingService := services.NewSystemSettingService(settingRepo)
	userService := services.NewUserService(userRepo, jwtManager)
	totpService := services.NewTOTPService(userRepo)
	razorpayService := services.NewRazorpayService(
		cfg.Razorpay.KeyID,
		cfg.Razorpay.KeySecret,
		cfg.Razorpay.WebhookSecret,
		repaymentRepo,
		creditService,
		settingRepo,
	)

	// R2 statement archival is optional; statements still stream to the
	// caller when the bucket is not configured.
	var statementService *services.StatementService
	if r2, err := storage.NewR2Storage(context.Background(), cfg); err != nil {
		log.Printf("[Storage] Statement archival disabled: %v", err)
		statementService = services.NewStatementService(paymentRepo, summaryRepo, creditService, farmerRepo, nil)
	} else {
		log.Printf("[Storage] R2 statement archival enabled (bucket %s)", cfg.R2.Bucket)
		statementService = services.NewStatementService(paymentRepo, summaryRepo, creditService, farmerRepo, r2)
	}

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	corsMiddleware := middleware.NewCORS(cfg)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, totpService)
	farmerHandler := handlers.NewFarmerHandler(farmerService)
	collectionHandler := handlers.NewCollectionHandler(collectionService, approvalService)
	reconciliationHandler := handlers.NewReconciliationHandler(reconciliationService)
	creditHandler := handlers.NewCreditHandler(creditService, totpService, userService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, statementService)
	razorpayHandler := handlers.NewRazorpayHandler(razorpayService)
	settingHandler := handlers.NewSystemSettingHandler(settingService)
	totpHandler := handlers.NewTOTPHandler(totpService, userService)
	healthHandler := handlers.NewHealthHandler(pool)

	router := dhttp.NewRouter(
		authHandler,
		farmerHandler,
		collectionHandler,
		reconciliationHandler,
		creditHandler,
		paymentHandler,
		razorpayHandler,
		settingHandler,
		totpHandler,
		healthHandler,
		statsHandler,
		hub,
		authMiddleware,
	)

	handler := middleware.PanicRecovery(
		middleware.MetricsMiddleware(
			middleware.RequestLogging(
				corsMiddleware(router),
			),
		),
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Server running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
