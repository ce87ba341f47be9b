package main

import (
	"context"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/karibuapp/payout/config"
	"github.com/karibuapp/payout/internal/auth"
	"github.com/karibuapp/payout/internal/clock"
	handler "github.com/karibuapp/payout/internal/handler/http"
	"github.com/karibuapp/payout/internal/logger"
	"github.com/karibuapp/payout/internal/middleware"
	"github.com/karibuapp/payout/internal/momo"
	"github.com/karibuapp/payout/internal/notify"
	"github.com/karibuapp/payout/internal/repository"
	"github.com/karibuapp/payout/internal/repository/postgres"
	"github.com/karibuapp/payout/internal/service"
	"go.uber.org/zap"
)

const authTokenKey = "f53ac685bbceebd75043e6be2e06ee07"

func main() {

	// create new config
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// initialize logger
	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logger.Log.Sync()

	// create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// initialize database
	db, err := postgres.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Log.Fatal("Error initializing database", zap.Error(err))
	}
	defer db.Close()

	// migrate database
	err = db.Migrate()
	if err != nil {
		logger.Log.Fatal("Error migrating database", zap.Error(err))
	}

	tokenKey, err := hex.DecodeString(authTokenKey)
	if err != nil {
		logger.Log.Fatal("Error extracting token key", zap.Error(err))
	}
	token := auth.NewAuthToken(tokenKey)

	// dependency injection
	// user
	userRepo := repository.NewUserRepository(db)
	userService := service.NewUserService(userRepo, token)
	userHandler := handler.NewUserHandler(userService, token)

	// withdrawal requests
	balanceRepo := repository.NewBalanceRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	withdrawalService := service.NewWithdrawalService(withdrawalRepo, balanceRepo)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalService)

	// settlement
	gateway := momo.NewClient(cfg.MomoAPIAddr, cfg.MomoAPIKey, cfg.MomoAPISecret)
	executor := service.NewTransferExecutor(gateway, clock.RealClock{})
	notifier := notify.NewLogNotifier(logger.Log)
	auditRepo := repository.NewAuditRepository(db)
	settlementService := service.NewSettlementService(withdrawalRepo, balanceRepo, userRepo, executor, notifier, auditRepo)
	settlementHandler := handler.NewSettlementHandler(settlementService)

	router := chi.NewRouter()

	router.Use(middleware.Logging(logger.Log))

	router.Post("/api/user/register", userHandler.RegisterUser())
	router.Post("/api/user/login", userHandler.LoginUser())

	// routes that require authentication
	router.Group(func(group chi.Router) {
		group.Use(handler.AuthMiddleware(token))
		group.Post("/api/user/withdrawals", withdrawalHandler.CreateWithdrawal())
		group.Get("/api/user/withdrawals", withdrawalHandler.ListWithdrawals())
	})

	// admin settlement routes. Approve is synchronous and slow: it includes
	// the external transfer with retries and may take tens of seconds.
	router.Group(func(group chi.Router) {
		group.Use(handler.AuthMiddleware(token))
		group.Use(handler.AdminOnly)
		group.Post("/api/admin/withdrawals/{id}/approve", settlementHandler.ApproveWithdrawal())
		group.Post("/api/admin/withdrawals/{id}/reject", settlementHandler.RejectWithdrawal())
	})

	logger.Log.Info("Running server", zap.String("addr", cfg.ServerAddr))

	if err := http.ListenAndServe(cfg.ServerAddr, router); err != nil {
		logger.Log.Fatal("Error starting server", zap.Error(err))
	}

	return
}
