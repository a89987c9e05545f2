package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bounty-marketplace/backend/internal/config"
	"github.com/bounty-marketplace/backend/internal/db"
	"github.com/bounty-marketplace/backend/internal/events"
	apphttp "github.com/bounty-marketplace/backend/internal/http"
	"github.com/bounty-marketplace/backend/internal/http/handlers"
	"github.com/bounty-marketplace/backend/internal/payments"
	"github.com/bounty-marketplace/backend/internal/repositories"
	"github.com/bounty-marketplace/backend/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	userRepo := repositories.NewUserRepo(pool)
	bountyRepo := repositories.NewBountyRepo(pool)
	submissionRepo := repositories.NewSubmissionRepo(pool)
	ratingRepo := repositories.NewRatingRepo(pool)
	ledgerRepo := repositories.NewLedgerRepo(pool)
	payoutRepo := repositories.NewPayoutRepo(pool)
	reconRepo := repositories.NewReconRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Services
	processor := payments.NewClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey, log)
	walletService := services.NewWalletService(ledgerRepo, payoutRepo, auditRepo, processor, cfg, log)
	bountyService := services.NewBountyService(bountyRepo, submissionRepo, auditRepo, walletService, publisher, log)
	reviewService := services.NewReviewService(bountyRepo, submissionRepo, ratingRepo, userRepo, walletService, reconRepo, auditRepo, publisher, log)
	payoutService := services.NewPayoutService(payoutRepo, userRepo, auditRepo, processor, cfg, log)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, cfg, log)
	userHandler := handlers.NewUserHandler(userRepo, ratingRepo, log)
	bountyHandler := handlers.NewBountyHandler(bountyService, log)
	reviewHandler := handlers.NewReviewHandler(reviewService, log)
	walletHandler := handlers.NewWalletHandler(walletService, log)
	payoutHandler := handlers.NewPayoutHandler(payoutService, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, authHandler, userHandler, bountyHandler, reviewHandler, walletHandler, payoutHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}
