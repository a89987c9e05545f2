package http

import (
	"time"

	"github.com/bounty-marketplace/backend/internal/config"
	"github.com/bounty-marketplace/backend/internal/http/handlers"
	"github.com/bounty-marketplace/backend/internal/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func SetupRouter(
	app *fiber.App,
	cfg *config.Config,
	log *zap.Logger,
	rdb *redis.Client,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	bountyHandler *handlers.BountyHandler,
	reviewHandler *handlers.ReviewHandler,
	walletHandler *handlers.WalletHandler,
	payoutHandler *handlers.PayoutHandler,
	wsHub *handlers.WSHub,
) {
	// Global middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.RequestIDMiddleware())
	app.Use(middleware.LoggerMiddleware(log))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// Auth (public)
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)

	api.Use(middleware.RateLimitMiddleware(rdb, cfg.RateLimitPerMinute, time.Minute))

	// Protected endpoints
	protected := api.Group("", middleware.AuthMiddleware(cfg, log))

	// User
	protected.Get("/me", userHandler.GetMe)
	protected.Post("/me/ping", userHandler.Ping)
	protected.Delete("/me", userHandler.DeleteMe)
	protected.Get("/users/:id/rating", userHandler.GetRatingSummary)
	protected.Get("/users/:id/ratings", userHandler.ListRatings)

	// Wallet
	protected.Get("/me/wallet", walletHandler.GetWallet)
	protected.Post("/me/wallet/deposit", walletHandler.Deposit)
	protected.Post("/me/wallet/setup-intent", walletHandler.CreateSetupIntent)

	// Payout onboarding
	protected.Get("/me/payout", payoutHandler.GetStatus)
	protected.Post("/me/payout/onboard", payoutHandler.StartOnboarding)
	protected.Post("/me/payout/refresh", payoutHandler.RefreshStatus)

	// Bounties
	protected.Post("/bounties", bountyHandler.CreateBounty)
	protected.Get("/bounties", bountyHandler.ListBounties)
	protected.Get("/bounties/:id", bountyHandler.GetBounty)
	protected.Post("/bounties/:id/accept", bountyHandler.AcceptBounty)
	protected.Post("/bounties/:id/cancel", bountyHandler.CancelBounty)
	protected.Post("/bounties/:id/archive", bountyHandler.ArchiveBounty)
	protected.Delete("/bounties/:id", bountyHandler.DeleteBounty)
	protected.Get("/bounties/:id/events", bountyHandler.GetBountyEvents)

	// Proof review
	protected.Post("/bounties/:id/submission", bountyHandler.SubmitProof)
	protected.Get("/bounties/:id/submission", reviewHandler.GetSubmission)
	protected.Post("/bounties/:id/approve", reviewHandler.Approve)
	protected.Post("/submissions/:submissionId/request-revision", reviewHandler.RequestRevision)
	protected.Post("/bounties/:id/rating", reviewHandler.SubmitRating)

	// Stale assignment resolution
	protected.Post("/bounties/:id/cancel-stale", reviewHandler.CancelStale)
	protected.Post("/bounties/:id/repost", reviewHandler.RepostStale)

	// WebSocket
	app.Use("/ws", handlers.WSUpgradeMiddleware())
	app.Get("/ws", websocket.New(wsHub.HandleWS))
}
