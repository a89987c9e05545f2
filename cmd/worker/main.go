package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bounty-marketplace/backend/internal/config"
	"github.com/bounty-marketplace/backend/internal/db"
	"github.com/bounty-marketplace/backend/internal/events"
	"github.com/bounty-marketplace/backend/internal/models"
	"github.com/bounty-marketplace/backend/internal/payments"
	"github.com/bounty-marketplace/backend/internal/repositories"
	"github.com/bounty-marketplace/backend/internal/services"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	userRepo := repositories.NewUserRepo(pool)
	bountyRepo := repositories.NewBountyRepo(pool)
	submissionRepo := repositories.NewSubmissionRepo(pool)
	ratingRepo := repositories.NewRatingRepo(pool)
	ledgerRepo := repositories.NewLedgerRepo(pool)
	payoutRepo := repositories.NewPayoutRepo(pool)
	reconRepo := repositories.NewReconRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Services
	publisher := events.NewRedisPublisher(rdb, log)
	processor := payments.NewClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey, log)
	walletService := services.NewWalletService(ledgerRepo, payoutRepo, auditRepo, processor, cfg, log)
	reviewService := services.NewReviewService(bountyRepo, submissionRepo, ratingRepo, userRepo, walletService, reconRepo, auditRepo, publisher, log)

	log.Info("worker started")

	reconTicker := time.NewTicker(cfg.ReconPollInterval)
	staleTicker := time.NewTicker(cfg.StalePollInterval)
	archiveTicker := time.NewTicker(6 * time.Hour)
	defer reconTicker.Stop()
	defer staleTicker.Stop()
	defer archiveTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-reconTicker.C:
			runPaymentReconciliation(ctx, reconRepo, reviewService, cfg, log)
		case <-staleTicker.C:
			runStaleDetection(ctx, bountyRepo, publisher, log)
		case <-archiveTicker.C:
			runAutoArchive(ctx, bountyRepo, cfg, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// runPaymentReconciliation retries fund releases for bounties that were
// approved while the payment processor was failing.
func runPaymentReconciliation(ctx context.Context, reconRepo *repositories.ReconRepo, reviewService *services.ReviewService, cfg *config.Config, log *zap.Logger) {
	tasks, err := reconRepo.GetDue(ctx, 50)
	if err != nil {
		log.Error("failed to fetch reconciliation tasks", zap.Error(err))
		return
	}

	for _, task := range tasks {
		if task.Kind != models.ReconTaskPaymentRelease {
			continue
		}

		log.Info("retrying fund release",
			zap.String("bounty_id", task.BountyID.String()),
			zap.Int("attempts", task.Attempts),
		)

		if err := reviewService.RetryRelease(ctx, task.BountyID); err != nil {
			log.Warn("fund release retry failed",
				zap.String("bounty_id", task.BountyID.String()),
				zap.Error(err),
			)
			if rerr := reconRepo.RecordFailure(ctx, task.ID, err.Error(), cfg.ReconMaxAttempts); rerr != nil {
				log.Error("failed to record reconciliation failure", zap.Error(rerr))
			}
			continue
		}

		if err := reconRepo.MarkDone(ctx, task.ID); err != nil {
			log.Error("failed to mark reconciliation task done", zap.Error(err))
		}
	}
}

// runStaleDetection flags in-progress bounties whose hunter account has been
// deleted, so posters see the cancel-or-repost prompt without a user lookup
// on every read.
func runStaleDetection(ctx context.Context, bountyRepo *repositories.BountyRepo, publisher events.Publisher, log *zap.Logger) {
	bounties, err := bountyRepo.GetStaleCandidates(ctx, 100)
	if err != nil {
		log.Error("stale candidate query failed", zap.Error(err))
		return
	}

	for _, b := range bounties {
		log.Info("flagging stale assignment",
			zap.String("bounty_id", b.ID.String()),
		)
		if err := bountyRepo.SetHunterMissing(ctx, b.ID, true); err != nil {
			log.Error("failed to flag stale bounty", zap.String("bounty_id", b.ID.String()), zap.Error(err))
			continue
		}
		_ = publisher.Publish(ctx, events.StreamBounty, events.Event{
			Type: events.EventHunterMissing,
			Payload: map[string]any{
				"bounty_id":  b.ID.String(),
				"to_user_id": b.PosterUserID.String(),
			},
		})
	}
}

// runAutoArchive moves long-completed bounties out of active listings.
func runAutoArchive(ctx context.Context, bountyRepo *repositories.BountyRepo, cfg *config.Config, log *zap.Logger) {
	bounties, err := bountyRepo.GetCompletedBefore(ctx, cfg.ArchiveAfterDays, 200)
	if err != nil {
		log.Error("auto-archive query failed", zap.Error(err))
		return
	}

	for _, b := range bounties {
		if err := bountyRepo.UpdateStatus(ctx, b.ID, models.BountyStatusArchived); err != nil {
			log.Error("failed to archive bounty", zap.String("bounty_id", b.ID.String()), zap.Error(err))
		}
	}
	if len(bounties) > 0 {
		log.Info("archived completed bounties", zap.Int("count", len(bounties)))
	}
}
