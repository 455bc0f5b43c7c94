package cron

import (
	"context"
	"time"

	"veridie/config"
	consultantRepo "veridie/database/repository/consultant"
	"veridie/services/token"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeTokenRefreshSweep = "calendly:token_refresh_sweep"

// How far ahead of expiry a credential gets proactively rotated. Keeping
// this well above the on-demand refresh skew means confirmations almost
// never pay the refresh round-trip.
const sweepHorizon = time.Hour

// TokenRefreshWorker proactively rotates Calendly credentials that are close
// to expiry so booking confirmations rarely hit the refresh path inline.
type TokenRefreshWorker struct {
	Consultants consultantRepo.ConsultantRepository
	Tokens      *token.DefaultTokenService
	Logger      *zap.Logger

	server    *asynq.Server
	scheduler *asynq.Scheduler
}

func NewTokenRefreshWorker(cfg config.Config, consultants consultantRepo.ConsultantRepository, tokens *token.DefaultTokenService, logger *zap.Logger) *TokenRefreshWorker {
	redisOpts := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}

	w := &TokenRefreshWorker{
		Consultants: consultants,
		Tokens:      tokens,
		Logger:      logger,
	}

	w.server = asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	w.scheduler = asynq.NewScheduler(redisOpts, nil)

	return w
}

// Start launches the worker and the periodic sweep enqueuer in background
// goroutines.
func (w *TokenRefreshWorker) Start() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeTokenRefreshSweep, w.handleSweep)

	if _, err := w.scheduler.Register("@every 30m", asynq.NewTask(TypeTokenRefreshSweep, nil)); err != nil {
		w.Logger.Error("Failed to register token refresh sweep", zap.Error(err))
		return
	}

	go func() {
		if err := w.scheduler.Run(); err != nil {
			w.Logger.Error("Token refresh scheduler stopped", zap.Error(err))
		}
	}()

	go func() {
		w.Logger.Info("Starting token refresh worker")
		if err := w.server.Run(mux); err != nil {
			w.Logger.Error("Token refresh worker stopped", zap.Error(err))
		}
	}()
}

// Shutdown stops the scheduler and the worker, waiting for in-flight tasks.
func (w *TokenRefreshWorker) Shutdown() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
}

func (w *TokenRefreshWorker) handleSweep(ctx context.Context, _ *asynq.Task) error {
	cutoff := time.Now().Add(sweepHorizon)
	expiring, err := w.Consultants.ListExpiringCredentials(cutoff)
	if err != nil {
		w.Logger.Error("Token refresh sweep query failed", zap.Error(err))
		return err
	}
	if len(expiring) == 0 {
		return nil
	}

	w.Logger.Info("Token refresh sweep started", zap.Int("candidates", len(expiring)))

	var failures int
	for _, consultant := range expiring {
		if err := w.Tokens.RefreshIfExpiringWithin(ctx, consultant.ID, sweepHorizon); err != nil {
			failures++
			w.Logger.Warn("Proactive token refresh failed",
				zap.String("consultantId", consultant.ID), zap.Error(err))
		}
	}

	w.Logger.Info("Token refresh sweep finished",
		zap.Int("candidates", len(expiring)), zap.Int("failures", failures))
	return nil
}
