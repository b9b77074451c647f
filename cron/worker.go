package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lexconnect/models"
	"lexconnect/services/matching"
	"lexconnect/services/notification"
	"lexconnect/services/tasks"
	"lexconnect/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// PushDeliverer is the part of the notification service the worker uses.
type PushDeliverer interface {
	DeliverPush(ctx context.Context, payload models.PushPayload) error
}

// NewMux routes every background task type to its handler.
func NewMux(engine matching.Engine, push PushDeliverer) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePushSend, handlePush(push))
	mux.HandleFunc(tasks.TypeCaseDistribute, handleDistribute(engine))
	mux.HandleFunc(tasks.TypeMatchExpire, handleSweep("expire matches", func(ctx context.Context) (int64, error) {
		n, err := engine.ExpireDue(ctx)
		return int64(n), err
	}))
	mux.HandleFunc(tasks.TypeCasesRetry, handleSweep("retry stalled cases", func(ctx context.Context) (int64, error) {
		n, err := engine.RetryStalled(ctx)
		return int64(n), err
	}))
	mux.HandleFunc(tasks.TypeLeadsReset, handleSweep("reset lead cycles", engine.ResetLeadCycles))
	return mux
}

func handlePush(push PushDeliverer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.PushPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			utils.GetLogger().Error("worker: invalid push payload", zap.Error(err))
			return fmt.Errorf("decode push payload: %v: %w", err, asynq.SkipRetry)
		}
		err := push.DeliverPush(ctx, p)
		if errors.Is(err, notification.ErrPushDisabled) {
			return nil
		}
		return err
	}
}

func handleDistribute(engine matching.Engine) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.CasePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil || p.CaseID == "" {
			return fmt.Errorf("decode distribute payload: %w", asynq.SkipRetry)
		}
		n, err := engine.Distribute(ctx, p.CaseID)
		if errors.Is(err, matching.ErrCaseNotFound) || errors.Is(err, matching.ErrCaseUnavailable) {
			utils.GetLogger().Info("worker: case no longer distributable", zap.String("caseID", p.CaseID), zap.Error(err))
			return nil
		}
		if err != nil {
			return err
		}
		utils.GetLogger().Info("worker: case distributed", zap.String("caseID", p.CaseID), zap.Int("offers", n))
		return nil
	}
}

func handleSweep(name string, run func(ctx context.Context) (int64, error)) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		start := time.Now()
		n, err := run(ctx)
		if err != nil {
			utils.GetLogger().Error("worker: sweep failed", zap.String("sweep", name), zap.Error(err))
			return err
		}
		utils.GetLogger().Info("worker: sweep done", zap.String("sweep", name),
			zap.Int64("affected", n), zap.Duration("took", time.Since(start)))
		return nil
	}
}

// StartWorker runs the asynq server in the background, retrying startup
// with a linear backoff. The returned server must be shut down on exit.
func StartWorker(redisOpt asynq.RedisConnOpt, mux *asynq.ServeMux) *asynq.Server {
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
		Logger:      utils.GetLogger().Sugar(),
	})

	go func() {
		logger := utils.GetLogger()
		const maxAttempts = 5
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			err := srv.Start(mux)
			if err == nil {
				logger.Info("worker: started")
				return
			}
			logger.Warn("worker: failed to start", zap.Int("attempt", attempt), zap.Error(err))
			time.Sleep(time.Duration(attempt*2) * time.Second)
		}
		logger.Error("worker: giving up, background tasks will not run")
	}()
	return srv
}
