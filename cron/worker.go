package cron

import (
	"context"
	"time"

	reconciliationRepo "slotbook/database/repository/reconciliation"
	"slotbook/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ReconcileWorker consumes reconciliation tasks and stores them for an operator.
type ReconcileWorker struct {
	srv    *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

func NewReconcileWorker(redisOpts asynq.RedisClientOpt, repo reconciliationRepo.ReconciliationRepository, logger *zap.Logger) *ReconcileWorker {
	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				tasks.QueueReconcile: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeReconcileBooking, HandleReconcileTask(repo, logger))

	return &ReconcileWorker{srv: srv, mux: mux, logger: logger}
}

// Run blocks until ctx is cancelled, then drains in-flight tasks.
func (w *ReconcileWorker) Run(ctx context.Context) error {
	w.logger.Info("Starting reconciliation worker")
	if err := w.srv.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.logger.Info("Stopping reconciliation worker")
	w.srv.Shutdown()
	return nil
}

// HandleReconcileTask stores the record. Returning an error archives the task; it is never retried.
func HandleReconcileTask(repo reconciliationRepo.ReconciliationRepository, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		record, err := tasks.ParseReconcileTask(task)
		if err != nil {
			logger.Error("Invalid reconciliation payload", zap.Error(err))
			return err
		}

		if _, err := repo.Create(ctx, record); err != nil {
			logger.Error("Failed to store reconciliation record",
				zap.String("bookingID", record.ID), zap.String("clientID", record.ClientID), zap.Error(err))
			return err
		}

		logger.Warn("Manual reconciliation required",
			zap.String("bookingID", record.ID),
			zap.String("clientID", record.ClientID),
			zap.Float64("amount", record.Amount),
			zap.String("persistError", record.PersistError),
			zap.String("compensateError", record.CompensateError))
		return nil
	}
}

// MonitorQueueConnection pings the queue's Redis until ctx is cancelled.
func MonitorQueueConnection(ctx context.Context, redisOpts asynq.RedisClientOpt, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn("Queue Redis connection lost", zap.Error(err))
			}
		}
	}
}
