package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	reconciliationRepo "slotbook/database/repository/reconciliation"
	"slotbook/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeReconcileBooking = "booking:reconcile"
	QueueReconcile       = "reconcile"
)

// NewReconcileTask wraps a failed compensation for the reconciliation worker. It is never retried:
// a second attempt could credit the client twice.
func NewReconcileTask(record models.ReconciliationRecord) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeReconcileBooking, b)
	opts := []asynq.Option{
		asynq.Queue(QueueReconcile),
		asynq.MaxRetry(0),
		asynq.TaskID("reconcile:" + record.ID),
	}
	return task, opts, nil
}

// ParseReconcileTask is the inverse of NewReconcileTask.
func ParseReconcileTask(task *asynq.Task) (models.ReconciliationRecord, error) {
	var record models.ReconciliationRecord
	if err := json.Unmarshal(task.Payload(), &record); err != nil {
		return record, fmt.Errorf("invalid reconcile payload: %w", err)
	}
	return record, nil
}

// Enqueuer is a task producer.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReconcileQueue hands reconciliation records to the background worker.
type ReconcileQueue struct {
	Client Enqueuer
}

func NewReconcileQueue(client *asynq.Client) *ReconcileQueue {
	return &ReconcileQueue{Client: client}
}

func (q *ReconcileQueue) RequestReconciliation(ctx context.Context, record models.ReconciliationRecord) error {
	task, opts, err := NewReconcileTask(record)
	if err != nil {
		return err
	}
	if _, err := q.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue reconciliation %s: %w", record.ID, err)
	}
	return nil
}

// StoreReconciler records directly in storage. It serves the memory backend, which runs without
// a queue.
type StoreReconciler struct {
	Repo   reconciliationRepo.ReconciliationRepository
	Logger *zap.Logger
}

func (s *StoreReconciler) RequestReconciliation(ctx context.Context, record models.ReconciliationRecord) error {
	id, err := s.Repo.Create(ctx, record)
	if err != nil {
		return err
	}
	s.Logger.Error("Booking requires manual reconciliation", zap.String("recordID", id),
		zap.String("clientID", record.ClientID), zap.Float64("amount", record.Amount))
	return nil
}
