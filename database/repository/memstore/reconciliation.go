package memstore

import (
	"context"

	reconciliationRepo "slotbook/database/repository/reconciliation"
	"slotbook/models"

	"github.com/google/uuid"
)

type reconciliationStore struct{ s *Store }

func (r *reconciliationStore) Create(_ context.Context, record models.ReconciliationRecord) (string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.s.now()
	}
	r.s.records = append(r.s.records, record)
	return record.ID, nil
}

func (r *reconciliationStore) GetByID(_ context.Context, id string) (*models.ReconciliationRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, rec := range r.s.records {
		if rec.ID == id {
			cp := rec
			return &cp, nil
		}
	}
	return nil, reconciliationRepo.ErrNotFound
}

func (r *reconciliationStore) ListUnresolved(context.Context) ([]models.ReconciliationRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.ReconciliationRecord
	for _, rec := range r.s.records {
		if !rec.Resolved {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *reconciliationStore) Resolve(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range r.s.records {
		if r.s.records[i].ID == id {
			r.s.records[i].Resolved = true
			return nil
		}
	}
	return reconciliationRepo.ErrNotFound
}
