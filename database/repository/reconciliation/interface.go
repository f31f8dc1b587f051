package reconciliationRepo

import (
	"context"

	"slotbook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ReconciliationRepository stores debits whose compensating credit failed so an operator can
// settle them by hand.
type ReconciliationRepository interface {
	Create(ctx context.Context, record models.ReconciliationRecord) (string, error)
	GetByID(ctx context.Context, id string) (*models.ReconciliationRecord, error)
	ListUnresolved(ctx context.Context) ([]models.ReconciliationRecord, error)
	Resolve(ctx context.Context, id string) error
}

type mongoReconciliationRepo struct {
	coll *mongo.Collection
}

// NewMongoReconciliationRepo returns a ReconciliationRepository backed by MongoDB.
func NewMongoReconciliationRepo(db *mongo.Database) ReconciliationRepository {
	return &mongoReconciliationRepo{
		coll: db.Collection("reconciliation_records"),
	}
}
