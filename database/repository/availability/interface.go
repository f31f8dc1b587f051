// File: database/repository/availability/interface.go
package availabilityRepo

import (
	"context"
	"errors"
	"time"

	"slotbook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no availability row matches.
var ErrNotFound = errors.New("availability not found")

type AvailabilityRepository interface {
	CreateMany(ctx context.Context, rows []models.Availability) ([]string, error)
	Create(ctx context.Context, row *models.Availability) error
	GetByID(ctx context.Context, id string) (*models.Availability, error)
	// ListRange returns rows overlapping [from, to), optionally for one location, ordered by
	// start and then insertion order.
	ListRange(ctx context.Context, from, to time.Time, locationID string) ([]models.Availability, error)
	// FindSiblings returns rows whose start and end lie within tolerance of the given instants
	// and whose location is in locationIDs. batchID narrows the match when non-empty.
	FindSiblings(ctx context.Context, start, end time.Time, tolerance time.Duration, locationIDs []string, batchID string) ([]models.Availability, error)
	// Claim increments the claim counter only while it is below capacity.
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
	SetFull(ctx context.Context, id string, full bool) error
	// SetClaimed moves the claim counter from one value to another and reports false when the
	// counter no longer holds from.
	SetClaimed(ctx context.Context, id string, from, to int) (bool, error)
	SetService(ctx context.Context, ids []string, service string) (int, error)
	// DeleteUnclaimed removes the row only if nothing has claimed capacity on it.
	DeleteUnclaimed(ctx context.Context, id string) (bool, error)
	EnsureIndexes(ctx context.Context) error
}

type mongoAvailabilityRepo struct {
	coll *mongo.Collection
}

// NewMongoAvailabilityRepo constructs a MongoDB AvailabilityRepository.
func NewMongoAvailabilityRepo(db *mongo.Database) AvailabilityRepository {
	return &mongoAvailabilityRepo{
		coll: db.Collection("availabilities"),
	}
}
