// File: database/repository/location/interface.go
package locationRepo

import (
	"context"
	"errors"

	"slotbook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = errors.New("location not found")

type LocationRepository interface {
	Create(ctx context.Context, loc *models.Location) error
	GetByID(ctx context.Context, id string) (*models.Location, error)
	List(ctx context.Context, includeDeleted bool) ([]models.Location, error)
	// UpdateDisplay changes only the name and coordinates.
	UpdateDisplay(ctx context.Context, id string, input models.LocationInput) (*models.Location, error)
	SoftDelete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

type mongoLocationRepo struct {
	coll *mongo.Collection
}

// NewMongoLocationRepo constructs a MongoDB LocationRepository.
func NewMongoLocationRepo(db *mongo.Database) LocationRepository {
	return &mongoLocationRepo{
		coll: db.Collection("locations"),
	}
}
