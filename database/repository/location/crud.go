// File: database/repository/location/crud.go
package locationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"slotbook/models"
)

func (r *mongoLocationRepo) Create(ctx context.Context, loc *models.Location) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if loc.ID == "" {
		loc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	loc.CreatedAt, loc.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, loc); err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

func (r *mongoLocationRepo) GetByID(ctx context.Context, id string) (*models.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var loc models.Location
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&loc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find location: %w", err)
	}
	return &loc, nil
}

func (r *mongoLocationRepo) List(ctx context.Context, includeDeleted bool) ([]models.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if !includeDeleted {
		filter["deleted"] = false
	}
	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch locations: %w", err)
	}
	defer cursor.Close(ctx)

	var locs []models.Location
	if err := cursor.All(ctx, &locs); err != nil {
		return nil, fmt.Errorf("error decoding locations: %w", err)
	}
	return locs, nil
}

func (r *mongoLocationRepo) UpdateDisplay(ctx context.Context, id string, input models.LocationInput) (*models.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":       input.Name,
		"latitude":   input.Latitude,
		"longitude":  input.Longitude,
		"updated_at": time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var loc models.Location
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id, "deleted": false}, update, opts).Decode(&loc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update location: %w", err)
	}
	return &loc, nil
}

func (r *mongoLocationRepo) SoftDelete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now().UTC()}})
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoLocationRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_id"),
	})
	if err != nil {
		return fmt.Errorf("failed to create location indexes: %w", err)
	}
	return nil
}
