// File: database/repository/availability/crud.go
package availabilityRepo

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

func (r *mongoAvailabilityRepo) CreateMany(ctx context.Context, rows []models.Availability) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	docs := make([]interface{}, len(rows))
	ids := make([]string, len(rows))
	for i, row := range rows {
		if row.ID == "" {
			row.ID = uuid.New().String()
		}
		row.Start = row.Start.UTC()
		row.End = row.End.UTC()
		docs[i] = row
		ids[i] = row.ID
	}

	if _, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return nil, fmt.Errorf("failed to insert availabilities: %w", err)
	}
	return ids, nil
}

func (r *mongoAvailabilityRepo) Create(ctx context.Context, row *models.Availability) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	row.Start = row.Start.UTC()
	row.End = row.End.UTC()
	if _, err := r.coll.InsertOne(ctx, row); err != nil {
		return fmt.Errorf("failed to insert availability: %w", err)
	}
	return nil
}

func (r *mongoAvailabilityRepo) GetByID(ctx context.Context, id string) (*models.Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var row models.Availability
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find availability: %w", err)
	}
	return &row, nil
}

func (r *mongoAvailabilityRepo) ListRange(ctx context.Context, from, to time.Time, locationID string) ([]models.Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"start": bson.M{"$lt": to.UTC()},
		"end":   bson.M{"$gt": from.UTC()},
	}
	if locationID != "" {
		filter["location_id"] = locationID
	}
	opts := options.Find().SetSort(bson.D{{Key: "start", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availabilities: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.Availability
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding availabilities: %w", err)
	}
	return rows, nil
}

func (r *mongoAvailabilityRepo) FindSiblings(ctx context.Context, start, end time.Time, tolerance time.Duration, locationIDs []string, batchID string) ([]models.Availability, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start, end = start.UTC(), end.UTC()
	filter := bson.M{
		"start":       bson.M{"$gte": start.Add(-tolerance), "$lte": start.Add(tolerance)},
		"end":         bson.M{"$gte": end.Add(-tolerance), "$lte": end.Add(tolerance)},
		"location_id": bson.M{"$in": locationIDs},
	}
	if batchID != "" {
		filter["batch_id"] = batchID
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sibling availabilities: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []models.Availability
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("error decoding sibling availabilities: %w", err)
	}
	return rows, nil
}

func (r *mongoAvailabilityRepo) SetService(ctx context.Context, ids []string, service string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx, bson.M{"id": bson.M{"$in": ids}}, bson.M{"$set": bson.M{"service": service}})
	if err != nil {
		return 0, fmt.Errorf("failed to relabel availabilities: %w", err)
	}
	return int(res.ModifiedCount), nil
}

func (r *mongoAvailabilityRepo) DeleteUnclaimed(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id, "claimed": bson.M{"$lte": 0}})
	if err != nil {
		return false, fmt.Errorf("failed to delete availability: %w", err)
	}
	return res.DeletedCount == 1, nil
}
