// File: database/repository/availability/claims.go
package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Claim is the storage-level check-and-increment: the filter only matches while
// claimed < capacity, so concurrent claims can never push a row past its capacity.
func (r *mongoAvailabilityRepo) Claim(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":    id,
		"$expr": bson.M{"$lt": bson.A{"$claimed", "$capacity"}},
	}
	update := bson.M{"$inc": bson.M{"claimed": 1}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to claim availability: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func (r *mongoAvailabilityRepo) Release(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": id, "claimed": bson.M{"$gt": 0}}
	update := bson.M{
		"$inc": bson.M{"claimed": -1},
		"$set": bson.M{"is_full": false},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release availability claim: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("release failed; availability %s not found or nothing claimed", id)
	}
	return nil
}

func (r *mongoAvailabilityRepo) SetFull(ctx context.Context, id string, full bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"is_full": full}})
	if err != nil {
		return fmt.Errorf("failed to set full flag for availability: %w", err)
	}
	return nil
}

func (r *mongoAvailabilityRepo) SetClaimed(ctx context.Context, id string, from, to int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"id": id, "claimed": from},
		bson.M{"$set": bson.M{"claimed": to}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to resync availability claims: %w", err)
	}
	return res.MatchedCount == 1, nil
}
