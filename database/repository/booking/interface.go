// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"
	"time"

	"slotbook/models"

	"go.mongodb.org/mongo-driver/mongo"
)

type BookingRepository interface {
	Insert(ctx context.Context, booking *models.Booking) error
	// ListOverlapping returns bookings overlapping [from, to), optionally for one location.
	ListOverlapping(ctx context.Context, from, to time.Time, locationID string) ([]models.Booking, error)
	// CountOverlapping counts bookings at the location overlapping [start, end).
	CountOverlapping(ctx context.Context, locationID string, start, end time.Time) (int, error)
	ListByClient(ctx context.Context, clientID string) ([]models.Booking, error)
	EnsureIndexes(ctx context.Context) error
}

type mongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo constructs a MongoDB BookingRepository.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	return &mongoBookingRepo{
		coll: db.Collection("bookings"),
	}
}
