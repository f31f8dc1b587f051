package memstore

import (
	"context"
	"sort"
	"time"

	"slotbook/models"

	"github.com/google/uuid"
)

type bookingStore struct{ s *Store }

func (r *bookingStore) Insert(_ context.Context, booking *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	booking.Start, booking.End = booking.Start.UTC(), booking.End.UTC()
	r.s.bookings = append(r.s.bookings, *booking)
	return nil
}

func (r *bookingStore) ListOverlapping(_ context.Context, from, to time.Time, locationID string) ([]models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.Booking
	for _, b := range r.s.bookings {
		if (locationID == "" || b.LocationID == locationID) && overlaps(b.Start, b.End, from, to) {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *bookingStore) CountOverlapping(_ context.Context, locationID string, start, end time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, b := range r.s.bookings {
		if b.LocationID == locationID && overlaps(b.Start, b.End, start, end) {
			n++
		}
	}
	return n, nil
}

func (r *bookingStore) ListByClient(_ context.Context, clientID string) ([]models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.Booking
	for _, b := range r.s.bookings {
		if b.ClientID == clientID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.After(out[j].Start) })
	return out, nil
}

func (r *bookingStore) EnsureIndexes(context.Context) error { return nil }
