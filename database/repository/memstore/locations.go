package memstore

import (
	"context"

	locationRepo "slotbook/database/repository/location"
	"slotbook/models"

	"github.com/google/uuid"
)

type locationStore struct{ s *Store }

func (r *locationStore) Create(_ context.Context, loc *models.Location) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if loc.ID == "" {
		loc.ID = uuid.New().String()
	}
	now := r.s.now()
	loc.CreatedAt, loc.UpdatedAt = now, now
	cp := *loc
	r.s.locations = append(r.s.locations, &cp)
	return nil
}

func (r *locationStore) GetByID(_ context.Context, id string) (*models.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, l := range r.s.locations {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, locationRepo.ErrNotFound
}

func (r *locationStore) List(_ context.Context, includeDeleted bool) ([]models.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.Location
	for _, l := range r.s.locations {
		if l.Deleted && !includeDeleted {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (r *locationStore) UpdateDisplay(_ context.Context, id string, input models.LocationInput) (*models.Location, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, l := range r.s.locations {
		if l.ID == id && !l.Deleted {
			l.Name = input.Name
			l.Latitude = input.Latitude
			l.Longitude = input.Longitude
			l.UpdatedAt = r.s.now()
			cp := *l
			return &cp, nil
		}
	}
	return nil, locationRepo.ErrNotFound
}

func (r *locationStore) SoftDelete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, l := range r.s.locations {
		if l.ID == id && !l.Deleted {
			l.Deleted = true
			l.UpdatedAt = r.s.now()
			return nil
		}
	}
	return locationRepo.ErrNotFound
}

func (r *locationStore) EnsureIndexes(context.Context) error { return nil }
