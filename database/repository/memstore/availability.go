package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	availabilityRepo "slotbook/database/repository/availability"
	"slotbook/models"

	"github.com/google/uuid"
)

type availabilityStore struct{ s *Store }

func (r *availabilityStore) insert(row models.Availability) string {
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	row.Start, row.End = row.Start.UTC(), row.End.UTC()
	r.s.availability = append(r.s.availability, &row)
	return row.ID
}

func (r *availabilityStore) CreateMany(_ context.Context, rows []models.Availability) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, r.insert(row))
	}
	return ids, nil
}

func (r *availabilityStore) Create(_ context.Context, row *models.Availability) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	row.ID = r.insert(*row)
	return nil
}

func (r *availabilityStore) find(id string) *models.Availability {
	for _, a := range r.s.availability {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (r *availabilityStore) GetByID(_ context.Context, id string) (*models.Availability, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if a := r.find(id); a != nil {
		cp := *a
		return &cp, nil
	}
	return nil, availabilityRepo.ErrNotFound
}

func (r *availabilityStore) ListRange(_ context.Context, from, to time.Time, locationID string) ([]models.Availability, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []models.Availability
	for _, a := range r.s.availability {
		if locationID != "" && a.LocationID != locationID {
			continue
		}
		if overlaps(a.Start, a.End, from, to) {
			out = append(out, *a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (r *availabilityStore) FindSiblings(_ context.Context, start, end time.Time, tolerance time.Duration, locationIDs []string, batchID string) ([]models.Availability, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	wanted := make(map[string]bool, len(locationIDs))
	for _, id := range locationIDs {
		wanted[id] = true
	}
	var out []models.Availability
	for _, a := range r.s.availability {
		if !wanted[a.LocationID] || (batchID != "" && a.BatchID != batchID) {
			continue
		}
		if within(a.Start, start, tolerance) && within(a.End, end, tolerance) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *availabilityStore) Claim(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a := r.find(id)
	if a == nil || a.Claimed >= a.Capacity {
		return false, nil
	}
	a.Claimed++
	return true, nil
}

func (r *availabilityStore) Release(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a := r.find(id)
	if a == nil || a.Claimed <= 0 {
		return fmt.Errorf("release failed; availability %s not found or nothing claimed", id)
	}
	a.Claimed--
	a.IsFull = false
	return nil
}

func (r *availabilityStore) SetFull(_ context.Context, id string, full bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if a := r.find(id); a != nil {
		a.IsFull = full
	}
	return nil
}

func (r *availabilityStore) SetClaimed(_ context.Context, id string, from, to int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a := r.find(id)
	if a == nil || a.Claimed != from {
		return false, nil
	}
	a.Claimed = to
	return true, nil
}

func (r *availabilityStore) SetService(_ context.Context, ids []string, service string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := 0
	for _, id := range ids {
		if a := r.find(id); a != nil && a.Service != service {
			a.Service = service
			n++
		}
	}
	return n, nil
}

func (r *availabilityStore) DeleteUnclaimed(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i, a := range r.s.availability {
		if a.ID != id {
			continue
		}
		if a.Claimed > 0 {
			return false, nil
		}
		r.s.availability = append(r.s.availability[:i], r.s.availability[i+1:]...)
		return true, nil
	}
	return false, nil
}

func (r *availabilityStore) EnsureIndexes(context.Context) error { return nil }
