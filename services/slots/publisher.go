package slots

import (
	"context"
	"errors"

	availabilityRepo "slotbook/database/repository/availability"
	locationRepo "slotbook/database/repository/location"
	"slotbook/models"
	"slotbook/services/apperr"

	"go.uber.org/zap"
)

// Publisher stores generated or hand-made availability rows.
type Publisher struct {
	Generator    *Generator
	Availability availabilityRepo.AvailabilityRepository
	Locations    locationRepo.LocationRepository
	Logger       *zap.Logger
}

func (p *Publisher) requireLocations(ctx context.Context, ids []string) error {
	for _, id := range ids {
		loc, err := p.Locations.GetByID(ctx, id)
		if errors.Is(err, locationRepo.ErrNotFound) || (err == nil && loc.Deleted) {
			return apperr.New(apperr.NotFound, "location %s does not exist", id)
		}
		if err != nil {
			return apperr.Wrap(apperr.PersistenceFailure, err, "could not load location %s", id)
		}
	}
	return nil
}

// Publish expands the request and stores every resulting row.
func (p *Publisher) Publish(ctx context.Context, actor models.Actor, req models.GenerateRequest) (*models.GenerateResult, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("publishing availability")
	}
	rows, err := p.Generator.Generate(req)
	if err != nil {
		return nil, err
	}
	if err := p.requireLocations(ctx, uniqueLocations(rows)); err != nil {
		return nil, err
	}
	if _, err := p.Availability.CreateMany(ctx, rows); err != nil {
		p.Logger.Error("Failed to store generated availability",
			zap.String("batchID", rows[0].BatchID), zap.Int("rows", len(rows)), zap.Error(err))
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not store %d generated slots", len(rows))
	}

	p.Logger.Info("Published availability",
		zap.String("actor", actor.ID), zap.String("batchID", rows[0].BatchID), zap.Int("rows", len(rows)))
	return &models.GenerateResult{BatchID: rows[0].BatchID, Created: len(rows), Slots: rows}, nil
}

// CreateManual stores one administrator-defined row.
func (p *Publisher) CreateManual(ctx context.Context, actor models.Actor, in models.ManualSlotInput) (*models.Availability, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("publishing availability")
	}
	if in.LocationID == "" {
		return nil, apperr.Validationf("locationId is required")
	}
	if !in.End.After(in.Start) {
		return nil, apperr.Validationf("slot end must be after start")
	}
	if in.Capacity < 0 {
		return nil, apperr.Validationf("capacity must be positive, got %d", in.Capacity)
	}
	if in.Capacity == 0 {
		in.Capacity = p.Generator.DefaultCapacity
	}
	if err := p.requireLocations(ctx, []string{in.LocationID}); err != nil {
		return nil, err
	}

	row := &models.Availability{
		ID:         p.Generator.NewID(),
		LocationID: in.LocationID,
		Start:      in.Start.UTC(),
		End:        in.End.UTC(),
		Service:    in.Service,
		Capacity:   in.Capacity,
		Source:     models.SourceManual,
		CreatedAt:  p.Generator.Now().UTC(),
	}
	if err := p.Availability.Create(ctx, row); err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not store slot")
	}
	return row, nil
}

func uniqueLocations(rows []models.Availability) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rows {
		if !seen[r.LocationID] {
			seen[r.LocationID] = true
			out = append(out, r.LocationID)
		}
	}
	return out
}
