// Package coordinator deletes and edits one published slot across all of its sibling rows.
package coordinator

import (
	"context"
	"errors"
	"time"

	availabilityRepo "slotbook/database/repository/availability"
	bookingRepo "slotbook/database/repository/booking"
	locationRepo "slotbook/database/repository/location"
	"slotbook/models"
	"slotbook/services/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTolerance absorbs storage rounding when re-identifying sibling rows.
const DefaultTolerance = time.Second

type SlotCoordinator interface {
	Delete(ctx context.Context, actor models.Actor, ref models.SlotRef) (*models.DeletionReport, error)
	Update(ctx context.Context, actor models.Actor, req models.UpdateSlotRequest) (*models.UpdateReport, error)
}

type DefaultSlotCoordinator struct {
	Availability availabilityRepo.AvailabilityRepository
	Bookings     bookingRepo.BookingRepository
	Locations    locationRepo.LocationRepository
	Tolerance    time.Duration
	Now          func() time.Time
	NewID        func() string
	Logger       *zap.Logger
}

func (c *DefaultSlotCoordinator) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *DefaultSlotCoordinator) newID() string {
	if c.NewID != nil {
		return c.NewID()
	}
	return uuid.New().String()
}

func (c *DefaultSlotCoordinator) tolerance() time.Duration {
	if c.Tolerance <= 0 {
		return DefaultTolerance
	}
	return c.Tolerance
}

// siblings resolves the rows of one published slot, at most one per location.
func (c *DefaultSlotCoordinator) siblings(ctx context.Context, ref models.SlotRef) ([]models.Availability, error) {
	if !ref.End.After(ref.Start) {
		return nil, apperr.Validationf("slot end must be after start")
	}
	if len(ref.LocationIDs) == 0 {
		return nil, apperr.Validationf("at least one location is required")
	}
	rows, err := c.Availability.FindSiblings(ctx, ref.Start, ref.End, c.tolerance(), ref.LocationIDs, ref.BatchID)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not load sibling slots")
	}
	perLocation := make(map[string]int, len(rows))
	for _, r := range rows {
		perLocation[r.LocationID]++
		if perLocation[r.LocationID] > 1 {
			return nil, apperr.New(apperr.IdentityAmbiguity,
				"location %s has more than one slot within %s of the reference", r.LocationID, c.tolerance())
		}
	}
	if len(rows) == 0 {
		return nil, apperr.New(apperr.NotFound, "no slot matches the reference")
	}
	return rows, nil
}

func (c *DefaultSlotCoordinator) booked(ctx context.Context, row models.Availability) (bool, error) {
	if row.Claimed > 0 {
		return true, nil
	}
	n, err := c.Bookings.CountOverlapping(ctx, row.LocationID, row.Start, row.End)
	if err != nil {
		return false, apperr.Wrap(apperr.PersistenceFailure, err, "could not count bookings for %s", row.ID)
	}
	return n > 0, nil
}

// remove deletes every unbooked row and reports the booked ones as skipped.
func (c *DefaultSlotCoordinator) remove(ctx context.Context, rows []models.Availability) (models.DeletionReport, error) {
	report := models.DeletionReport{RemovedIDs: []string{}}
	for _, row := range rows {
		isBooked, err := c.booked(ctx, row)
		if err != nil {
			return report, err
		}
		if !isBooked {
			removed, err := c.Availability.DeleteUnclaimed(ctx, row.ID)
			if err != nil {
				return report, apperr.Wrap(apperr.PersistenceFailure, err, "could not delete slot %s", row.ID)
			}
			if removed {
				report.Removed++
				report.RemovedIDs = append(report.RemovedIDs, row.ID)
				continue
			}
		}
		report.Skipped++
		report.SkippedIDs = append(report.SkippedIDs, row.ID)
	}
	return report, nil
}

func (c *DefaultSlotCoordinator) Delete(ctx context.Context, actor models.Actor, ref models.SlotRef) (*models.DeletionReport, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("deleting slots")
	}
	rows, err := c.siblings(ctx, ref)
	if err != nil {
		return nil, err
	}
	report, err := c.remove(ctx, rows)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("Deleted published slot",
		zap.String("actor", actor.ID), zap.Time("start", ref.Start),
		zap.Int("removed", report.Removed), zap.Int("skipped", report.Skipped))
	return &report, nil
}

// Update relabels the service and reshapes the location set of a published slot. Start, end
// and capacity are never changed here.
func (c *DefaultSlotCoordinator) Update(ctx context.Context, actor models.Actor, req models.UpdateSlotRequest) (*models.UpdateReport, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("editing slots")
	}
	// Locations being added are searched too, so an existing row there is kept, not duplicated.
	lookup := req.Ref
	lookup.LocationIDs = union(req.Ref.LocationIDs, req.Update.LocationIDs)
	rows, err := c.siblings(ctx, lookup)
	if err != nil {
		return nil, err
	}
	report := &models.UpdateReport{Removal: models.DeletionReport{RemovedIDs: []string{}}}

	current := make(map[string]bool, len(rows))
	for _, r := range rows {
		current[r.LocationID] = true
	}
	target := current
	if len(req.Update.LocationIDs) > 0 {
		target = make(map[string]bool, len(req.Update.LocationIDs))
		for _, id := range req.Update.LocationIDs {
			target[id] = true
		}
	}

	var kept, dropped []models.Availability
	for _, r := range rows {
		if target[r.LocationID] {
			kept = append(kept, r)
		} else {
			dropped = append(dropped, r)
		}
	}

	var added []string
	for _, id := range req.Update.LocationIDs {
		if !current[id] {
			added = append(added, id)
			current[id] = true
		}
	}
	if err := c.requireLocations(ctx, added); err != nil {
		return nil, err
	}

	if req.Update.Service != nil {
		ids := make([]string, len(kept))
		for i, r := range kept {
			ids[i] = r.ID
		}
		n, err := c.Availability.SetService(ctx, ids, *req.Update.Service)
		if err != nil {
			return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not relabel slots")
		}
		report.Relabeled = n
	}

	template := rows[0]
	service := template.Service
	if req.Update.Service != nil {
		service = *req.Update.Service
	}
	for _, loc := range added {
		row := &models.Availability{
			ID:         c.newID(),
			LocationID: loc,
			Start:      template.Start,
			End:        template.End,
			Service:    service,
			Capacity:   template.Capacity,
			BatchID:    template.BatchID,
			Source:     template.Source,
			CreatedAt:  c.now().UTC(),
		}
		if err := c.Availability.Create(ctx, row); err != nil {
			return report, apperr.Wrap(apperr.PersistenceFailure, err, "could not add slot at %s", loc)
		}
		report.Added++
	}

	if len(dropped) > 0 {
		removal, err := c.remove(ctx, dropped)
		report.Removal = removal
		if err != nil {
			return report, err
		}
	}

	c.Logger.Info("Updated published slot",
		zap.String("actor", actor.ID), zap.Time("start", req.Ref.Start),
		zap.Int("relabeled", report.Relabeled), zap.Int("added", report.Added),
		zap.Int("removed", report.Removal.Removed), zap.Int("skipped", report.Removal.Skipped))
	return report, nil
}

func (c *DefaultSlotCoordinator) requireLocations(ctx context.Context, ids []string) error {
	for _, id := range ids {
		loc, err := c.Locations.GetByID(ctx, id)
		if errors.Is(err, locationRepo.ErrNotFound) || (err == nil && loc.Deleted) {
			return apperr.New(apperr.NotFound, "location %s does not exist", id)
		}
		if err != nil {
			return apperr.Wrap(apperr.PersistenceFailure, err, "could not load location %s", id)
		}
	}
	return nil
}

func union(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, id := range list {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}
