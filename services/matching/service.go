package matching

import (
	"context"
	"time"

	availabilityRepo "slotbook/database/repository/availability"
	bookingRepo "slotbook/database/repository/booking"
	"slotbook/models"
	"slotbook/services/apperr"
	"slotbook/services/civiltime"

	"go.uber.org/zap"
)

// MatchingService lists published slots with their derived status.
type MatchingService interface {
	List(ctx context.Context, from, to, locationID string) (*models.AvailabilityListing, error)
}

// DefaultMatchingService implements MatchingService.
type DefaultMatchingService struct {
	Availability availabilityRepo.AvailabilityRepository
	Bookings     bookingRepo.BookingRepository
	Converter    *civiltime.Converter
	Cache        ListingCache
	Logger       *zap.Logger
}

// List returns every slot starting in the civil date range [from, to], grouped by start and end.
// Groups keep storage order; views within a group keep insertion order.
func (s *DefaultMatchingService) List(ctx context.Context, from, to, locationID string) (*models.AvailabilityListing, error) {
	fromDate, err := civiltime.ParseDate(from)
	if err != nil {
		return nil, apperr.Validationf("from: %v", err)
	}
	toDate, err := civiltime.ParseDate(to)
	if err != nil {
		return nil, apperr.Validationf("to: %v", err)
	}
	if toDate.Before(fromDate) {
		return nil, apperr.Validationf("to %s is before from %s", toDate, fromDate)
	}

	key := listingKey(from, to, locationID)
	if s.Cache != nil {
		if cached, ok := s.Cache.Get(ctx, key); ok {
			return cached, nil
		}
	}

	start, _ := s.Converter.DayBounds(fromDate)
	_, end := s.Converter.DayBounds(toDate)

	rows, err := s.Availability.ListRange(ctx, start, end, locationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not load availability")
	}
	bookings, err := s.Bookings.ListOverlapping(ctx, start, end, locationID)
	if err != nil {
		return nil, apperr.Wrap(apperr.PersistenceFailure, err, "could not load bookings")
	}

	listing := &models.AvailabilityListing{From: from, To: to, Groups: s.group(rows, bookings, start)}
	if s.Cache != nil {
		s.Cache.Set(ctx, key, listing)
	}
	return listing, nil
}

type groupKey struct{ start, end int64 }

func (s *DefaultMatchingService) group(rows []models.Availability, bookings []models.Booking, from time.Time) []models.SlotGroup {
	now := s.Converter.Now()
	index := make(map[groupKey]int)
	groups := []models.SlotGroup{}

	for _, row := range rows {
		// Rows straddling the lower bound belong to the previous day's listing.
		if row.Start.Before(from) {
			continue
		}
		view := s.view(row, bookings, now)
		k := groupKey{row.Start.UnixNano(), row.End.UnixNano()}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, models.SlotGroup{Start: row.Start, End: row.End})
		}
		groups[i].Views = append(groups[i].Views, view)
	}
	for i := range groups {
		groups[i].Representative, _ = Representative(groups[i].Views)
	}
	return groups
}

func (s *DefaultMatchingService) view(row models.Availability, bookings []models.Booking, now time.Time) models.SlotView {
	date, startTime := s.Converter.ToCivil(row.Start)
	return models.SlotView{
		Availability: row,
		Date:         date.String(),
		StartTime:    startTime.String(),
		EndTime:      s.Converter.ToCivilTime(row.End).String(),
		SlotStatus:   Evaluate(row, bookings, now),
	}
}
