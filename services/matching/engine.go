// Package matching derives slot occupancy from availability rows and bookings.
package matching

import (
	"sort"
	"time"

	"slotbook/models"
)

// Overlaps is the half-open interval test used everywhere a booking is matched to a slot.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// BookedCount counts bookings at the location overlapping [start, end).
func BookedCount(locationID string, start, end time.Time, bookings []models.Booking) int {
	n := 0
	for _, b := range bookings {
		if b.LocationID == locationID && Overlaps(b.Start, b.End, start, end) {
			n++
		}
	}
	return n
}

func classify(booked, capacity int) string {
	switch {
	case booked >= capacity:
		return models.StatusFull
	case booked > 0:
		return models.StatusPartial
	}
	return models.StatusOpen
}

// Evaluate derives the status of one row. Rows starting before now are past whatever their count.
func Evaluate(row models.Availability, bookings []models.Booking, now time.Time) models.SlotStatus {
	booked := BookedCount(row.LocationID, row.Start, row.End, bookings)
	status := classify(booked, row.Capacity)
	if row.Start.Before(now) {
		status = models.StatusPast
	}
	return models.SlotStatus{
		Status:         status,
		Booked:         booked,
		Capacity:       row.Capacity,
		AvailabilityID: row.ID,
	}
}

// StatusOf evaluates the row of locationID covering the instant at. Sibling rows at other
// locations are ignored, so each location is judged on its own capacity and bookings.
func StatusOf(at time.Time, locationID string, rows []models.Availability, bookings []models.Booking, now time.Time) models.SlotStatus {
	for _, row := range rows {
		if row.LocationID != locationID {
			continue
		}
		if !at.Before(row.Start) && at.Before(row.End) {
			st := Evaluate(row, bookings, now)
			if at.Before(now) {
				st.Status = models.StatusPast
			}
			return st
		}
	}
	return models.SlotStatus{Status: models.StatusNone}
}

// Representative picks the view shown for a group of siblings: one already full, else the first.
func Representative(views []models.SlotView) (models.SlotView, bool) {
	if len(views) == 0 {
		return models.SlotView{}, false
	}
	for _, v := range views {
		if v.Availability.IsFull || v.Status == models.StatusFull {
			return v, true
		}
	}
	return views[0], true
}

// Covering returns the abutting rows of one location that together span exactly [start, end).
// When rows share a start every alternative is tried, earlier inserted rows first. rows must be
// in insertion order.
func Covering(rows []models.Availability, locationID string, start, end time.Time) ([]models.Availability, bool) {
	if !end.After(start) {
		return nil, false
	}
	var candidates []models.Availability
	for _, r := range rows {
		if r.LocationID == locationID && !r.Start.Before(start) && !r.End.After(end) && r.End.After(r.Start) {
			candidates = append(candidates, r)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Start.Before(candidates[j].Start) })

	// dead holds cursors already known not to reach end.
	dead := make(map[int64]bool)
	var search func(cursor time.Time) ([]models.Availability, bool)
	search = func(cursor time.Time) ([]models.Availability, bool) {
		if cursor.Equal(end) {
			return nil, true
		}
		if dead[cursor.UnixNano()] {
			return nil, false
		}
		for _, r := range candidates {
			if r.Start.After(cursor) {
				break
			}
			if !r.Start.Equal(cursor) {
				continue
			}
			if rest, ok := search(r.End); ok {
				return append([]models.Availability{r}, rest...), true
			}
		}
		dead[cursor.UnixNano()] = true
		return nil, false
	}
	return search(start)
}
