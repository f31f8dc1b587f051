package matching

import (
	"fmt"
	"testing"
	"time"

	"slotbook/models"
)

var (
	slotStart = time.Date(2025, 6, 2, 13, 0, 0, 0, time.UTC)
	slotEnd   = slotStart.Add(30 * time.Minute)
	before    = slotStart.Add(-24 * time.Hour)
)

func row(id, loc string, start time.Time, capacity int) models.Availability {
	return models.Availability{ID: id, LocationID: loc, Start: start, End: start.Add(30 * time.Minute), Capacity: capacity}
}

func bookingsAt(loc string, start, end time.Time, n int) []models.Booking {
	out := make([]models.Booking, n)
	for i := range out {
		out[i] = models.Booking{ID: fmt.Sprintf("%s-b%d", loc, i), LocationID: loc, Start: start, End: end}
	}
	return out
}

func TestStatusThresholds(t *testing.T) {
	rows := []models.Availability{row("a1", "loc-a", slotStart, 10)}

	cases := []struct {
		booked int
		want   string
	}{
		{0, models.StatusOpen},
		{1, models.StatusPartial},
		{9, models.StatusPartial},
		{10, models.StatusFull},
		{12, models.StatusFull},
	}
	for _, tc := range cases {
		got := StatusOf(slotStart, "loc-a", rows, bookingsAt("loc-a", slotStart, slotEnd, tc.booked), before)
		if got.Status != tc.want || got.Booked != tc.booked || got.Capacity != 10 {
			t.Errorf("%d bookings: got %+v, want status %s", tc.booked, got, tc.want)
		}
	}
}

func TestPastWinsOverCounts(t *testing.T) {
	rows := []models.Availability{row("a1", "loc-a", slotStart, 10)}
	now := slotStart.Add(time.Minute)

	for _, n := range []int{0, 5, 10} {
		got := StatusOf(slotStart, "loc-a", rows, bookingsAt("loc-a", slotStart, slotEnd, n), now)
		if got.Status != models.StatusPast {
			t.Fatalf("%d bookings: expected past, got %s", n, got.Status)
		}
	}
}

func TestStatusNoneWhenNothingCovers(t *testing.T) {
	rows := []models.Availability{row("a1", "loc-a", slotStart, 10)}
	if got := StatusOf(slotEnd, "loc-a", rows, nil, before); got.Status != models.StatusNone {
		t.Fatalf("end instant is outside the half-open slot, got %s", got.Status)
	}
	if got := StatusOf(slotStart, "loc-b", rows, nil, before); got.Status != models.StatusNone {
		t.Fatalf("other location should not match, got %s", got.Status)
	}
}

func TestSiblingsEvaluatedIndependently(t *testing.T) {
	rows := []models.Availability{
		row("a1", "loc-a", slotStart, 2),
		row("b1", "loc-b", slotStart, 5),
	}
	bookings := bookingsAt("loc-a", slotStart, slotEnd, 2)

	if got := StatusOf(slotStart, "loc-a", rows, bookings, before); got.Status != models.StatusFull {
		t.Fatalf("loc-a: expected full, got %+v", got)
	}
	if got := StatusOf(slotStart, "loc-b", rows, bookings, before); got.Status != models.StatusOpen || got.Capacity != 5 {
		t.Fatalf("loc-b: expected open with capacity 5, got %+v", got)
	}
}

func TestMultiRowBookingCountsOnEveryCoveredRow(t *testing.T) {
	second := slotEnd
	rows := []models.Availability{
		row("a1", "loc-a", slotStart, 1),
		row("a2", "loc-a", second, 1),
	}
	bookings := bookingsAt("loc-a", slotStart, second.Add(30*time.Minute), 1)

	for _, at := range []time.Time{slotStart, second} {
		if got := StatusOf(at, "loc-a", rows, bookings, before); got.Status != models.StatusFull {
			t.Fatalf("row at %s: expected full, got %s", at, got.Status)
		}
	}
}

func TestRepresentativePrefersFull(t *testing.T) {
	views := []models.SlotView{
		{Availability: models.Availability{ID: "first"}, SlotStatus: models.SlotStatus{Status: models.StatusOpen}},
		{Availability: models.Availability{ID: "second", IsFull: true}, SlotStatus: models.SlotStatus{Status: models.StatusOpen}},
	}
	if got, _ := Representative(views); got.Availability.ID != "second" {
		t.Fatalf("expected the full row, got %s", got.Availability.ID)
	}
	if got, _ := Representative(views[:1]); got.Availability.ID != "first" {
		t.Fatalf("expected the first row, got %s", got.Availability.ID)
	}
	if _, ok := Representative(nil); ok {
		t.Fatal("empty group has no representative")
	}
}

func TestCovering(t *testing.T) {
	t2 := slotEnd
	t3 := t2.Add(30 * time.Minute)
	rows := []models.Availability{
		row("a2", "loc-a", t2, 1),
		row("a1", "loc-a", slotStart, 1),
		row("a1-dup", "loc-a", slotStart, 1),
		row("b1", "loc-b", slotStart, 1),
	}

	chain, ok := Covering(rows, "loc-a", slotStart, t3)
	if !ok || len(chain) != 2 || chain[0].ID != "a1" || chain[1].ID != "a2" {
		t.Fatalf("expected a1,a2 chain, got %v %v", chain, ok)
	}
	if _, ok := Covering(rows, "loc-a", slotStart.Add(10*time.Minute), t2); ok {
		t.Fatal("range starting mid-slot must not be covered")
	}
	if _, ok := Covering(rows, "loc-a", slotStart, t3.Add(30*time.Minute)); ok {
		t.Fatal("range extending past the last row must not be covered")
	}
	if _, ok := Covering(rows, "loc-c", slotStart, t2); ok {
		t.Fatal("unknown location must not be covered")
	}
}

func TestCoveringTriesLongerRowAtSharedStart(t *testing.T) {
	hour := row("manual", "loc-a", slotStart, 1)
	hour.End = slotStart.Add(time.Hour)
	rows := []models.Availability{row("generated", "loc-a", slotStart, 1), hour}

	chain, ok := Covering(rows, "loc-a", slotStart, slotStart.Add(time.Hour))
	if !ok || len(chain) != 1 || chain[0].ID != "manual" {
		t.Fatalf("expected the hour row, got %v %v", chain, ok)
	}
	chain, ok = Covering(rows, "loc-a", slotStart, slotEnd)
	if !ok || len(chain) != 1 || chain[0].ID != "generated" {
		t.Fatalf("expected the half-hour row, got %v %v", chain, ok)
	}
}
