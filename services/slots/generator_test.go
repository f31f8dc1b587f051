package slots

import (
	"fmt"
	"testing"
	"time"

	"slotbook/models"
	"slotbook/services/apperr"
	"slotbook/services/civiltime"
)

func newTestGenerator() *Generator {
	conv := civiltime.NewConverter(civiltime.DefaultZone, nil)
	g := NewGenerator(conv)
	n := 0
	g.NewID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	g.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return g
}

func TestGenerateFullWeekTwoLocations(t *testing.T) {
	g := newTestGenerator()
	rows, err := g.Generate(models.GenerateRequest{
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-08",
		Weekdays:    []int{0, 1, 2, 3, 4, 5, 6},
		StartTime:   "09:00",
		EndTime:     "10:00",
		LocationIDs: []string{"loc-a", "loc-b"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if want := 2 * 7 * 2; len(rows) != want {
		t.Fatalf("expected %d rows, got %d", want, len(rows))
	}

	batch := rows[0].BatchID
	for _, r := range rows {
		if r.End.Sub(r.Start) != 30*time.Minute {
			t.Fatalf("row %s spans %s", r.ID, r.End.Sub(r.Start))
		}
		if r.Capacity != models.DefaultCapacity {
			t.Fatalf("expected default capacity, got %d", r.Capacity)
		}
		if r.BatchID != batch || r.Source != models.SourceGenerator {
			t.Fatalf("row %s has batch %q source %q", r.ID, r.BatchID, r.Source)
		}
		if tod := g.Converter.ToCivilTime(r.Start).String(); tod != "09:00" && tod != "09:30" {
			t.Fatalf("unexpected civil start %s", tod)
		}
	}
}

func TestGenerateSaturdayOnly(t *testing.T) {
	g := newTestGenerator()
	rows, err := g.Generate(models.GenerateRequest{
		StartDate:   "2025-03-01",
		EndDate:     "2025-03-02",
		Weekdays:    []int{6},
		StartTime:   "09:00",
		EndTime:     "09:30",
		Capacity:    3,
		LocationIDs: []string{"loc-a"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(rows))
	}
	if got := g.Converter.ToCivilDate(rows[0].Start).String(); got != "2025-03-01" {
		t.Fatalf("slot generated on %s", got)
	}
	if rows[0].Capacity != 3 {
		t.Fatalf("capacity not carried: %d", rows[0].Capacity)
	}
}

func TestGenerateExcludesPartialFinalStep(t *testing.T) {
	g := newTestGenerator()
	rows, err := g.Generate(models.GenerateRequest{
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-02",
		Weekdays:    []int{1},
		StartTime:   "09:00",
		EndTime:     "10:15",
		LocationIDs: []string{"loc-a"},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
}

func TestGenerateErrors(t *testing.T) {
	base := models.GenerateRequest{
		StartDate:   "2025-06-02",
		EndDate:     "2025-06-08",
		Weekdays:    []int{1},
		StartTime:   "09:00",
		EndTime:     "10:00",
		LocationIDs: []string{"loc-a"},
	}
	cases := []struct {
		name   string
		mutate func(*models.GenerateRequest)
		want   apperr.Kind
	}{
		{"bad start date", func(r *models.GenerateRequest) { r.StartDate = "2025-02-30" }, apperr.Validation},
		{"end before start", func(r *models.GenerateRequest) { r.EndDate = "2025-06-01" }, apperr.Validation},
		{"bad time", func(r *models.GenerateRequest) { r.StartTime = "9am" }, apperr.Validation},
		{"weekday range", func(r *models.GenerateRequest) { r.Weekdays = []int{7} }, apperr.Validation},
		{"no locations", func(r *models.GenerateRequest) { r.LocationIDs = nil }, apperr.Validation},
		{"negative capacity", func(r *models.GenerateRequest) { r.Capacity = -1 }, apperr.Validation},
		{"no weekdays", func(r *models.GenerateRequest) { r.Weekdays = nil }, apperr.NoSlotsProduced},
		{"inverted window", func(r *models.GenerateRequest) { r.EndTime = "09:00" }, apperr.NoSlotsProduced},
		{"window shorter than a step", func(r *models.GenerateRequest) { r.EndTime = "09:20" }, apperr.NoSlotsProduced},
		{"weekday never in range", func(r *models.GenerateRequest) {
			r.EndDate = "2025-06-02"
			r.Weekdays = []int{3}
		}, apperr.NoSlotsProduced},
	}

	g := newTestGenerator()
	for _, tc := range cases {
		req := base
		tc.mutate(&req)
		_, err := g.Generate(req)
		if got := apperr.KindOf(err); got != tc.want {
			t.Errorf("%s: expected %s, got %v", tc.name, tc.want, err)
		}
	}
}
