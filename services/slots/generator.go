package slots

import (
	"time"

	"slotbook/models"
	"slotbook/services/apperr"
	"slotbook/services/civiltime"

	"github.com/google/uuid"
)

// Granularity is the fixed length of a generated slot.
const Granularity = 30 * time.Minute

// Generator expands a weekly pattern into concrete availability rows. It performs no
// existence checks and touches no storage.
type Generator struct {
	Converter       *civiltime.Converter
	DefaultCapacity int
	NewID           func() string
	Now             func() time.Time
}

func NewGenerator(conv *civiltime.Converter) *Generator {
	return &Generator{
		Converter:       conv,
		DefaultCapacity: models.DefaultCapacity,
		NewID:           func() string { return uuid.New().String() },
		Now:             conv.Now,
	}
}

// plan is a validated GenerateRequest.
type plan struct {
	from, to   civiltime.Date
	weekdays   [7]bool
	start, end civiltime.TimeOfDay
	capacity   int
	service    string
	locations  []string
}

func parseRequest(req models.GenerateRequest, defaultCapacity int) (plan, error) {
	var p plan
	var err error
	if p.from, err = civiltime.ParseDate(req.StartDate); err != nil {
		return p, apperr.Validationf("startDate: %v", err)
	}
	if p.to, err = civiltime.ParseDate(req.EndDate); err != nil {
		return p, apperr.Validationf("endDate: %v", err)
	}
	if p.to.Before(p.from) {
		return p, apperr.Validationf("endDate %s is before startDate %s", p.to, p.from)
	}
	if p.start, err = civiltime.ParseTimeOfDay(req.StartTime); err != nil {
		return p, apperr.Validationf("startTime: %v", err)
	}
	if p.end, err = civiltime.ParseTimeOfDay(req.EndTime); err != nil {
		return p, apperr.Validationf("endTime: %v", err)
	}
	for _, wd := range req.Weekdays {
		if wd < 0 || wd > 6 {
			return p, apperr.Validationf("weekday %d outside 0..6", wd)
		}
		p.weekdays[wd] = true
	}
	if req.Capacity < 0 {
		return p, apperr.Validationf("capacity must be positive, got %d", req.Capacity)
	}
	p.capacity = req.Capacity
	if p.capacity == 0 {
		p.capacity = defaultCapacity
	}
	seen := make(map[string]bool, len(req.LocationIDs))
	for _, id := range req.LocationIDs {
		if id == "" {
			return p, apperr.Validationf("empty location id")
		}
		if !seen[id] {
			seen[id] = true
			p.locations = append(p.locations, id)
		}
	}
	if len(p.locations) == 0 {
		return p, apperr.Validationf("at least one location is required")
	}
	p.service = req.Service
	return p, nil
}

// Generate returns one row per (selected date, step, location), all sharing a batch id.
func (g *Generator) Generate(req models.GenerateRequest) ([]models.Availability, error) {
	defaultCapacity := g.DefaultCapacity
	if defaultCapacity <= 0 {
		defaultCapacity = models.DefaultCapacity
	}
	p, err := parseRequest(req, defaultCapacity)
	if err != nil {
		return nil, err
	}
	if len(req.Weekdays) == 0 {
		return nil, apperr.New(apperr.NoSlotsProduced, "no weekdays selected")
	}
	if p.end.Minutes() <= p.start.Minutes() {
		return nil, apperr.New(apperr.NoSlotsProduced, "time window %s-%s is empty", p.start, p.end)
	}

	step := int(Granularity / time.Minute)
	batchID := g.NewID()
	createdAt := g.Now().UTC()

	var rows []models.Availability
	for d := p.from; !d.After(p.to); d = civiltime.AddDays(d, 1) {
		if !p.weekdays[civiltime.DayOfWeek(d)] {
			continue
		}
		for m := p.start.Minutes(); m+step <= p.end.Minutes(); m += step {
			start := g.Converter.At(d, civiltime.FromMinutes(m))
			for _, loc := range p.locations {
				rows = append(rows, models.Availability{
					ID:         g.NewID(),
					LocationID: loc,
					Start:      start,
					End:        start.Add(Granularity),
					Service:    p.service,
					Capacity:   p.capacity,
					BatchID:    batchID,
					Source:     models.SourceGenerator,
					CreatedAt:  createdAt,
				})
			}
		}
	}
	if len(rows) == 0 {
		return nil, apperr.New(apperr.NoSlotsProduced, "no selected weekday falls in %s..%s", p.from, p.to)
	}
	return rows, nil
}
