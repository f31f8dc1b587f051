package civiltime

import "time"

// Zone describes the single published civil calendar: a fixed standard offset plus a
// daylight period running from the first Sunday of DSTStartMonth (inclusive) to the first
// Sunday of DSTEndMonth (exclusive). The period may wrap the new year.
type Zone struct {
	Name           string
	StandardOffset time.Duration
	DSTShift       time.Duration
	DSTStartMonth  time.Month
	DSTEndMonth    time.Month
}

// DefaultZone is UTC-4 with a one hour daylight shift from September to April.
var DefaultZone = Zone{
	Name:           "civil",
	StandardOffset: -4 * time.Hour,
	DSTShift:       time.Hour,
	DSTStartMonth:  time.September,
	DSTEndMonth:    time.April,
}

// InDaylight reports whether the civil date falls in the daylight period of its own year.
func (z Zone) InDaylight(d Date) bool {
	if z.DSTShift == 0 || z.DSTStartMonth == z.DSTEndMonth {
		return false
	}
	start := FirstSunday(d.Year, z.DSTStartMonth)
	end := FirstSunday(d.Year, z.DSTEndMonth)
	if z.DSTStartMonth < z.DSTEndMonth {
		return !d.Before(start) && d.Before(end)
	}
	return !d.Before(start) || d.Before(end)
}

// OffsetFor returns the UTC offset in force on the given civil date.
func (z Zone) OffsetFor(d Date) time.Duration {
	if z.InDaylight(d) {
		return z.StandardOffset + z.DSTShift
	}
	return z.StandardOffset
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Converter maps civil dates and times to UTC instants and back. It never consults the
// runtime's local timezone.
type Converter struct {
	Zone  Zone
	Clock Clock
}

func NewConverter(zone Zone, clock Clock) *Converter {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Converter{Zone: zone, Clock: clock}
}

// ToAbsolute converts a civil date and wall time to a UTC instant.
func (c *Converter) ToAbsolute(d Date, hour, minute int) time.Time {
	naive := time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, time.UTC)
	return naive.Add(-c.Zone.OffsetFor(d))
}

// At is ToAbsolute for a parsed TimeOfDay.
func (c *Converter) At(d Date, t TimeOfDay) time.Time {
	return c.ToAbsolute(d, t.Hour, t.Minute)
}

// ToCivil converts an instant to the civil date and wall time. The offset is chosen from the
// instant's UTC calendar date, a day-granularity approximation that is only wrong inside the
// transition hour.
func (c *Converter) ToCivil(instant time.Time) (Date, TimeOfDay) {
	u := instant.UTC()
	utcDate := Date{Year: u.Year(), Month: u.Month(), Day: u.Day()}
	local := u.Add(c.Zone.OffsetFor(utcDate))
	return Date{Year: local.Year(), Month: local.Month(), Day: local.Day()},
		TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}
}

func (c *Converter) ToCivilDate(instant time.Time) Date {
	d, _ := c.ToCivil(instant)
	return d
}

func (c *Converter) ToCivilTime(instant time.Time) TimeOfDay {
	_, t := c.ToCivil(instant)
	return t
}

// Today returns the current civil date.
func (c *Converter) Today() Date {
	return c.ToCivilDate(c.Clock.Now())
}

// Now returns the current instant from the converter's clock.
func (c *Converter) Now() time.Time {
	return c.Clock.Now()
}

// DayBounds returns the UTC instants of civil midnight starting d and the following day.
func (c *Converter) DayBounds(d Date) (time.Time, time.Time) {
	next := AddDays(d, 1)
	return c.ToAbsolute(d, 0, 0), c.ToAbsolute(next, 0, 0)
}
