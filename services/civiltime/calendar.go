package civiltime

import (
	"fmt"
	"strconv"
	"time"
)

// Date is a calendar date in the published civil calendar. It carries no offset.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// TimeOfDay is a civil wall-clock time. 24:00 is accepted as the end of a day.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseDate reads a strict YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, fmt.Errorf("invalid civil date %q: want YYYY-MM-DD", s)
	}
	y, err1 := strconv.Atoi(s[0:4])
	m, err2 := strconv.Atoi(s[5:7])
	d, err3 := strconv.Atoi(s[8:10])
	if err1 != nil || err2 != nil || err3 != nil {
		return Date{}, fmt.Errorf("invalid civil date %q: non-numeric field", s)
	}
	if m < 1 || m > 12 {
		return Date{}, fmt.Errorf("invalid civil date %q: month out of range", s)
	}
	if d < 1 || d > DaysIn(y, time.Month(m)) {
		return Date{}, fmt.Errorf("invalid civil date %q: day out of range", s)
	}
	return Date{Year: y, Month: time.Month(m), Day: d}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Compare returns -1, 0 or 1.
func (d Date) Compare(o Date) int {
	a, b := d.days(), o.days()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

func (d Date) days() int { return daysFromCivil(d.Year, int(d.Month), d.Day) }

// ParseTimeOfDay reads a strict 24-hour HH:MM string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return TimeOfDay{}, fmt.Errorf("invalid civil time %q: want HH:MM", s)
	}
	h, err1 := strconv.Atoi(s[0:2])
	m, err2 := strconv.Atoi(s[3:5])
	if err1 != nil || err2 != nil {
		return TimeOfDay{}, fmt.Errorf("invalid civil time %q: non-numeric field", s)
	}
	if h == 24 && m == 0 {
		return TimeOfDay{Hour: 24}, nil
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return TimeOfDay{}, fmt.Errorf("invalid civil time %q: out of range", s)
	}
	return TimeOfDay{Hour: h, Minute: m}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes since civil midnight.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

// FromMinutes is the inverse of Minutes.
func FromMinutes(m int) TimeOfDay { return TimeOfDay{Hour: m / 60, Minute: m % 60} }

// AddDays shifts a date by n calendar days.
func AddDays(d Date, n int) Date {
	return civilFromDays(d.days() + n)
}

// DayOfWeek returns 0=Sunday..6=Saturday using Zeller's congruence.
func DayOfWeek(d Date) int {
	q, m, y := d.Day, int(d.Month), d.Year
	if m < 3 {
		m += 12
		y--
	}
	k := mod(y, 100)
	j := floorDiv(y, 100)
	h := mod(q+(13*(m+1))/5+k+k/4+floorDiv(j, 4)+5*j, 7)
	// Zeller yields 0=Saturday.
	return (h + 6) % 7
}

// IsLeap reports a proleptic Gregorian leap year.
func IsLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

func DaysIn(y int, m time.Month) int {
	switch m {
	case time.February:
		if IsLeap(y) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	}
	return 31
}

// FirstSunday returns the first Sunday of the given month.
func FirstSunday(year int, month time.Month) Date {
	first := Date{Year: year, Month: month, Day: 1}
	return Date{Year: year, Month: month, Day: 1 + (7-DayOfWeek(first))%7}
}

// daysFromCivil counts days since 1970-01-01 in the proleptic Gregorian calendar.
func daysFromCivil(y, m, d int) int {
	if m <= 2 {
		y--
	}
	era := floorDiv(y, 400)
	yoe := y - era*400
	mp := (m + 9) % 12
	doy := (153*mp+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return era*146097 + doe - 719468
}

func civilFromDays(z int) Date {
	z += 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	m := mp + 3
	if m > 12 {
		m -= 12
	}
	if m <= 2 {
		y++
	}
	return Date{Year: y, Month: time.Month(m), Day: d}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}
