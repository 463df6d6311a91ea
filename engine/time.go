package engine

import (
	"time"
)

// =============================================================================
// DATE - Day-granularity calendar date (always UTC)
// =============================================================================

// Date is a calendar date. Contract schedules never need sub-day precision,
// so the time-of-day component is always midnight UTC.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a strict YYYY-MM-DD date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t: t.UTC()}, nil
}

// Comparison
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }
func (d Date) After(o Date) bool  { return d.t.After(o.t) }
func (d Date) Equal(o Date) bool  { return d.t.Equal(o.t) }
func (d Date) IsZero() bool       { return d.t.IsZero() }

// Properties
func (d Date) Year() int        { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int         { return d.t.Day() }

func (d Date) String() string { return d.t.Format(dateLayout) }

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// AddMonths shifts the date by n calendar months, clamping the day to the
// last day of the target month. Jan 31 + 1 month is Feb 28 (or 29), never
// Mar 3 - period boundaries must stay inside the intended month, which
// time.Time.AddDate does not guarantee.
func (d Date) AddMonths(n int) Date {
	months := int(d.t.Month()) - 1 + n
	year := d.t.Year() + months/12
	month := time.Month(months%12 + 1)
	if months < 0 && months%12 != 0 {
		year--
		month = time.Month(months%12 + 13)
	}
	day := d.t.Day()
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return NewDate(year, month, day)
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Quarter returns the 1-based calendar quarter the date falls in.
func (d Date) Quarter() int {
	return (int(d.t.Month())-1)/3 + 1
}
