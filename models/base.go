package models

import (
	"fmt"
	"time"
)

// Period is the natural reporting unit for the financial path: one calendar
// month at one location.
type Period struct {
	Year  int
	Month int
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

func (p Period) Start() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// PeriodsBetween expands an inclusive month range into individual periods.
func PeriodsBetween(from, to Period) []Period {
	var out []Period
	cur := time.Date(from.Year, time.Month(from.Month), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year, time.Month(to.Month), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(end) {
		out = append(out, Period{Year: cur.Year(), Month: int(cur.Month())})
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}

func ParseDateString(dateString string, timezone string) (time.Time, error) {

	localTime, err := time.Parse("2006-01-02", dateString)
	if err != nil {
		return time.Time{}, err
	}

	if timezone == "" {
		timezone = "Europe/Amsterdam"
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(
		localTime.Year(), localTime.Month(), localTime.Day(),
		0, 0, 0, 0,
		location,
	), nil
}

// ConvertToDate truncates t to a date (midnight) in the given timezone.
func ConvertToDate(t time.Time, timezone string) (time.Time, error) {
	if timezone == "" {
		timezone = "Europe/Amsterdam"
	}

	location, err := time.LoadLocation(timezone)
	if err != nil {
		return t, err
	}
	localTime := t.In(location)

	return time.Date(localTime.Year(), localTime.Month(), localTime.Day(), 0, 0, 0, 0, location), nil
}

// ISOWeekStart returns the Monday of t's ISO week, at midnight in t's location.
func ISOWeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// MonthStart returns the first day of t's month, at midnight in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// ISOWeekKey formats t's ISO week as e.g. "2025-W12". The ISO year can differ
// from the calendar year around new year.
func ISOWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

func YearKey(t time.Time) string {
	return t.Format("2006")
}
