package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseHHMM parses a wall-clock "HH:MM" string into hour and minute.
// Trailing seconds/fractions (e.g. "09:00:00") are ignored.
func ParseHHMM(s string) (hour, minute int, err error) {
	if len(s) < 5 {
		return 0, 0, fmt.Errorf("invalid wall-clock time %q", s)
	}
	parts := strings.SplitN(s[:5], ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid wall-clock time %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid wall-clock time %q: %w", s, err)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid wall-clock time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("wall-clock time %q out of range", s)
	}
	return hour, minute, nil
}

// LocalWallClockToInstant interprets the wall-clock time as occurring in loc
// on the given date and returns the equivalent absolute instant. time.Date
// normalizes wall-clock times that do not exist (or exist twice) on DST
// transition days, so this never fails for a transition.
func LocalWallClockToInstant(date, hhmm string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	hour, minute, err := ParseHHMM(hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, loc), nil
}

// InstantToLocalDisplay formats an instant as "h:mm AM/PM" in loc.
// Display only; never used in conflict logic.
func InstantToLocalDisplay(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("3:04 PM")
}

// DaysBetween returns the inclusive list of dates from start to end.
// Returns nil if end is before start or either date is malformed.
func DaysBetween(start, end string) []string {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return nil
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return nil
	}
	var days []string
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(DateLayout))
	}
	return days
}

// Weekday returns the day of week (0=Sunday..6=Saturday) for a date string.
func Weekday(date string) (int, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return int(d.Weekday()), nil
}

// DayBounds returns the absolute instants of midnight-to-midnight for the
// date in loc. The end bound is the next day's midnight, so DST days shorter
// or longer than 24h are handled by the zone database rather than arithmetic.
func DayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start, end, nil
}
