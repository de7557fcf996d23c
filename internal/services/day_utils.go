package services

import (
	"errors"
	"sort"
	"strings"
	"time"
)

const isoDateLayout = "2006-01-02"

var ErrInvalidISODate = errors.New("invalid iso date")

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// FormatISODate renders the value's own calendar fields; no zone conversion happens.
func FormatISODate(value time.Time) string {
	return value.Format(isoDateLayout)
}

// ParseISODate parses YYYY-MM-DD into UTC midnight.
func ParseISODate(raw string) (time.Time, error) {
	parsed, err := time.ParseInLocation(isoDateLayout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidISODate
	}
	return parsed, nil
}

func CalendarDay(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func NextDay(raw string) (string, error) {
	day, err := ParseISODate(raw)
	if err != nil {
		return "", err
	}
	return FormatISODate(day.AddDate(0, 0, 1)), nil
}

func mustNextDay(raw string) string {
	next, err := NextDay(raw)
	if err != nil {
		return raw
	}
	return next
}

// GroupConsecutiveDates merges a set of ISO dates into maximal runs of
// consecutive days. Duplicates collapse into one day.
func GroupConsecutiveDates(dates []string) []DateRange {
	if len(dates) == 0 {
		return []DateRange{}
	}

	sorted := make([]string, 0, len(dates))
	sorted = append(sorted, dates...)
	sort.Strings(sorted)

	groups := make([]DateRange, 0)
	current := DateRange{Start: sorted[0], End: sorted[0]}
	for _, date := range sorted[1:] {
		if date == current.End {
			continue
		}
		if mustNextDay(current.End) == date {
			current.End = date
			continue
		}
		groups = append(groups, current)
		current = DateRange{Start: date, End: date}
	}
	groups = append(groups, current)
	return groups
}

// ExpandDateRange lists every day of an inclusive range.
func ExpandDateRange(dateRange DateRange) []string {
	start, err := ParseISODate(dateRange.Start)
	if err != nil {
		return nil
	}
	end, err := ParseISODate(dateRange.End)
	if err != nil || end.Before(start) {
		return nil
	}

	days := make([]string, 0, int(end.Sub(start).Hours()/24)+1)
	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 0, 1) {
		days = append(days, FormatISODate(cursor))
	}
	return days
}
