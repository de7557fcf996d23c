package services

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestGroupConsecutiveDates(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []DateRange
	}{
		{
			name:  "empty",
			input: nil,
			want:  []DateRange{},
		},
		{
			name:  "single day",
			input: []string{"2025-01-10"},
			want:  []DateRange{{Start: "2025-01-10", End: "2025-01-10"}},
		},
		{
			name:  "run and isolated day",
			input: []string{"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-10"},
			want: []DateRange{
				{Start: "2025-01-01", End: "2025-01-03"},
				{Start: "2025-01-10", End: "2025-01-10"},
			},
		},
		{
			name:  "unsorted with duplicates",
			input: []string{"2025-01-03", "2025-01-01", "2025-01-02", "2025-01-02"},
			want:  []DateRange{{Start: "2025-01-01", End: "2025-01-03"}},
		},
		{
			name:  "month and year boundaries",
			input: []string{"2024-12-31", "2025-01-01", "2025-02-28", "2025-03-01"},
			want: []DateRange{
				{Start: "2024-12-31", End: "2025-01-01"},
				{Start: "2025-02-28", End: "2025-03-01"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := GroupConsecutiveDates(tc.input)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestGroupConsecutiveDatesCoversInputExactly(t *testing.T) {
	input := []string{"2025-03-01", "2025-03-02", "2025-03-05", "2025-03-06", "2025-03-07", "2025-03-09"}

	groups := GroupConsecutiveDates(input)
	expanded := make([]string, 0, len(input))
	for index, group := range groups {
		expanded = append(expanded, ExpandDateRange(group)...)
		if index == 0 {
			continue
		}
		previousEnd, _ := ParseISODate(groups[index-1].End)
		start, _ := ParseISODate(group.Start)
		if start.Sub(previousEnd) <= 24*time.Hour {
			t.Fatalf("groups %v and %v touch or overlap", groups[index-1], group)
		}
	}
	if !reflect.DeepEqual(expanded, input) {
		t.Fatalf("expected expansion %v, got %v", input, expanded)
	}
}

func TestNextDay(t *testing.T) {
	tests := map[string]string{
		"2025-01-31": "2025-02-01",
		"2024-02-28": "2024-02-29",
		"2025-12-31": "2026-01-01",
	}
	for input, want := range tests {
		got, err := NextDay(input)
		if err != nil {
			t.Fatalf("NextDay(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("NextDay(%q): expected %s, got %s", input, want, got)
		}
	}

	if _, err := NextDay("2025-13-01"); !errors.Is(err, ErrInvalidISODate) {
		t.Fatalf("expected ErrInvalidISODate, got %v", err)
	}
}

func TestParseISODateReturnsUTCMidnight(t *testing.T) {
	parsed, err := ParseISODate(" 2025-03-30 ")
	if err != nil {
		t.Fatalf("ParseISODate returned error: %v", err)
	}
	if parsed.Location() != time.UTC || parsed.Hour() != 0 {
		t.Fatalf("expected UTC midnight, got %s", parsed)
	}
	if FormatISODate(parsed) != "2025-03-30" {
		t.Fatalf("unexpected round trip: %s", FormatISODate(parsed))
	}
}

func TestDateAtLocation(t *testing.T) {
	location, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	value := time.Date(2025, time.January, 31, 20, 0, 0, 0, time.UTC)
	day := DateAtLocation(value, location)
	if FormatISODate(day) != "2025-02-01" {
		t.Fatalf("expected local day 2025-02-01, got %s", FormatISODate(day))
	}
}

func TestExpandDateRangeRejectsInvertedRange(t *testing.T) {
	if days := ExpandDateRange(DateRange{Start: "2025-01-05", End: "2025-01-01"}); days != nil {
		t.Fatalf("expected nil for inverted range, got %v", days)
	}
}
