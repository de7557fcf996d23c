package services

import (
	"math"
	"sort"
	"time"

	"github.com/terraincognita07/tukicale/internal/models"
)

// SortPeriodsByStart returns a copy ordered by start date, oldest first. Ties
// keep their input order.
func SortPeriodsByStart(periods []models.PeriodRecord) []models.PeriodRecord {
	sorted := make([]models.PeriodRecord, 0, len(periods))
	sorted = append(sorted, periods...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartDate.Before(sorted[j].StartDate)
	})
	return sorted
}

// LatestPeriod is the record with the most recent start date. It is the only
// record forward projections are anchored on.
func LatestPeriod(periods []models.PeriodRecord) (models.PeriodRecord, bool) {
	if len(periods) == 0 {
		return models.PeriodRecord{}, false
	}
	latest := periods[0]
	for _, period := range periods[1:] {
		if period.StartDate.After(latest.StartDate) {
			latest = period
		}
	}
	return latest, true
}

// CycleLengths lists the day gaps between consecutive period starts.
func CycleLengths(periods []models.PeriodRecord) []int {
	if len(periods) < 2 {
		return nil
	}

	sorted := SortPeriodsByStart(periods)
	lengths := make([]int, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		lengths = append(lengths, models.CalendarDaysBetween(sorted[i-1].StartDate, sorted[i].StartDate))
	}
	return lengths
}

// AverageCycleLength falls back to the 28-day default with fewer than two
// records or when the rounded average is zero.
func AverageCycleLength(periods []models.PeriodRecord) int {
	lengths := CycleLengths(periods)
	if len(lengths) == 0 {
		return models.DefaultCycleLength
	}

	average := roundHalfUp(averageInts(lengths))
	if average == 0 {
		return models.DefaultCycleLength
	}
	return average
}

// AveragePeriodLength averages the stored durations, falling back to 5 days.
func AveragePeriodLength(periods []models.PeriodRecord) int {
	if len(periods) == 0 {
		return models.DefaultPeriodLength
	}

	durations := make([]int, 0, len(periods))
	for _, period := range periods {
		durations = append(durations, period.Days)
	}

	average := roundHalfUp(averageInts(durations))
	if average == 0 {
		return models.DefaultPeriodLength
	}
	return average
}

// DefaultPeriodEnd is the end date pre-filled for a period entered with only a start date.
func DefaultPeriodEnd(start time.Time, periods []models.PeriodRecord) time.Time {
	return start.AddDate(0, 0, AveragePeriodLength(periods)-1)
}

func averageInts(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	var total int
	for _, value := range values {
		total += value
	}
	return float64(total) / float64(len(values))
}

func roundHalfUp(value float64) int {
	return int(math.Floor(value + 0.5))
}

func medianInt(values []int) int {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]int, 0, len(values))
	sorted = append(sorted, values...)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return roundHalfUp(float64(sorted[mid-1]+sorted[mid]) / 2)
}
