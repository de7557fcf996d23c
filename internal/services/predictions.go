package services

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"
	"github.com/terraincognita07/tukicale/internal/models"
)

const (
	lutealPhaseDays      = 14
	fertileWindowRadius  = 3
	pmsWindowStartOffset = -10
	pmsWindowEndOffset   = -3
	maxForecastCycles    = 24
)

var ErrForecastUnavailable = errors.New("forecast unavailable")

type Predictions struct {
	Fertile    []string `json:"fertile"`
	PMS        []string `json:"pms"`
	NextPeriod []string `json:"next_period"`
}

// FertileDays is the 7-day window centred on the estimated ovulation day
// (latest start + average cycle - 14).
func FertileDays(periods []models.PeriodRecord) []string {
	latest, ok := LatestPeriod(periods)
	if !ok {
		return []string{}
	}
	ovulation := latest.StartDate.AddDate(0, 0, AverageCycleLength(periods)-lutealPhaseDays)
	return projectWindow(latest, ovulation, -fertileWindowRadius, fertileWindowRadius)
}

// PMSDays covers 10 to 3 days before the estimated next period start.
func PMSDays(periods []models.PeriodRecord) []string {
	latest, ok := LatestPeriod(periods)
	if !ok {
		return []string{}
	}
	nextStart := latest.StartDate.AddDate(0, 0, AverageCycleLength(periods))
	return projectWindow(latest, nextStart, pmsWindowStartOffset, pmsWindowEndOffset)
}

// NextPeriodDays spans the average period length from the estimated next start.
func NextPeriodDays(periods []models.PeriodRecord) []string {
	latest, ok := LatestPeriod(periods)
	if !ok {
		return []string{}
	}
	nextStart := latest.StartDate.AddDate(0, 0, AverageCycleLength(periods))
	return projectWindow(latest, nextStart, 0, AveragePeriodLength(periods)-1)
}

func BuildPredictions(periods []models.PeriodRecord) Predictions {
	return Predictions{
		Fertile:    FertileDays(periods),
		PMS:        PMSDays(periods),
		NextPeriod: NextPeriodDays(periods),
	}
}

// NextPeriodStart is the unfiltered estimate of the next period's first day.
func NextPeriodStart(periods []models.PeriodRecord) (time.Time, bool) {
	latest, ok := LatestPeriod(periods)
	if !ok {
		return time.Time{}, false
	}
	return latest.StartDate.AddDate(0, 0, AverageCycleLength(periods)), true
}

// projectWindow emits anchor+fromOffset..anchor+toOffset, dropping every day
// that is not strictly after the latest period's end date.
func projectWindow(latest models.PeriodRecord, anchor time.Time, fromOffset int, toOffset int) []string {
	days := make([]string, 0, max(toOffset-fromOffset+1, 0))
	for offset := fromOffset; offset <= toOffset; offset++ {
		day := anchor.AddDate(0, 0, offset)
		if models.CalendarDaysBetween(latest.EndDate, day) <= 0 {
			continue
		}
		days = append(days, FormatISODate(day))
	}
	return days
}

// ForecastPeriodStarts repeats the average cycle forward from the next
// estimated start.
func ForecastPeriodStarts(periods []models.PeriodRecord, count int) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}
	if count > maxForecastCycles {
		count = maxForecastCycles
	}

	nextStart, ok := NextPeriodStart(periods)
	if !ok {
		return []string{}, nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: AverageCycleLength(periods),
		Count:    count,
		Dtstart:  CalendarDay(nextStart),
	})
	if err != nil {
		return nil, errors.Join(ErrForecastUnavailable, err)
	}

	occurrences := rule.All()
	starts := make([]string, 0, len(occurrences))
	for _, occurrence := range occurrences {
		starts = append(starts, FormatISODate(occurrence))
	}
	return starts, nil
}
