package services

import (
	"time"

	"github.com/terraincognita07/tukicale/internal/models"
)

type CalendarDayState struct {
	Date         string `json:"date"`
	Day          int    `json:"day"`
	InMonth      bool   `json:"in_month"`
	IsToday      bool   `json:"is_today"`
	IsPeriod     bool   `json:"is_period"`
	IsFertile    bool   `json:"is_fertile"`
	IsPMS        bool   `json:"is_pms"`
	IsNextPeriod bool   `json:"is_next_period"`
	HasIntimacy  bool   `json:"has_intimacy"`
	HasHealth    bool   `json:"has_health"`
}

type DayDetail struct {
	Date         string                  `json:"date"`
	Periods      []models.PeriodRecord   `json:"periods"`
	Intimacy     []models.IntimacyRecord `json:"intimacy"`
	Health       []models.HealthRecord   `json:"health"`
	IsFertile    bool                    `json:"is_fertile"`
	IsPMS        bool                    `json:"is_pms"`
	IsNextPeriod bool                    `json:"is_next_period"`
}

func (detail DayDetail) HasRecords() bool {
	return len(detail.Periods) > 0 || len(detail.Intimacy) > 0 || len(detail.Health) > 0
}

type predictionIndex struct {
	fertile    map[string]bool
	pms        map[string]bool
	nextPeriod map[string]bool
}

func newPredictionIndex(predictions Predictions) predictionIndex {
	return predictionIndex{
		fertile:    stringSet(predictions.Fertile),
		pms:        stringSet(predictions.PMS),
		nextPeriod: stringSet(predictions.NextPeriod),
	}
}

// BuildCalendarDayStates lays out a Sunday-first month grid with record and
// prediction marks for every cell.
func BuildCalendarDayStates(monthStart time.Time, records models.RecordSet, now time.Time, location *time.Location) []CalendarDayState {
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	gridStart := monthStart.AddDate(0, 0, -int(monthStart.Weekday()))
	gridEnd := monthEnd.AddDate(0, 0, 6-int(monthEnd.Weekday()))

	index := newPredictionIndex(BuildPredictions(records.Periods))
	intimacyDays := make(map[string]bool, len(records.Intimacy))
	for _, record := range records.Intimacy {
		intimacyDays[FormatISODate(record.Date)] = true
	}
	healthDays := make(map[string]bool, len(records.Health))
	for _, record := range records.Health {
		healthDays[FormatISODate(record.Date)] = true
	}

	todayKey := FormatISODate(DateAtLocation(now, location))

	days := make([]CalendarDayState, 0, 42)
	for day := gridStart; !day.After(gridEnd); day = day.AddDate(0, 0, 1) {
		key := FormatISODate(day)
		days = append(days, CalendarDayState{
			Date:         key,
			Day:          day.Day(),
			InMonth:      day.Month() == monthStart.Month(),
			IsToday:      key == todayKey,
			IsPeriod:     periodCoversDay(records.Periods, day),
			IsFertile:    index.fertile[key],
			IsPMS:        index.pms[key],
			IsNextPeriod: index.nextPeriod[key],
			HasIntimacy:  intimacyDays[key],
			HasHealth:    healthDays[key],
		})
	}
	return days
}

func BuildDayDetail(day time.Time, records models.RecordSet) DayDetail {
	key := FormatISODate(day)
	index := newPredictionIndex(BuildPredictions(records.Periods))

	detail := DayDetail{
		Date:         key,
		Periods:      []models.PeriodRecord{},
		Intimacy:     []models.IntimacyRecord{},
		Health:       []models.HealthRecord{},
		IsFertile:    index.fertile[key],
		IsPMS:        index.pms[key],
		IsNextPeriod: index.nextPeriod[key],
	}
	for _, period := range records.Periods {
		if period.Covers(day) {
			detail.Periods = append(detail.Periods, period)
		}
	}
	for _, record := range records.Intimacy {
		if FormatISODate(record.Date) == key {
			detail.Intimacy = append(detail.Intimacy, record)
		}
	}
	for _, record := range records.Health {
		if FormatISODate(record.Date) == key {
			detail.Health = append(detail.Health, record)
		}
	}
	return detail
}

func periodCoversDay(periods []models.PeriodRecord, day time.Time) bool {
	for _, period := range periods {
		if period.Covers(day) {
			return true
		}
	}
	return false
}

func stringSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, value := range values {
		set[value] = true
	}
	return set
}
