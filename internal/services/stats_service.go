package services

import (
	"context"
	"time"

	"github.com/terraincognita07/tukicale/internal/models"
)

const DefaultForecastCycles = 6

type StatsRecordReader interface {
	LoadRecordSet(ctx context.Context) (models.RecordSet, error)
}

type CycleStats struct {
	PeriodCount         int      `json:"period_count"`
	CycleLengths        []int    `json:"cycle_lengths"`
	AverageCycleLength  int      `json:"average_cycle_length"`
	MedianCycleLength   int      `json:"median_cycle_length"`
	AveragePeriodLength int      `json:"average_period_length"`
	UsesDefaultCycle    bool     `json:"uses_default_cycle"`
	LastPeriodStart     string   `json:"last_period_start,omitempty"`
	NextPeriodStart     string   `json:"next_period_start,omitempty"`
	DaysUntilNextPeriod *int     `json:"days_until_next_period,omitempty"`
	UpcomingStarts      []string `json:"upcoming_starts"`
}

type StatsService struct {
	records StatsRecordReader
}

func NewStatsService(records StatsRecordReader) *StatsService {
	return &StatsService{records: records}
}

func (service *StatsService) Build(ctx context.Context, now time.Time, location *time.Location, forecast int) (CycleStats, error) {
	records, err := service.records.LoadRecordSet(ctx)
	if err != nil {
		return CycleStats{}, ErrRecordsLoadFailed
	}
	return BuildCycleStats(records.Periods, now, location, forecast)
}

// BuildCycleStats summarises the period history. DaysUntilNextPeriod is
// negative when the estimated start has already passed.
func BuildCycleStats(periods []models.PeriodRecord, now time.Time, location *time.Location, forecast int) (CycleStats, error) {
	lengths := CycleLengths(periods)
	if lengths == nil {
		lengths = []int{}
	}

	stats := CycleStats{
		PeriodCount:         len(periods),
		CycleLengths:        lengths,
		AverageCycleLength:  AverageCycleLength(periods),
		MedianCycleLength:   medianInt(lengths),
		AveragePeriodLength: AveragePeriodLength(periods),
		UsesDefaultCycle:    len(lengths) == 0,
		UpcomingStarts:      []string{},
	}
	if stats.MedianCycleLength == 0 {
		stats.MedianCycleLength = stats.AverageCycleLength
	}

	latest, ok := LatestPeriod(periods)
	if !ok {
		return stats, nil
	}
	stats.LastPeriodStart = FormatISODate(latest.StartDate)

	nextStart, _ := NextPeriodStart(periods)
	stats.NextPeriodStart = FormatISODate(nextStart)
	today := CalendarDay(DateAtLocation(now, location))
	daysUntil := models.CalendarDaysBetween(today, nextStart)
	stats.DaysUntilNextPeriod = &daysUntil

	upcoming, err := ForecastPeriodStarts(periods, forecast)
	if err != nil {
		return stats, err
	}
	stats.UpcomingStarts = upcoming
	return stats, nil
}
