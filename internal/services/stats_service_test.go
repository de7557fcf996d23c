package services

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/terraincognita07/tukicale/internal/models"
)

type stubStatsRecords struct {
	records models.RecordSet
	err     error
}

func (stub stubStatsRecords) LoadRecordSet(context.Context) (models.RecordSet, error) {
	return stub.records, stub.err
}

func TestBuildCycleStatsWithoutHistory(t *testing.T) {
	stats, err := BuildCycleStats(nil, fixedNow(), time.UTC, 3)
	if err != nil {
		t.Fatalf("BuildCycleStats returned error: %v", err)
	}
	if stats.AverageCycleLength != 28 || stats.AveragePeriodLength != 5 || !stats.UsesDefaultCycle {
		t.Fatalf("expected documented defaults, got %+v", stats)
	}
	if stats.DaysUntilNextPeriod != nil || len(stats.UpcomingStarts) != 0 {
		t.Fatalf("expected no projection without records, got %+v", stats)
	}
}

func TestBuildCycleStats(t *testing.T) {
	periods := []models.PeriodRecord{
		makePeriod(t, "2025-04-01", "2025-04-05"),
		makePeriod(t, "2025-04-29", "2025-05-03"),
		makePeriod(t, "2025-05-29", "2025-06-02"),
	}

	stats, err := BuildCycleStats(periods, fixedNow(), time.UTC, 2)
	if err != nil {
		t.Fatalf("BuildCycleStats returned error: %v", err)
	}
	if !reflect.DeepEqual(stats.CycleLengths, []int{28, 30}) {
		t.Fatalf("unexpected cycle lengths %v", stats.CycleLengths)
	}
	if stats.AverageCycleLength != 29 || stats.MedianCycleLength != 29 {
		t.Fatalf("unexpected averages %+v", stats)
	}
	if stats.LastPeriodStart != "2025-05-29" || stats.NextPeriodStart != "2025-06-27" {
		t.Fatalf("unexpected anchors %+v", stats)
	}
	if stats.DaysUntilNextPeriod == nil || *stats.DaysUntilNextPeriod != 12 {
		t.Fatalf("expected 12 days until next period, got %v", stats.DaysUntilNextPeriod)
	}
	if !reflect.DeepEqual(stats.UpcomingStarts, []string{"2025-06-27", "2025-07-26"}) {
		t.Fatalf("unexpected forecast %v", stats.UpcomingStarts)
	}
}

func TestStatsServiceBuildReportsLoadFailure(t *testing.T) {
	service := NewStatsService(stubStatsRecords{err: errors.New("disk")})
	if _, err := service.Build(context.Background(), fixedNow(), time.UTC, 1); !errors.Is(err, ErrRecordsLoadFailed) {
		t.Fatalf("expected ErrRecordsLoadFailed, got %v", err)
	}
}
