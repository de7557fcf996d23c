package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrInvalidSchedule = errors.New("invalid sync schedule")

type ScheduledSyncer interface {
	SyncNow(ctx context.Context) (ReconcileReport, error)
}

// SyncScheduler runs a full resync on a cron schedule. Overlapping ticks are
// skipped, not queued.
type SyncScheduler struct {
	cron    *cron.Cron
	syncer  ScheduledSyncer
	timeout time.Duration
}

func NewSyncScheduler(schedule string, location *time.Location, syncer ScheduledSyncer, timeout time.Duration) (*SyncScheduler, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, ErrInvalidSchedule
	}
	if location == nil {
		location = time.UTC
	}

	scheduler := &SyncScheduler{
		cron: cron.New(
			cron.WithLocation(location),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		syncer:  syncer,
		timeout: timeout,
	}
	if _, err := scheduler.cron.AddFunc(schedule, scheduler.tick); err != nil {
		return nil, errors.Join(ErrInvalidSchedule, err)
	}
	return scheduler, nil
}

func (scheduler *SyncScheduler) Start() {
	scheduler.cron.Start()
}

// Stop prevents new runs and waits for a running pass or ctx, whichever ends first.
func (scheduler *SyncScheduler) Stop(ctx context.Context) {
	done := scheduler.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (scheduler *SyncScheduler) Next() time.Time {
	entries := scheduler.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (scheduler *SyncScheduler) tick() {
	ctx := context.Background()
	if scheduler.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, scheduler.timeout)
		defer cancel()
	}
	if _, err := scheduler.syncer.SyncNow(ctx); err != nil {
		log.Printf("scheduled calendar sync failed: %v", err)
	}
}
