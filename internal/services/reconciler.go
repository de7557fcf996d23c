package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/tukicale/internal/models"
)

const (
	DefaultCalendarName      = "TukiCale"
	defaultLookbackYears     = 1
	defaultMirrorConcurrency = 4
)

var (
	ErrCalendarUnavailable = errors.New("calendar unavailable")
	ErrListEventsFailed    = errors.New("list mirrored events failed")
	ErrPartialReconcile    = errors.New("reconciliation partially failed")
)

// CalendarMirror is the external calendar the records are projected onto.
// Implementations must be safe for concurrent use.
type CalendarMirror interface {
	ResolveCalendar(ctx context.Context, name string) (string, error)
	ListEvents(ctx context.Context, calendarID string, since time.Time) ([]models.RemoteEvent, error)
	DeleteEvent(ctx context.Context, calendarID string, eventID string) error
	CreateEvent(ctx context.Context, calendarID string, event models.MirroredEvent) error
}

type ReconcilerOptions struct {
	CalendarName  string
	LookbackYears int
	Concurrency   int
	Labels        EventLabeler
	Location      *time.Location
	Now           func() time.Time
}

type ReconcileReport struct {
	PassID       string `json:"pass_id"`
	CalendarID   string `json:"calendar_id"`
	Listed       int    `json:"listed"`
	Deleted      int    `json:"deleted"`
	DeleteFailed int    `json:"delete_failed"`
	Created      int    `json:"created"`
	CreateFailed int    `json:"create_failed"`
}

type Reconciler struct {
	mirror        CalendarMirror
	calendarName  string
	lookbackYears int
	concurrency   int
	labels        EventLabeler
	location      *time.Location
	now           func() time.Time
}

func NewReconciler(mirror CalendarMirror, options ReconcilerOptions) *Reconciler {
	reconciler := &Reconciler{
		mirror:        mirror,
		calendarName:  strings.TrimSpace(options.CalendarName),
		lookbackYears: options.LookbackYears,
		concurrency:   options.Concurrency,
		labels:        options.Labels,
		location:      options.Location,
		now:           options.Now,
	}
	if reconciler.calendarName == "" {
		reconciler.calendarName = DefaultCalendarName
	}
	if reconciler.lookbackYears <= 0 {
		reconciler.lookbackYears = defaultLookbackYears
	}
	if reconciler.concurrency <= 0 {
		reconciler.concurrency = defaultMirrorConcurrency
	}
	if reconciler.labels == nil {
		reconciler.labels = defaultEventLabeler{}
	}
	if reconciler.location == nil {
		reconciler.location = time.UTC
	}
	if reconciler.now == nil {
		reconciler.now = time.Now
	}
	return reconciler
}

// Reconcile runs one full pass and reduces the outcome to a success flag.
func (reconciler *Reconciler) Reconcile(ctx context.Context, records models.RecordSet, settings models.SyncSettings) bool {
	report, err := reconciler.Run(ctx, records, settings)
	if err != nil {
		log.Printf("calendar sync %s failed: %v (deleted=%d/%d created=%d failed_create=%d)",
			report.PassID, err, report.Deleted, report.Listed, report.Created, report.CreateFailed)
		return false
	}
	log.Printf("calendar sync %s done: deleted=%d created=%d", report.PassID, report.Deleted, report.Created)
	return true
}

// Run deletes every event on the dedicated calendar inside the lookback
// window and recreates the full event set. All deletes are resolved before the
// first create is issued. Failures are counted, never rolled back.
func (reconciler *Reconciler) Run(ctx context.Context, records models.RecordSet, settings models.SyncSettings) (ReconcileReport, error) {
	report := ReconcileReport{PassID: uuid.NewString()}

	calendarID, err := reconciler.mirror.ResolveCalendar(ctx, reconciler.calendarName)
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
	if strings.TrimSpace(calendarID) == "" {
		return report, ErrCalendarUnavailable
	}
	report.CalendarID = calendarID

	existing, err := reconciler.mirror.ListEvents(ctx, calendarID, reconciler.LookbackStart())
	if err != nil {
		return report, fmt.Errorf("%w: %v", ErrListEventsFailed, err)
	}
	report.Listed = len(existing)

	deleteFailures := reconciler.runBounded(ctx, len(existing), func(index int) error {
		return reconciler.mirror.DeleteEvent(ctx, calendarID, existing[index].ID)
	})
	report.DeleteFailed = deleteFailures
	report.Deleted = len(existing) - deleteFailures

	events := BuildMirroredEvents(records, settings, reconciler.labels)
	createFailures := reconciler.runBounded(ctx, len(events), func(index int) error {
		return reconciler.mirror.CreateEvent(ctx, calendarID, events[index])
	})
	report.CreateFailed = createFailures
	report.Created = len(events) - createFailures

	if deleteFailures > 0 || createFailures > 0 {
		return report, fmt.Errorf("%w: %d deletes and %d creates failed", ErrPartialReconcile, deleteFailures, createFailures)
	}
	return report, nil
}

// LookbackStart is January 1 of the year lookbackYears before the current one.
func (reconciler *Reconciler) LookbackStart() time.Time {
	now := reconciler.now().In(reconciler.location)
	return time.Date(now.Year()-reconciler.lookbackYears, time.January, 1, 0, 0, 0, 0, reconciler.location)
}

func (reconciler *Reconciler) CalendarName() string {
	return reconciler.calendarName
}

// runBounded calls fn for 0..count-1 with at most reconciler.concurrency calls
// in flight and returns only after every call has returned.
func (reconciler *Reconciler) runBounded(ctx context.Context, count int, fn func(index int) error) int {
	if count == 0 {
		return 0
	}

	var failures atomic.Int64
	var wg sync.WaitGroup
	slots := make(chan struct{}, reconciler.concurrency)

	for index := 0; index < count; index++ {
		if ctx.Err() != nil {
			failures.Add(int64(count - index))
			break
		}
		slots <- struct{}{}
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			defer func() { <-slots }()
			if err := fn(index); err != nil {
				failures.Add(1)
			}
		}(index)
	}

	wg.Wait()
	return int(failures.Load())
}
