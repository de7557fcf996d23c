package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/terraincognita07/tukicale/internal/models"
)

type recordingMirror struct {
	mu         sync.Mutex
	calls      []string
	existing   []models.RemoteEvent
	created    []models.MirroredEvent
	since      time.Time
	resolveErr error
	listErr    error
	failDelete map[string]bool
	failCreate map[models.EventCategory]bool
	deleteWait time.Duration
}

func (mirror *recordingMirror) record(call string) {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	mirror.calls = append(mirror.calls, call)
}

func (mirror *recordingMirror) ResolveCalendar(_ context.Context, name string) (string, error) {
	mirror.record("resolve:" + name)
	if mirror.resolveErr != nil {
		return "", mirror.resolveErr
	}
	return "cal-1", nil
}

func (mirror *recordingMirror) ListEvents(_ context.Context, _ string, since time.Time) ([]models.RemoteEvent, error) {
	mirror.record("list")
	mirror.since = since
	if mirror.listErr != nil {
		return nil, mirror.listErr
	}
	return mirror.existing, nil
}

func (mirror *recordingMirror) DeleteEvent(_ context.Context, _ string, eventID string) error {
	if mirror.deleteWait > 0 {
		time.Sleep(mirror.deleteWait)
	}
	mirror.record("delete:" + eventID)
	if mirror.failDelete[eventID] {
		return errors.New("delete failed")
	}
	return nil
}

func (mirror *recordingMirror) CreateEvent(_ context.Context, _ string, event models.MirroredEvent) error {
	mirror.record("create:" + string(event.Category))
	if mirror.failCreate[event.Category] {
		return errors.New("create failed")
	}
	mirror.mu.Lock()
	mirror.created = append(mirror.created, event)
	mirror.mu.Unlock()
	return nil
}

func remoteEvents(count int) []models.RemoteEvent {
	events := make([]models.RemoteEvent, 0, count)
	for i := 0; i < count; i++ {
		events = append(events, models.RemoteEvent{ID: fmt.Sprintf("evt-%d", i)})
	}
	return events
}

func fixedNow() time.Time {
	return time.Date(2025, time.June, 15, 9, 0, 0, 0, time.UTC)
}

func TestReconcilerDeletesBeforeCreating(t *testing.T) {
	mirror := &recordingMirror{existing: remoteEvents(12), deleteWait: 2 * time.Millisecond}
	reconciler := NewReconciler(mirror, ReconcilerOptions{Concurrency: 4, Now: fixedNow})

	report, err := reconciler.Run(context.Background(), sampleRecordSet(t), allSyncEnabled())
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Deleted != 12 || report.Created != 6 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.PassID == "" || report.CalendarID != "cal-1" {
		t.Fatalf("expected pass id and calendar id in report, got %+v", report)
	}

	lastDelete := -1
	firstCreate := len(mirror.calls)
	for index, call := range mirror.calls {
		switch {
		case len(call) > 7 && call[:7] == "delete:":
			lastDelete = index
		case len(call) > 7 && call[:7] == "create:" && index < firstCreate:
			firstCreate = index
		}
	}
	if lastDelete == -1 || lastDelete > firstCreate {
		t.Fatalf("expected every delete before every create, got calls %v", mirror.calls)
	}
}

func TestReconcilerUsesLookbackWindowAndCalendarName(t *testing.T) {
	mirror := &recordingMirror{}
	reconciler := NewReconciler(mirror, ReconcilerOptions{Now: fixedNow})

	if ok := reconciler.Reconcile(context.Background(), models.EmptyRecordSet(), models.DefaultSyncSettings()); !ok {
		t.Fatal("expected reconcile to succeed")
	}
	if mirror.calls[0] != "resolve:"+DefaultCalendarName {
		t.Fatalf("expected calendar %q to be resolved first, got %v", DefaultCalendarName, mirror.calls)
	}
	want := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	if !mirror.since.Equal(want) {
		t.Fatalf("expected lookback start %s, got %s", want, mirror.since)
	}

	wider := NewReconciler(mirror, ReconcilerOptions{Now: fixedNow, LookbackYears: 3})
	if got := wider.LookbackStart(); got.Year() != 2022 {
		t.Fatalf("expected lookback year 2022, got %d", got.Year())
	}
}

func TestReconcilerFailsWhenCalendarCannotBeResolved(t *testing.T) {
	mirror := &recordingMirror{resolveErr: errors.New("unauthorized")}
	reconciler := NewReconciler(mirror, ReconcilerOptions{Now: fixedNow})

	_, err := reconciler.Run(context.Background(), sampleRecordSet(t), allSyncEnabled())
	if !errors.Is(err, ErrCalendarUnavailable) {
		t.Fatalf("expected ErrCalendarUnavailable, got %v", err)
	}
	if len(mirror.calls) != 1 {
		t.Fatalf("expected no calls after failed resolve, got %v", mirror.calls)
	}
}

func TestReconcilerDoesNotCreateWhenListingFails(t *testing.T) {
	mirror := &recordingMirror{listErr: errors.New("timeout")}
	reconciler := NewReconciler(mirror, ReconcilerOptions{Now: fixedNow})

	if reconciler.Reconcile(context.Background(), sampleRecordSet(t), allSyncEnabled()) {
		t.Fatal("expected reconcile to report failure")
	}
	if len(mirror.created) != 0 {
		t.Fatalf("expected no creates after list failure, got %d", len(mirror.created))
	}
}

func TestReconcilerReportsPartialFailureWithoutRollback(t *testing.T) {
	mirror := &recordingMirror{
		existing:   remoteEvents(3),
		failDelete: map[string]bool{"evt-1": true},
		failCreate: map[models.EventCategory]bool{models.CategoryPMS: true},
	}
	reconciler := NewReconciler(mirror, ReconcilerOptions{Now: fixedNow})

	report, err := reconciler.Run(context.Background(), sampleRecordSet(t), allSyncEnabled())
	if !errors.Is(err, ErrPartialReconcile) {
		t.Fatalf("expected ErrPartialReconcile, got %v", err)
	}
	if report.Deleted != 2 || report.DeleteFailed != 1 {
		t.Fatalf("unexpected delete counts %+v", report)
	}
	if report.Created != 5 || report.CreateFailed != 1 {
		t.Fatalf("unexpected create counts %+v", report)
	}
	if len(mirror.created) != 5 {
		t.Fatalf("expected surviving creates to stay in place, got %d", len(mirror.created))
	}
}

func TestReconcilerWithEmptyRecordsOnlyDeletes(t *testing.T) {
	mirror := &recordingMirror{existing: remoteEvents(5)}
	reconciler := NewReconciler(mirror, ReconcilerOptions{Now: fixedNow})

	report, err := reconciler.Run(context.Background(), models.EmptyRecordSet(), models.SyncSettings{})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if report.Deleted != 5 || report.Created != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}
