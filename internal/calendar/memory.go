package calendar

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/terraincognita07/tukicale/internal/models"
)

// MemoryMirror holds events in process. It backs dry runs.
type MemoryMirror struct {
	mu        sync.Mutex
	calendars map[string]string
	events    map[string]map[string]models.MirroredEvent
	nextID    int
}

func NewMemoryMirror() *MemoryMirror {
	return &MemoryMirror{
		calendars: map[string]string{},
		events:    map[string]map[string]models.MirroredEvent{},
	}
}

func (mirror *MemoryMirror) ResolveCalendar(_ context.Context, name string) (string, error) {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()

	if calendarID, ok := mirror.calendars[name]; ok {
		return calendarID, nil
	}
	mirror.nextID++
	calendarID := "memory-" + strconv.Itoa(mirror.nextID)
	mirror.calendars[name] = calendarID
	mirror.events[calendarID] = map[string]models.MirroredEvent{}
	return calendarID, nil
}

func (mirror *MemoryMirror) ListEvents(_ context.Context, calendarID string, since time.Time) ([]models.RemoteEvent, error) {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()

	sinceDay := since.Format("2006-01-02")
	result := make([]models.RemoteEvent, 0)
	for id, event := range mirror.events[calendarID] {
		if event.End > sinceDay {
			result = append(result, models.RemoteEvent{ID: id})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (mirror *MemoryMirror) DeleteEvent(_ context.Context, calendarID string, eventID string) error {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()

	if _, ok := mirror.events[calendarID][eventID]; !ok {
		return ErrEventNotFound
	}
	delete(mirror.events[calendarID], eventID)
	return nil
}

func (mirror *MemoryMirror) CreateEvent(_ context.Context, calendarID string, event models.MirroredEvent) error {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()

	events, ok := mirror.events[calendarID]
	if !ok {
		return ErrCalendarNotResolved
	}
	mirror.nextID++
	events["event-"+strconv.Itoa(mirror.nextID)] = event
	return nil
}

// Events returns the events of the named calendar ordered by start.
func (mirror *MemoryMirror) Events(name string) []models.MirroredEvent {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()

	result := make([]models.MirroredEvent, 0)
	for _, event := range mirror.events[mirror.calendars[name]] {
		result = append(result, event)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Start != result[j].Start {
			return result[i].Start < result[j].Start
		}
		return result[i].Category < result[j].Category
	})
	return result
}
