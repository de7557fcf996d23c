package calendar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/terraincognita07/tukicale/internal/models"
)

const icsProductID = "-//tukicale//calendar mirror//EN"

var icsFileNameUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

type icsEvent struct {
	uid   string
	event models.MirroredEvent
}

// ICSMirror keeps the mirrored events in one iCalendar file per calendar
// under dir. Every mutation rewrites the file.
type ICSMirror struct {
	dir string
	now func() time.Time

	mu        sync.Mutex
	calendars map[string]map[string]icsEvent
	names     map[string]string
}

func NewICSMirror(dir string) *ICSMirror {
	return &ICSMirror{
		dir:       dir,
		now:       time.Now,
		calendars: map[string]map[string]icsEvent{},
		names:     map[string]string{},
	}
}

func (mirror *ICSMirror) ResolveCalendar(_ context.Context, name string) (string, error) {
	calendarID := icsCalendarID(name)

	mirror.mu.Lock()
	defer mirror.mu.Unlock()

	if _, ok := mirror.calendars[calendarID]; ok {
		return calendarID, nil
	}

	events, err := readICSFile(mirror.path(calendarID))
	if err != nil {
		return "", err
	}
	mirror.calendars[calendarID] = events
	mirror.names[calendarID] = name
	if err := mirror.writeLocked(calendarID); err != nil {
		return "", err
	}
	return calendarID, nil
}

// ListEvents returns the events whose exclusive end lies after since.
func (mirror *ICSMirror) ListEvents(_ context.Context, calendarID string, since time.Time) ([]models.RemoteEvent, error) {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()

	events, ok := mirror.calendars[calendarID]
	if !ok {
		return nil, ErrCalendarNotResolved
	}

	sinceDay := since.Format("2006-01-02")
	result := make([]models.RemoteEvent, 0, len(events))
	for uid, entry := range events {
		if entry.event.End > sinceDay {
			result = append(result, models.RemoteEvent{ID: uid})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (mirror *ICSMirror) DeleteEvent(_ context.Context, calendarID string, eventID string) error {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()

	events, ok := mirror.calendars[calendarID]
	if !ok {
		return ErrCalendarNotResolved
	}
	if _, ok := events[eventID]; !ok {
		return ErrEventNotFound
	}
	delete(events, eventID)
	return mirror.writeLocked(calendarID)
}

func (mirror *ICSMirror) CreateEvent(_ context.Context, calendarID string, event models.MirroredEvent) error {
	mirror.mu.Lock()
	defer mirror.mu.Unlock()

	events, ok := mirror.calendars[calendarID]
	if !ok {
		return ErrCalendarNotResolved
	}
	uid := uuid.NewString() + "@tukicale"
	events[uid] = icsEvent{uid: uid, event: event}
	return mirror.writeLocked(calendarID)
}

// WriteFeed serializes the calendar for name, resolving it first.
func (mirror *ICSMirror) WriteFeed(ctx context.Context, name string, w io.Writer) error {
	calendarID, err := mirror.ResolveCalendar(ctx, name)
	if err != nil {
		return err
	}

	mirror.mu.Lock()
	content := mirror.serializeLocked(calendarID)
	mirror.mu.Unlock()

	_, err = io.WriteString(w, content)
	return err
}

func (mirror *ICSMirror) path(calendarID string) string {
	return filepath.Join(mirror.dir, calendarID+".ics")
}

func (mirror *ICSMirror) serializeLocked(calendarID string) string {
	calendar := ics.NewCalendar()
	calendar.SetMethod(ics.MethodPublish)
	calendar.SetProductId(icsProductID)
	calendar.SetXWRCalName(mirror.names[calendarID])

	entries := make([]icsEvent, 0, len(mirror.calendars[calendarID]))
	for _, entry := range mirror.calendars[calendarID] {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].event.Start != entries[j].event.Start {
			return entries[i].event.Start < entries[j].event.Start
		}
		return entries[i].uid < entries[j].uid
	})

	stamp := mirror.now().UTC()
	for _, entry := range entries {
		start, startErr := time.Parse("2006-01-02", entry.event.Start)
		end, endErr := time.Parse("2006-01-02", entry.event.End)
		if startErr != nil || endErr != nil {
			continue
		}
		vevent := calendar.AddEvent(entry.uid)
		vevent.SetDtStampTime(stamp)
		vevent.SetSummary(entry.event.Summary)
		vevent.SetAllDayStartAt(start)
		vevent.SetAllDayEndAt(end)
		vevent.AddProperty(ics.ComponentPropertyCategories, string(entry.event.Category))
		vevent.AddProperty(ics.ComponentPropertyClass, "PRIVATE")
		vevent.AddProperty(ics.ComponentPropertyTransp, "TRANSPARENT")
	}
	return calendar.Serialize()
}

func (mirror *ICSMirror) writeLocked(calendarID string) error {
	if err := os.MkdirAll(mirror.dir, 0o700); err != nil {
		return fmt.Errorf("create ics dir: %w", err)
	}

	tmp, err := os.CreateTemp(mirror.dir, ".tukicale-ics-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ics: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.WriteString(tmp, mirror.serializeLocked(calendarID)); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp ics: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp ics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ics: %w", err)
	}
	if err := os.Rename(tmpName, mirror.path(calendarID)); err != nil {
		return fmt.Errorf("replace ics: %w", err)
	}
	return nil
}

func readICSFile(path string) (map[string]icsEvent, error) {
	events := map[string]icsEvent{}

	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return events, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ics: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return events, nil
	}

	calendar, err := ics.ParseCalendar(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse ics: %w", err)
	}

	for _, vevent := range calendar.Events() {
		uid := vevent.Id()
		if uid == "" {
			continue
		}
		start, err := vevent.GetAllDayStartAt()
		if err != nil {
			continue
		}
		end, err := vevent.GetAllDayEndAt()
		if err != nil {
			continue
		}

		event := models.MirroredEvent{
			Start: start.Format("2006-01-02"),
			End:   end.Format("2006-01-02"),
		}
		if property := vevent.GetProperty(ics.ComponentPropertySummary); property != nil {
			event.Summary = property.Value
		}
		if property := vevent.GetProperty(ics.ComponentPropertyCategories); property != nil {
			event.Category = models.EventCategory(property.Value)
		}
		events[uid] = icsEvent{uid: uid, event: event}
	}
	return events, nil
}

// icsCalendarID turns a calendar name into a file stem. Names with
// characters outside ASCII get a suffix derived from the full name, so two
// Japanese names never share a file.
func icsCalendarID(name string) string {
	name = strings.TrimSpace(name)
	id := strings.ToLower(strings.Trim(icsFileNameUnsafe.ReplaceAllString(name, "-"), "-."))
	if !hasNonASCII(name) {
		if id == "" {
			return "calendar"
		}
		return id
	}

	suffix := uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()[:8]
	if id == "" {
		return "calendar-" + suffix
	}
	return id + "-" + suffix
}

func hasNonASCII(value string) bool {
	for _, r := range value {
		if r > 127 {
			return true
		}
	}
	return false
}
