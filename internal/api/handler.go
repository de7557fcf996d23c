package api

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/terraincognita07/tukicale/internal/i18n"
	"github.com/terraincognita07/tukicale/internal/services"
)

// FeedWriter serves the iCalendar feed when the ics backend is active.
type FeedWriter interface {
	WriteFeed(ctx context.Context, name string, w io.Writer) error
}

type Dependencies struct {
	Records      *services.RecordService
	Settings     *services.SettingsService
	Stats        *services.StatsService
	Exports      *services.ExportService
	Sync         *services.SyncService
	I18n         *i18n.Manager
	Feed         FeedWriter
	CalendarName string
	SecretKey    string
	Location     *time.Location
	Now          func() time.Time
}

type Handler struct {
	records      *services.RecordService
	settings     *services.SettingsService
	stats        *services.StatsService
	exports      *services.ExportService
	sync         *services.SyncService
	i18n         *i18n.Manager
	feed         FeedWriter
	calendarName string
	secretKey    []byte
	location     *time.Location
	now          func() time.Time
}

func NewHandler(deps Dependencies) (*Handler, error) {
	if strings.TrimSpace(deps.SecretKey) == "" {
		return nil, errors.New("secret key is required")
	}
	if deps.Records == nil || deps.Settings == nil || deps.Stats == nil || deps.Exports == nil {
		return nil, errors.New("record, settings, stats and export services are required")
	}
	if deps.I18n == nil {
		return nil, errors.New("i18n manager is required")
	}

	handler := &Handler{
		records:      deps.Records,
		settings:     deps.Settings,
		stats:        deps.Stats,
		exports:      deps.Exports,
		sync:         deps.Sync,
		i18n:         deps.I18n,
		feed:         deps.Feed,
		calendarName: deps.CalendarName,
		secretKey:    []byte(deps.SecretKey),
		location:     deps.Location,
		now:          deps.Now,
	}
	if handler.location == nil {
		handler.location = time.UTC
	}
	if handler.now == nil {
		handler.now = time.Now
	}
	if handler.calendarName == "" {
		handler.calendarName = services.DefaultCalendarName
	}
	return handler, nil
}

func (handler *Handler) today() time.Time {
	return services.DateAtLocation(handler.now(), handler.location)
}
