// Package calendar implements the external calendars that records are
// mirrored onto.
package calendar

import (
	"errors"

	"github.com/terraincognita07/tukicale/internal/services"
)

var (
	ErrCalendarNotResolved = errors.New("calendar not resolved")
	ErrEventNotFound       = errors.New("event not found")
)

var (
	_ services.CalendarMirror = (*GoogleMirror)(nil)
	_ services.CalendarMirror = (*ICSMirror)(nil)
	_ services.CalendarMirror = (*MemoryMirror)(nil)
)
