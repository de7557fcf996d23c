package services

import (
	"errors"
	"strings"
	"time"

	"github.com/terraincognita07/tukicale/internal/models"
)

var (
	ErrExportFromDateInvalid = errors.New("export invalid from date")
	ErrExportToDateInvalid   = errors.New("export invalid to date")
	ErrExportRangeInvalid    = errors.New("export invalid range")
)

// ExportRange limits an export to records touching [From, To]. A nil bound is
// open.
type ExportRange struct {
	From *time.Time
	To   *time.Time
}

func ParseExportRange(rawFrom string, rawTo string) (ExportRange, error) {
	var exportRange ExportRange

	if fromRaw := strings.TrimSpace(rawFrom); fromRaw != "" {
		from, err := ParseISODate(fromRaw)
		if err != nil {
			return ExportRange{}, ErrExportFromDateInvalid
		}
		exportRange.From = &from
	}
	if toRaw := strings.TrimSpace(rawTo); toRaw != "" {
		to, err := ParseISODate(toRaw)
		if err != nil {
			return ExportRange{}, ErrExportToDateInvalid
		}
		exportRange.To = &to
	}

	if exportRange.From != nil && exportRange.To != nil && exportRange.To.Before(*exportRange.From) {
		return ExportRange{}, ErrExportRangeInvalid
	}
	return exportRange, nil
}

func (exportRange ExportRange) IsOpen() bool {
	return exportRange.From == nil && exportRange.To == nil
}

// Overlaps reports whether the inclusive day span start..end shares a day
// with the range.
func (exportRange ExportRange) Overlaps(start time.Time, end time.Time) bool {
	if exportRange.From != nil && CalendarDay(end).Before(*exportRange.From) {
		return false
	}
	if exportRange.To != nil && CalendarDay(start).After(*exportRange.To) {
		return false
	}
	return true
}

func (exportRange ExportRange) Contains(day time.Time) bool {
	return exportRange.Overlaps(day, day)
}

// Apply keeps periods overlapping the range and single-day records inside it.
func (exportRange ExportRange) Apply(records models.RecordSet) models.RecordSet {
	if exportRange.IsOpen() {
		return records
	}

	filtered := models.RecordSet{AgeGroup: records.AgeGroup}
	for _, period := range records.Periods {
		if exportRange.Overlaps(period.StartDate, period.EndDate) {
			filtered.Periods = append(filtered.Periods, period)
		}
	}
	for _, record := range records.Intimacy {
		if exportRange.Contains(record.Date) {
			filtered.Intimacy = append(filtered.Intimacy, record)
		}
	}
	for _, record := range records.Health {
		if exportRange.Contains(record.Date) {
			filtered.Health = append(filtered.Health, record)
		}
	}
	return filtered
}
