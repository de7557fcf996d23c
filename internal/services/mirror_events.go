package services

import (
	"time"

	"github.com/terraincognita07/tukicale/internal/models"
)

// EventLabeler supplies the summaries written to the external calendar.
type EventLabeler interface {
	EventSummary(category models.EventCategory) string
	HealthSummary(symptom string) string
}

type defaultEventLabeler struct{}

var defaultEventSummaries = map[models.EventCategory]string{
	models.CategoryPeriod:     "生理",
	models.CategoryFertile:    "妊娠可能日",
	models.CategoryPMS:        "PMS予測",
	models.CategoryNextPeriod: "次回生理予測",
	models.CategoryIntimacy:   "●",
	models.CategoryHealth:     "体調",
}

func (defaultEventLabeler) EventSummary(category models.EventCategory) string {
	return defaultEventSummaries[category]
}

func (defaultEventLabeler) HealthSummary(symptom string) string {
	return defaultEventSummaries[models.CategoryHealth] + ": " + symptom
}

// BuildMirroredEvents derives the complete event set for one reconciliation
// pass. It has no side effects. Intimacy events carry only the category
// label; partner, contraception and memo never leave the store.
func BuildMirroredEvents(records models.RecordSet, settings models.SyncSettings, labels EventLabeler) []models.MirroredEvent {
	if labels == nil {
		labels = defaultEventLabeler{}
	}

	events := make([]models.MirroredEvent, 0)

	if settings.Period {
		for _, period := range records.Periods {
			events = append(events, models.MirroredEvent{
				Summary:  labels.EventSummary(models.CategoryPeriod),
				Start:    FormatISODate(period.StartDate),
				End:      FormatISODate(period.EndDate.AddDate(0, 0, 1)),
				Category: models.CategoryPeriod,
			})
		}
	}

	if settings.Fertile {
		events = appendRangeEvents(events, FertileDays(records.Periods), models.CategoryFertile, labels)
	}
	if settings.PMS {
		events = appendRangeEvents(events, PMSDays(records.Periods), models.CategoryPMS, labels)
	}
	if settings.Period {
		events = appendRangeEvents(events, NextPeriodDays(records.Periods), models.CategoryNextPeriod, labels)
	}

	if settings.Intimacy {
		for _, record := range records.Intimacy {
			events = append(events, singleDayEvent(record.Date, labels.EventSummary(models.CategoryIntimacy), models.CategoryIntimacy))
		}
	}

	if settings.Health {
		for _, record := range records.Health {
			events = append(events, singleDayEvent(record.Date, labels.HealthSummary(record.Symptom), models.CategoryHealth))
		}
	}

	return events
}

func appendRangeEvents(events []models.MirroredEvent, days []string, category models.EventCategory, labels EventLabeler) []models.MirroredEvent {
	for _, group := range GroupConsecutiveDates(days) {
		events = append(events, models.MirroredEvent{
			Summary:  labels.EventSummary(category),
			Start:    group.Start,
			End:      mustNextDay(group.End),
			Category: category,
		})
	}
	return events
}

func singleDayEvent(day time.Time, summary string, category models.EventCategory) models.MirroredEvent {
	start := FormatISODate(day)
	return models.MirroredEvent{
		Summary:  summary,
		Start:    start,
		End:      mustNextDay(start),
		Category: category,
	}
}
