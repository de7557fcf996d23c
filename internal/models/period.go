package models

import "time"

const (
	DefaultCycleLength  = 28
	DefaultPeriodLength = 5
)

type PeriodRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StartDate time.Time `gorm:"type:date;not null;index" json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null" json:"end_date"`
	Days      int       `gorm:"not null" json:"days"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// PeriodDays is the inclusive day count between two calendar dates.
func PeriodDays(start time.Time, end time.Time) int {
	return CalendarDaysBetween(start, end) + 1
}

// CalendarDaysBetween counts calendar days from a to b using date fields only,
// so DST shifts in the values' locations do not change the result.
func CalendarDaysBetween(a time.Time, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

func NewPeriodRecord(start time.Time, end time.Time) PeriodRecord {
	return PeriodRecord{
		StartDate: start,
		EndDate:   end,
		Days:      PeriodDays(start, end),
	}
}

func (record PeriodRecord) Covers(day time.Time) bool {
	return CalendarDaysBetween(record.StartDate, day) >= 0 && CalendarDaysBetween(day, record.EndDate) >= 0
}
