package models

type EventCategory string

const (
	CategoryPeriod     EventCategory = "period"
	CategoryFertile    EventCategory = "fertile"
	CategoryPMS        EventCategory = "pms"
	CategoryNextPeriod EventCategory = "next_period"
	CategoryIntimacy   EventCategory = "intimacy"
	CategoryHealth     EventCategory = "health"
)

func EventCategories() []EventCategory {
	return []EventCategory{
		CategoryPeriod,
		CategoryFertile,
		CategoryPMS,
		CategoryNextPeriod,
		CategoryIntimacy,
		CategoryHealth,
	}
}

// MirroredEvent is an all-day event. Start is inclusive, End is exclusive;
// both are YYYY-MM-DD strings.
type MirroredEvent struct {
	Summary  string        `json:"summary"`
	Start    string        `json:"start"`
	End      string        `json:"end"`
	Category EventCategory `json:"category"`
}

// RemoteEvent carries only what deletion needs.
type RemoteEvent struct {
	ID string `json:"id"`
}
