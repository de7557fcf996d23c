package models

// RecordSet is the full snapshot of one user's records. AgeGroup is carried
// for presentation only.
type RecordSet struct {
	Periods  []PeriodRecord   `json:"periods"`
	Intimacy []IntimacyRecord `json:"intimacy"`
	Health   []HealthRecord   `json:"health"`
	AgeGroup string           `json:"age_group,omitempty"`
}

func EmptyRecordSet() RecordSet {
	return RecordSet{
		Periods:  []PeriodRecord{},
		Intimacy: []IntimacyRecord{},
		Health:   []HealthRecord{},
	}
}

func (set RecordSet) IsEmpty() bool {
	return len(set.Periods) == 0 && len(set.Intimacy) == 0 && len(set.Health) == 0
}
