package models

import (
	"strings"
	"time"
)

const (
	SymptomIrregularBleeding = "irregular_bleeding"
	SymptomHeadache          = "headache"
	SymptomAbdominalPain     = "abdominal_pain"
	SymptomNausea            = "nausea"
	SymptomOther             = "other"
)

type HealthRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"type:date;not null;index" json:"date"`
	Symptom   string    `gorm:"not null;default:other" json:"symptom"`
	Memo      string    `json:"memo"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

type HealthSymptom struct {
	Key  string
	Icon string
}

func HealthSymptoms() []HealthSymptom {
	return []HealthSymptom{
		{Key: SymptomIrregularBleeding, Icon: "🩸"},
		{Key: SymptomHeadache, Icon: "🤕"},
		{Key: SymptomAbdominalPain, Icon: "🌀"},
		{Key: SymptomNausea, Icon: "🤢"},
		{Key: SymptomOther, Icon: "📝"},
	}
}

func IsValidSymptom(value string) bool {
	for _, symptom := range HealthSymptoms() {
		if symptom.Key == value {
			return true
		}
	}
	return false
}

func NormalizeSymptom(raw string) string {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	if IsValidSymptom(normalized) {
		return normalized
	}
	return SymptomOther
}
