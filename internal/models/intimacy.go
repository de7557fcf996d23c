package models

import (
	"strings"
	"time"
)

const (
	ContraceptionUsed    = "used"
	ContraceptionNotUsed = "not_used"
	ContraceptionUnknown = "unknown"
)

type IntimacyRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Date          time.Time `gorm:"type:date;not null;index" json:"date"`
	Contraception string    `gorm:"not null;default:unknown" json:"contraception"`
	Partner       string    `json:"partner"`
	Memo          string    `json:"memo"`
	CreatedAt     time.Time `json:"-"`
	UpdatedAt     time.Time `json:"-"`
}

func IsValidContraception(value string) bool {
	switch value {
	case ContraceptionUsed, ContraceptionNotUsed, ContraceptionUnknown:
		return true
	default:
		return false
	}
}

// ParseContraception maps input, including the labels used by the legacy
// JSON blob, onto the stored enumeration. Blank input means unknown.
func ParseContraception(raw string) (string, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "使用":
		value = ContraceptionUsed
	case "不使用", "not-used":
		value = ContraceptionNotUsed
	case "不明", "":
		value = ContraceptionUnknown
	}
	return value, IsValidContraception(value)
}

// NormalizeContraception is the lenient form used for imports: anything
// unrecognised becomes unknown.
func NormalizeContraception(raw string) string {
	if value, ok := ParseContraception(raw); ok {
		return value
	}
	return ContraceptionUnknown
}

func LegacyContraceptionLabel(value string) string {
	switch value {
	case ContraceptionUsed:
		return "使用"
	case ContraceptionNotUsed:
		return "不使用"
	default:
		return "不明"
	}
}
