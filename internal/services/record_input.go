package services

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxMemoLength    = 2000
	MaxPartnerLength = 64
)

// TrimMemo trims surrounding space and cuts the memo to MaxMemoLength runes.
func TrimMemo(value string) string {
	return truncateRunes(strings.TrimSpace(value), MaxMemoLength)
}

func TrimPartner(value string) string {
	return truncateRunes(strings.TrimSpace(value), MaxPartnerLength)
}

func truncateRunes(value string, limit int) string {
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	runes := []rune(value)
	return strings.TrimSpace(string(runes[:limit]))
}
