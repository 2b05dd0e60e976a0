package tui

import (
	"strings"
	"time"
	"unicode/utf8"
)

// formatDate renders the date line of the success page, e.g. "2025년 03월 07일".
func formatDate(t time.Time) string {
	return t.Format("2006년 01월 02일")
}

// formatClock renders a 24-hour wall clock.
func formatClock(t time.Time) string {
	return t.Format("15:04:05")
}

// mask hides a secret while keeping its length visible.
func mask(s string) string {
	return strings.Repeat("•", utf8.RuneCountInString(s))
}

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}
