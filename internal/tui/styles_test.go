package tui

import (
	"strings"
	"testing"
)

func TestHelpEntryFormat(t *testing.T) {
	tests := []struct {
		key   string
		label string
	}{
		{"s", "QR 스캔"},
		{"esc", "닫기"},
		{"ctrl+c", "종료"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			result := helpEntry(tc.key, tc.label)
			if !strings.Contains(result, tc.key) || !strings.Contains(result, tc.label) {
				t.Errorf("helpEntry(%q, %q) = %q", tc.key, tc.label, result)
			}
		})
	}
}

func TestRenderLogo(t *testing.T) {
	logo := renderLogo()
	for _, r := range "MEALAUTH" {
		if !strings.ContainsRune(logo, r) {
			t.Errorf("logo missing %q: %q", r, logo)
		}
	}
}

func TestCountdownStyleRenders(t *testing.T) {
	for _, secs := range []int{180, 60, 10, 0} {
		if got := countdownStyle(secs).Render("남은 시간"); !strings.Contains(got, "남은 시간") {
			t.Errorf("countdownStyle(%d) dropped text: %q", secs, got)
		}
	}
}
