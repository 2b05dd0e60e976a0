package domain

import (
	"testing"
	"time"
)

func TestAuthWindow(t *testing.T) {
	last := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	w := NewAuthWindow(last, ScanWindow)

	if !w.ExpiresAt.Equal(last.Add(3 * time.Minute)) {
		t.Fatalf("ExpiresAt = %v, want %v", w.ExpiresAt, last.Add(3*time.Minute))
	}

	tests := []struct {
		name      string
		now       time.Time
		expired   bool
		remaining time.Duration
	}{
		{"at start", last, false, 3 * time.Minute},
		{"midway", last.Add(90 * time.Second), false, 90 * time.Second},
		{"exactly at expiry", last.Add(3 * time.Minute), true, 0},
		{"after expiry", last.Add(10 * time.Minute), true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.Expired(tt.now); got != tt.expired {
				t.Errorf("Expired() = %v, want %v", got, tt.expired)
			}
			if got := w.Remaining(tt.now); got != tt.remaining {
				t.Errorf("Remaining() = %v, want %v", got, tt.remaining)
			}
		})
	}
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{3 * time.Minute, "03:00"},
		{59 * time.Second, "00:59"},
		{500 * time.Millisecond, "00:01"},
		{0, "00:00"},
		{-time.Second, "00:00"},
		{61*time.Second + 200*time.Millisecond, "01:02"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.d); got != tt.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
