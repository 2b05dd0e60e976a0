package domain

import (
	"fmt"
	"time"
)

const (
	// ScanWindow is how long a fresh scan's confirmation stays on screen.
	ScanWindow = 3 * time.Minute
	// ReplayWindow bounds re-displaying a previous confirmation without rescanning.
	ReplayWindow = 5 * time.Minute
)

// AuthWindow is the interval during which a meal confirmation may be shown.
type AuthWindow struct {
	ExpiresAt time.Time
}

// NewAuthWindow returns the window that closes d after lastAuthAt.
func NewAuthWindow(lastAuthAt time.Time, d time.Duration) AuthWindow {
	return AuthWindow{ExpiresAt: lastAuthAt.Add(d)}
}

// Remaining returns the time left at now, never negative.
func (w AuthWindow) Remaining(now time.Time) time.Duration {
	d := w.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// Expired reports whether now is at or past ExpiresAt.
func (w AuthWindow) Expired(now time.Time) bool {
	return !now.Before(w.ExpiresAt)
}

// FormatRemaining renders a countdown as "MM:SS", rounding partial seconds up
// so the display only reads 00:00 at expiry.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
