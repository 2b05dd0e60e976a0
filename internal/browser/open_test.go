package browser

import (
	"strings"
	"testing"
)

func TestCommand(t *testing.T) {
	tests := []struct {
		goos     string
		wantName string
		wantLast string
		wantErr  bool
	}{
		{"darwin", "open", "http://kiosk/admin", false},
		{"linux", "xdg-open", "http://kiosk/admin", false},
		{"windows", "rundll32", "http://kiosk/admin", false},
		{"plan9", "", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.goos, func(t *testing.T) {
			name, args, err := command(tc.goos, "http://kiosk/admin")
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}
			if name != tc.wantName {
				t.Errorf("name = %q, want %q", name, tc.wantName)
			}
			if args[len(args)-1] != tc.wantLast {
				t.Errorf("last arg = %q, want %q", args[len(args)-1], tc.wantLast)
			}
		})
	}
}

func TestOpenRejectsNonHTTP(t *testing.T) {
	called := false
	orig := startCommand
	startCommand = func(string, ...string) error { called = true; return nil }
	defer func() { startCommand = orig }()

	for _, raw := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "http://", "not a url"} {
		if err := Open(raw); err == nil {
			t.Errorf("Open(%q) = nil, want error", raw)
		}
	}
	if called {
		t.Error("opener ran for a rejected URL")
	}
}

func TestOpenRunsOpener(t *testing.T) {
	var gotArgs []string
	orig := startCommand
	startCommand = func(name string, args ...string) error {
		gotArgs = append([]string{name}, args...)
		return nil
	}
	defer func() { startCommand = orig }()

	err := Open("https://meal.example.com/admin")
	if err != nil && strings.Contains(err.Error(), "unsupported OS") {
		t.Skip("no opener on this platform")
	}
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if gotArgs[len(gotArgs)-1] != "https://meal.example.com/admin" {
		t.Errorf("opener args = %v", gotArgs)
	}
}
