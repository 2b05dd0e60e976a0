package tui

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mealauth/mealauth/internal/nav"
	"github.com/mealauth/mealauth/internal/scanner"
	"github.com/mealauth/mealauth/internal/session"
	"github.com/mealauth/mealauth/pkg/domain"
)

func scanReplies(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body) //nolint:errcheck
	}
}

const scanOK = `{"status":"success","message":"식수 인증 완료","log_id":42,"auth_time":"12:00:00","user":{"name":"김철수","emp_no":"2024001","dept_name":"생산1팀"}}`

// scanOnce opens the scanner, reads payload and settles the authorize call.
func scanOnce(t *testing.T, h *harness, payload string) {
	t.Helper()
	cmd := h.send(key("s"))
	if h.page() != nav.Scanner {
		t.Fatalf("page after s = %v, want scanner", h.page())
	}
	h.dec.emit(payload)
	h.settle(cmd)
}

func TestScanAuthorized(t *testing.T) {
	h := loggedIn(t)
	h.backend.setScan(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok1" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		io.WriteString(w, scanOK) //nolint:errcheck
	})

	scanOnce(t, h, "MEAL-QR-1")

	if h.page() != nav.AuthSuccess {
		t.Fatalf("page = %v, want authSuccess (alerts %v)", h.page(), h.app.alerts)
	}
	if h.dec.Scanning() || h.dec.stops != 1 {
		t.Errorf("decoder scanning=%v stops=%d, want stopped once", h.dec.Scanning(), h.dec.stops)
	}
	sess, err := session.Load(context.Background(), h.store)
	if err != nil {
		t.Fatal(err)
	}
	if !sess.LastAuthAt.Equal(t0) {
		t.Errorf("stored lastAuthAt = %v, want %v", sess.LastAuthAt, t0)
	}
	if sess.User == nil || sess.User.DeptName != "생산1팀" || sess.User.Name != "김철수" {
		t.Errorf("stored user = %+v", sess.User)
	}
	if !h.app.st.window.ExpiresAt.Equal(t0.Add(domain.ScanWindow)) {
		t.Errorf("window = %v", h.app.st.window.ExpiresAt)
	}
	for _, k := range []nav.TimerKind{nav.AuthClock, nav.Countdown} {
		if _, ok := h.app.nav.Running(k); !ok {
			t.Errorf("%v not running", k)
		}
	}
	if _, ok := h.app.nav.Running(nav.HomeClock); ok {
		t.Error("home clock still running on success page")
	}

	view := h.app.View()
	for _, want := range []string{"2025년 03월 07일", "12:00:00", "김철수 / 생산1팀", "남은 시간 03:00"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestScanMergesProfile(t *testing.T) {
	h := loggedIn(t)
	h.app.st.user.DeptName = "총무팀"
	h.backend.setScan(scanReplies(200, `{"auth_time":"12:00:00","user":{"emp_no":"2024001","name":""}}`))

	scanOnce(t, h, "x")

	if h.app.st.user.Name != "김철수" || h.app.st.user.DeptName != "총무팀" {
		t.Errorf("user = %+v, want fields kept", h.app.st.user)
	}
}

func TestScanUnauthorizedLogsOut(t *testing.T) {
	for _, status := range []int{401, 403} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			h := loggedIn(t)
			session.SaveLastAuth(context.Background(), h.store, t0.Add(-time.Hour)) //nolint:errcheck
			h.backend.setScan(scanReplies(status, `{"detail":"revoked"}`))

			scanOnce(t, h, "x")

			if h.page() != nav.Login {
				t.Errorf("page = %v, want login", h.page())
			}
			if got := h.stored(); len(got) != 0 {
				t.Errorf("store = %v, want empty", got)
			}
			if len(h.app.alerts) != 1 || h.app.alerts[0] != msgSessionRevoked {
				t.Errorf("alerts = %v", h.app.alerts)
			}
		})
	}
}

func TestScanFailuresReturnHome(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantAlert string
	}{
		{"html page", 200, "<!DOCTYPE html><html><body>ngrok</body></html>", msgHTMLResponse},
		{"html 404", 404, "<!doctype html>\n<title>Not Found</title>", msgHTMLResponse},
		{"plain text", 502, "Bad Gateway", msgMalformed},
		{"backend reason", 400, `{"detail":"이미 식수 인증을 하셨습니다."}`, "이미 식수 인증을 하셨습니다."},
		{"no reason", 500, `{}`, msgScanRejected},
		// A 401/403 only revokes the device when the body is the backend's JSON.
		{"html 401 from proxy", 401, "<html><body>Unauthorized</body></html>", msgHTMLResponse},
		{"empty 403", 403, "", msgMalformed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := loggedIn(t)
			before := h.stored()
			h.backend.setScan(scanReplies(tc.status, tc.body))

			scanOnce(t, h, "x")

			if h.page() != nav.Home {
				t.Errorf("page = %v, want home", h.page())
			}
			if len(h.app.alerts) != 1 || h.app.alerts[0] != tc.wantAlert {
				t.Errorf("alerts = %q, want %q", h.app.alerts, tc.wantAlert)
			}
			after := h.stored()
			if len(after) != len(before) {
				t.Errorf("store changed: %v -> %v", before, after)
			}
			for k, v := range before {
				if after[k] != v {
					t.Errorf("store[%s] = %q, want %q", k, after[k], v)
				}
			}
		})
	}
}

func TestScanTransportFailure(t *testing.T) {
	h := loggedIn(t)
	h.server.Close()
	scanOnce(t, h, "x")
	if h.page() != nav.Home {
		t.Errorf("page = %v", h.page())
	}
	if len(h.app.alerts) != 1 || !strings.HasPrefix(h.app.alerts[0], msgScanTransport) {
		t.Errorf("alerts = %v", h.app.alerts)
	}
}

func TestCameraUnavailable(t *testing.T) {
	h := loggedIn(t)
	h.dec.startErr = scanner.ErrCameraUnavailable
	h.send(key("s"))
	if h.page() != nav.Home {
		t.Errorf("page = %v, want home", h.page())
	}
	if len(h.app.alerts) != 1 || h.app.alerts[0] != msgCameraUnavailable {
		t.Errorf("alerts = %v", h.app.alerts)
	}
	if h.app.scan != nil {
		t.Error("scan session kept after failed start")
	}
}

func TestCloseScanner(t *testing.T) {
	h := loggedIn(t)
	cmd := h.send(key("s"))
	h.send(key("esc"))
	if h.page() != nav.Home {
		t.Fatalf("page = %v", h.page())
	}
	if h.dec.Scanning() {
		t.Error("decoder still running")
	}
	// The pending wait ends without a decode.
	for _, msg := range run(cmd) {
		if _, ok := msg.(qrDecodedMsg); ok {
			t.Error("decode delivered after close")
		}
	}
	h.dec.emit("late")
	if h.backend.scans() != 0 {
		t.Error("authorize called after close")
	}

	// Repeated open/close cycles leave no timers behind.
	for i := 0; i < 3; i++ {
		h.send(key("s"))
		h.send(key("esc"))
	}
	if h.dec.starts != 4 {
		t.Errorf("starts = %d, want 4", h.dec.starts)
	}
	if _, ok := h.app.nav.Running(nav.Countdown); ok {
		t.Error("countdown leaked")
	}
}

func TestOpenScannerWithoutToken(t *testing.T) {
	h := loggedIn(t)
	h.store.Delete(context.Background(), session.KeyToken) //nolint:errcheck
	h.send(key("s"))
	if h.page() != nav.Login {
		t.Errorf("page = %v, want login", h.page())
	}
	if len(h.app.alerts) != 1 || h.app.alerts[0] != msgNoToken {
		t.Errorf("alerts = %v", h.app.alerts)
	}
	if h.dec.starts != 0 {
		t.Error("scanner started without a token")
	}
}

func TestScanResultAfterCloseDiscarded(t *testing.T) {
	h := loggedIn(t)
	cmd := h.send(key("s"))
	h.dec.emit("x")
	msgs := run(cmd)
	if len(msgs) != 1 {
		t.Fatalf("msgs = %v", msgs)
	}
	authorize := h.send(msgs[0])
	if !h.app.authPending {
		t.Fatal("authorize not pending")
	}
	h.send(key("esc"))

	h.backend.setScan(scanReplies(200, scanOK))
	h.settle(authorize)
	if h.page() != nav.Home {
		t.Errorf("page = %v, want home", h.page())
	}
	if _, ok := h.stored()[session.KeyLastAuth]; ok {
		t.Error("late success persisted")
	}
}

func TestShowAuthScreenWithinWindow(t *testing.T) {
	h := loggedIn(t)
	h.app.st.lastAuthAt = t0.Add(-4 * time.Minute)

	h.send(key("a"))

	if h.page() != nav.AuthSuccess {
		t.Fatalf("page = %v, want authSuccess", h.page())
	}
	if got := h.app.st.window.Remaining(h.clock.Now()); got != time.Minute {
		t.Errorf("remaining = %v, want 1m", got)
	}
	if !strings.Contains(h.app.View(), "남은 시간 01:00") {
		t.Error("countdown not shown")
	}
}

func TestShowAuthScreenLapsedKeepsLastAuth(t *testing.T) {
	h := loggedIn(t)
	last := t0.Add(-6 * time.Minute)
	session.SaveLastAuth(context.Background(), h.store, last) //nolint:errcheck
	h.app.st.lastAuthAt = last
	before := h.stored()[session.KeyLastAuth]

	for i := 0; i < 2; i++ {
		h.send(key("a"))
		if h.page() != nav.Home {
			t.Fatalf("attempt %d: page = %v, want home", i, h.page())
		}
		if len(h.app.alerts) != 1 || h.app.alerts[0] != msgReplayLapsed {
			t.Fatalf("attempt %d: alerts = %v", i, h.app.alerts)
		}
		h.send(key("enter"))
	}
	if got := h.stored()[session.KeyLastAuth]; got != before {
		t.Errorf("stored lastAuthAt = %q, want %q", got, before)
	}
	if !h.app.st.lastAuthAt.Equal(last) {
		t.Errorf("lastAuthAt = %v, want %v", h.app.st.lastAuthAt, last)
	}
}

func TestShowAuthScreenNeedsProfile(t *testing.T) {
	h := loggedIn(t)
	h.app.st.user = nil
	h.send(key("a"))
	if h.page() != nav.Home {
		t.Errorf("page = %v", h.page())
	}
	if len(h.app.alerts) != 1 || h.app.alerts[0] != msgNoProfile {
		t.Errorf("alerts = %v", h.app.alerts)
	}
}

func TestCountdownExpiresOnce(t *testing.T) {
	h := loggedIn(t)
	h.backend.setScan(scanReplies(200, scanOK))
	scanOnce(t, h, "x")

	cd, ok := h.app.nav.Running(nav.Countdown)
	if !ok {
		t.Fatal("countdown not running")
	}

	h.clock.Advance(time.Minute)
	if cmd := h.send(tickMsg{handle: cd}); cmd == nil {
		t.Error("countdown did not reschedule")
	}
	if h.page() != nav.AuthSuccess || len(h.app.alerts) != 0 {
		t.Fatalf("expired early: page %v alerts %v", h.page(), h.app.alerts)
	}
	if !strings.Contains(h.app.View(), "남은 시간 02:00") {
		t.Error("countdown text not updated")
	}

	h.clock.Advance(2 * time.Minute)
	for i := 0; i < 5; i++ {
		h.send(tickMsg{handle: cd})
	}
	if h.page() != nav.Home {
		t.Errorf("page = %v, want home", h.page())
	}
	if len(h.app.alerts) != 1 || h.app.alerts[0] != msgExpired {
		t.Errorf("alerts = %v, want one expiry", h.app.alerts)
	}
}

func TestStaleTicksDropped(t *testing.T) {
	h := loggedIn(t)
	home, _ := h.app.nav.Running(nav.HomeClock)

	h.app.st.lastAuthAt = t0
	h.send(key("a"))
	authClock, _ := h.app.nav.Running(nav.AuthClock)
	cd, _ := h.app.nav.Running(nav.Countdown)

	if cmd := h.send(tickMsg{handle: home}); cmd != nil {
		t.Error("home clock ticked on success page")
	}

	h.send(key("esc"))
	if h.page() != nav.Home {
		t.Fatalf("page = %v", h.page())
	}
	h.clock.Advance(10 * time.Minute)
	clockBefore := h.app.clock
	for _, hd := range []nav.Handle{authClock, cd} {
		if cmd := h.send(tickMsg{handle: hd}); cmd != nil {
			t.Errorf("%v ticked after leaving its page", hd.Kind())
		}
	}
	if !h.app.clock.Equal(clockBefore) || len(h.app.alerts) != 0 {
		t.Error("stale tick changed state")
	}
}

func TestConfirmationText(t *testing.T) {
	h := loggedIn(t)
	h.backend.setScan(scanReplies(200, scanOK))
	scanOnce(t, h, "x")
	got := h.app.confirmationText()
	if got != "식수 인증 2024001 김철수 / 생산1팀 (12:00:00)" {
		t.Errorf("confirmationText() = %q", got)
	}
}
