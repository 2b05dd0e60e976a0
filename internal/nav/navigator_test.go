package nav

import (
	"math/rand"
	"testing"
)

func TestFireStartsHomeClock(t *testing.T) {
	n := New(Loading)
	tr, err := n.Fire(SessionValid)
	if err != nil {
		t.Fatalf("Fire() error: %v", err)
	}
	if tr.From != Loading || tr.To != Home {
		t.Errorf("transition = %+v", tr)
	}
	if len(tr.Started) != 1 || tr.Started[0].Kind() != HomeClock {
		t.Fatalf("expected home clock started, got %+v", tr.Started)
	}
	if !n.Active(tr.Started[0]) {
		t.Error("home clock not active after entering home")
	}
}

func TestFireInvalidLeavesStateAlone(t *testing.T) {
	n := New(Home)
	h := n.Start(HomeClock)
	if _, err := n.Fire(ScanAuthorized); err == nil {
		t.Fatal("expected error for scanAuthorized from home")
	}
	if n.Page() != Home {
		t.Errorf("page = %s, want home", n.Page())
	}
	if !n.Active(h) {
		t.Error("invalid transition stopped a timer")
	}
}

func TestLeavingPageStopsTimers(t *testing.T) {
	n := New(Scanner)
	tr, _ := n.Fire(ScanAuthorized)
	if tr.To != AuthSuccess {
		t.Fatalf("to = %s", tr.To)
	}
	clock := n.Start(AuthClock)
	countdown := n.Start(Countdown)

	tr, err := n.Fire(Dismiss)
	if err != nil {
		t.Fatal(err)
	}
	if n.Active(clock) || n.Active(countdown) {
		t.Error("auth timers still active after leaving authSuccess")
	}
	home := tr.Started[0]

	if _, err := n.Fire(OpenScanner); err != nil {
		t.Fatal(err)
	}
	if n.Active(home) {
		t.Error("home clock still active after leaving home")
	}
}

func TestStartReplacesSameKind(t *testing.T) {
	n := New(AuthSuccess)
	first := n.Start(Countdown)
	second := n.Start(Countdown)
	if n.Active(first) {
		t.Error("first countdown still active after restart")
	}
	if !n.Active(second) {
		t.Error("second countdown not active")
	}
	n.Stop(first) // stale handle must not stop the new timer
	if !n.Active(second) {
		t.Error("stopping a stale handle cancelled the running timer")
	}
	n.Stop(second)
	if _, ok := n.Running(Countdown); ok {
		t.Error("countdown still running after Stop")
	}
}

func TestZeroHandleNeverActive(t *testing.T) {
	var n Navigator
	if n.Active(Handle{}) {
		t.Error("zero handle reported active")
	}
}

// Random walks over the table: after every transition, no handle started
// before it is still active, and at most one timer of each kind runs.
func TestRandomWalkNoStaleTimers(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := New(Loading)
	var live []Handle

	for step := 0; step < 5000; step++ {
		trig := Triggers[rng.Intn(len(Triggers))]
		tr, err := n.Fire(trig)
		if err != nil {
			continue
		}
		for _, h := range live {
			if n.Active(h) {
				t.Fatalf("step %d: %s timer survived %s (%s -> %s)", step, h.Kind(), trig, tr.From, tr.To)
			}
		}
		live = append(live[:0], tr.Started...)
		if n.Page() == AuthSuccess {
			live = append(live, n.Start(AuthClock), n.Start(Countdown))
		}
		if n.Page() != Home {
			if _, ok := n.Running(HomeClock); ok {
				t.Fatalf("step %d: home clock running on %s", step, n.Page())
			}
		}
	}
}
