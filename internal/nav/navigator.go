package nav

// TimerKind identifies one of the repeating display timers.
type TimerKind int

const (
	HomeClock TimerKind = iota
	AuthClock
	Countdown
	numTimerKinds
)

func (k TimerKind) String() string {
	switch k {
	case HomeClock:
		return "homeClock"
	case AuthClock:
		return "authClock"
	case Countdown:
		return "countdown"
	}
	return "timer"
}

// Handle identifies one started timer. The zero Handle is never active.
type Handle struct {
	kind TimerKind
	id   uint64
}

// Kind returns the timer kind the handle was started for.
func (h Handle) Kind() TimerKind { return h.kind }

// Transition describes a completed page change.
type Transition struct {
	From, To Page
	Trigger  Trigger
	// Started holds timers the navigator started for the new page.
	Started []Handle
}

// Navigator tracks the active page and the running timer of each kind.
// It is a value type so it can live inside a bubbletea model.
type Navigator struct {
	page    Page
	nextID  uint64
	running [numTimerKinds]uint64
}

// New returns a navigator showing start with no timers running.
func New(start Page) Navigator {
	return Navigator{page: start}
}

// Page returns the active page.
func (n Navigator) Page() Page { return n.page }

// Fire applies trigger t. On an invalid transition nothing changes.
func (n *Navigator) Fire(t Trigger) (Transition, error) {
	to, err := Next(n.page, t)
	if err != nil {
		return Transition{}, err
	}
	tr := n.show(to)
	tr.Trigger = t
	return tr, nil
}

// show stops every timer, activates p and starts the home clock when p is Home.
func (n *Navigator) show(p Page) Transition {
	tr := Transition{From: n.page, To: p}
	n.StopAll()
	n.page = p
	if p == Home {
		tr.Started = append(tr.Started, n.Start(HomeClock))
	}
	return tr
}

// Start starts a timer of the given kind, replacing any running one.
func (n *Navigator) Start(kind TimerKind) Handle {
	n.nextID++
	n.running[kind] = n.nextID
	return Handle{kind: kind, id: n.nextID}
}

// Stop cancels h if it is still the running timer of its kind.
func (n *Navigator) Stop(h Handle) {
	if n.Active(h) {
		n.running[h.kind] = 0
	}
}

// StopAll cancels every running timer.
func (n *Navigator) StopAll() {
	for i := range n.running {
		n.running[i] = 0
	}
}

// Active reports whether h is still running. Ticks for inactive handles
// must be dropped.
func (n Navigator) Active(h Handle) bool {
	return h.id != 0 && n.running[h.kind] == h.id
}

// Running returns the running timer of kind, if any.
func (n Navigator) Running(kind TimerKind) (Handle, bool) {
	id := n.running[kind]
	return Handle{kind: kind, id: id}, id != 0
}
