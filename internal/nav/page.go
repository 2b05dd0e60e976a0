// Package nav owns which kiosk page is active and the timers tied to it.
//
// Every page change goes through a Navigator, which validates the move
// against a transition table and cancels all running timers before the new
// page becomes active.
package nav

import (
	"errors"
	"fmt"
)

// Page is one screen of the kiosk client. Exactly one is active at a time.
type Page int

const (
	Login Page = iota
	Loading
	Home
	Scanner
	AuthSuccess
)

// Pages lists every page, in declaration order.
var Pages = []Page{Login, Loading, Home, Scanner, AuthSuccess}

func (p Page) String() string {
	switch p {
	case Login:
		return "login"
	case Loading:
		return "loading"
	case Home:
		return "home"
	case Scanner:
		return "scanner"
	case AuthSuccess:
		return "authSuccess"
	}
	return fmt.Sprintf("page(%d)", int(p))
}

// Trigger is an event that may move the kiosk to another page.
type Trigger int

const (
	NoSession         Trigger = iota // startup found no token
	Restore                          // startup found a token; validating
	SessionValid                     // backend confirmed the token
	Logout                           // explicit logout or session invalidated
	DeviceVerified                   // device login succeeded
	OpenScanner                      // user asked to scan
	CloseScanner                     // user closed the scanner
	CameraUnavailable                // decoder could not start
	ScanAuthorized                   // backend accepted the scan
	ScanFailed                       // rejection, malformed reply, or transport failure
	ReplayAuth                       // re-display of a still-valid confirmation
	ReplayLapsed                     // re-display refused; window lapsed
	WindowExpired                    // countdown reached zero
	Dismiss                          // user left the confirmation early
	Hidden                           // client lost focus
)

// Triggers lists every trigger, in declaration order.
var Triggers = []Trigger{
	NoSession, Restore, SessionValid, Logout, DeviceVerified,
	OpenScanner, CloseScanner, CameraUnavailable, ScanAuthorized, ScanFailed,
	ReplayAuth, ReplayLapsed, WindowExpired, Dismiss, Hidden,
}

func (t Trigger) String() string {
	switch t {
	case NoSession:
		return "noSession"
	case Restore:
		return "restore"
	case SessionValid:
		return "sessionValid"
	case Logout:
		return "logout"
	case DeviceVerified:
		return "deviceVerified"
	case OpenScanner:
		return "openScanner"
	case CloseScanner:
		return "closeScanner"
	case CameraUnavailable:
		return "cameraUnavailable"
	case ScanAuthorized:
		return "scanAuthorized"
	case ScanFailed:
		return "scanFailed"
	case ReplayAuth:
		return "replayAuth"
	case ReplayLapsed:
		return "replayLapsed"
	case WindowExpired:
		return "windowExpired"
	case Dismiss:
		return "dismiss"
	case Hidden:
		return "hidden"
	}
	return fmt.Sprintf("trigger(%d)", int(t))
}

// ErrInvalidTransition is returned when a trigger is not allowed from the current page.
var ErrInvalidTransition = errors.New("nav: invalid transition")

// rule is one row of the transition table. A nil from means any page.
type rule struct {
	from []Page
	to   Page
}

// transitions is the complete table of allowed moves.
var transitions = map[Trigger]rule{
	NoSession:         {from: nil, to: Login},
	Restore:           {from: nil, to: Loading},
	SessionValid:      {from: []Page{Loading}, to: Home},
	Logout:            {from: nil, to: Login},
	DeviceVerified:    {from: []Page{Login}, to: Home},
	OpenScanner:       {from: []Page{Home}, to: Scanner},
	CloseScanner:      {from: []Page{Scanner}, to: Home},
	CameraUnavailable: {from: []Page{Scanner}, to: Home},
	ScanAuthorized:    {from: []Page{Scanner}, to: AuthSuccess},
	ScanFailed:        {from: []Page{Scanner}, to: Home},
	ReplayAuth:        {from: []Page{Home}, to: AuthSuccess},
	ReplayLapsed:      {from: []Page{Home}, to: Home},
	WindowExpired:     {from: []Page{AuthSuccess}, to: Home},
	Dismiss:           {from: []Page{AuthSuccess}, to: Home},
	Hidden:            {from: nil, to: Loading},
}

// Next returns the page trigger t leads to from page from.
func Next(from Page, t Trigger) (Page, error) {
	r, ok := transitions[t]
	if !ok {
		return from, fmt.Errorf("%w: unknown trigger %s", ErrInvalidTransition, t)
	}
	if r.from == nil {
		return r.to, nil
	}
	for _, p := range r.from {
		if p == from {
			return r.to, nil
		}
	}
	return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, t, from)
}

// Allowed reports whether t may fire from page from.
func Allowed(from Page, t Trigger) bool {
	_, err := Next(from, t)
	return err == nil
}
