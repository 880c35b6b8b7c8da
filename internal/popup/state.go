// Package popup sequences the promotional overlays shown during one page view:
// the free-trial offer, the demo-booking form and the callback card.
package popup

import "time"

// State is the sequencer position within a single page view.
type State int

const (
	Idle State = iota
	TrialShown
	TrialDismissed
	DemoShown
	DemoDismissed
	CallbackShown
	CallbackDismissed
)

var stateNames = map[State]string{
	Idle:              "idle",
	TrialShown:        "trial_shown",
	TrialDismissed:    "trial_dismissed",
	DemoShown:         "demo_shown",
	DemoDismissed:     "demo_dismissed",
	CallbackShown:     "callback_shown",
	CallbackDismissed: "callback_dismissed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Overlay identifies the single overlay rendered for a state.
type Overlay string

const (
	OverlayNone     Overlay = "none"
	OverlayTrial    Overlay = "trial"
	OverlayDemoForm Overlay = "demo_form"
	OverlayCallback Overlay = "callback"
)

// Overlay returns the overlay visible while in s.
func (s State) Overlay() Overlay {
	switch s {
	case TrialShown:
		return OverlayTrial
	case DemoShown:
		return OverlayDemoForm
	case CallbackShown:
		return OverlayCallback
	default:
		return OverlayNone
	}
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == CallbackDismissed
}

// EventType distinguishes the inputs the reducer reacts to.
type EventType int

const (
	EventMount EventType = iota + 1
	EventTimerFired
	EventDismiss
)

// Event is one input to Reduce. Overlay is only meaningful for EventDismiss.
type Event struct {
	Type    EventType
	Overlay Overlay
}

// Delays are the waits armed on each timer edge.
type Delays struct {
	Trial    time.Duration
	Demo     time.Duration
	Callback time.Duration
}

// DefaultDelays returns the production timings: trial offer 10s after mount,
// demo form and callback card 20s after the previous overlay is dismissed.
func DefaultDelays() Delays {
	return Delays{
		Trial:    10 * time.Second,
		Demo:     20 * time.Second,
		Callback: 20 * time.Second,
	}
}

// Reduce is the sequencer's only transition function. It returns the next
// state, the delay of the timer to arm on entering it (zero for none), and
// whether the event was accepted at all.
func Reduce(s State, ev Event, d Delays) (State, time.Duration, bool) {
	switch ev.Type {
	case EventMount:
		if s == Idle {
			return Idle, d.Trial, true
		}
	case EventTimerFired:
		switch s {
		case Idle:
			return TrialShown, 0, true
		case TrialDismissed:
			return DemoShown, 0, true
		case DemoDismissed:
			return CallbackShown, 0, true
		}
	case EventDismiss:
		if ev.Overlay != s.Overlay() {
			return s, 0, false
		}
		switch s {
		case TrialShown:
			return TrialDismissed, d.Demo, true
		case DemoShown:
			return DemoDismissed, d.Callback, true
		case CallbackShown:
			return CallbackDismissed, 0, true
		}
	}
	return s, 0, false
}
