package popup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReduce(t *testing.T) {
	d := DefaultDelays()
	tests := []struct {
		name      string
		from      State
		event     Event
		wantState State
		wantDelay time.Duration
		wantOK    bool
	}{
		{"mount arms trial timer", Idle, Event{Type: EventMount}, Idle, 10 * time.Second, true},
		{"trial timer shows trial", Idle, Event{Type: EventTimerFired}, TrialShown, 0, true},
		{"dismiss trial arms demo timer", TrialShown, Event{Type: EventDismiss, Overlay: OverlayTrial}, TrialDismissed, 20 * time.Second, true},
		{"demo timer shows demo", TrialDismissed, Event{Type: EventTimerFired}, DemoShown, 0, true},
		{"dismiss demo arms callback timer", DemoShown, Event{Type: EventDismiss, Overlay: OverlayDemoForm}, DemoDismissed, 20 * time.Second, true},
		{"callback timer shows callback", DemoDismissed, Event{Type: EventTimerFired}, CallbackShown, 0, true},
		{"dismiss callback is terminal", CallbackShown, Event{Type: EventDismiss, Overlay: OverlayCallback}, CallbackDismissed, 0, true},
		{"timer ignored while trial visible", TrialShown, Event{Type: EventTimerFired}, TrialShown, 0, false},
		{"wrong overlay dismissal ignored", TrialShown, Event{Type: EventDismiss, Overlay: OverlayDemoForm}, TrialShown, 0, false},
		{"dismiss in idle ignored", Idle, Event{Type: EventDismiss, Overlay: OverlayNone}, Idle, 0, false},
		{"remount ignored", TrialShown, Event{Type: EventMount}, TrialShown, 0, false},
		{"terminal ignores timers", CallbackDismissed, Event{Type: EventTimerFired}, CallbackDismissed, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, delay, ok := Reduce(tt.from, tt.event, d)
			assert.Equal(t, tt.wantState, got)
			assert.Equal(t, tt.wantDelay, delay)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestStateOverlayMapping(t *testing.T) {
	visible := 0
	for s := Idle; s <= CallbackDismissed; s++ {
		if s.Overlay() != OverlayNone {
			visible++
		}
		assert.NotEqual(t, "unknown", s.String())
	}
	assert.Equal(t, 3, visible, "exactly three states render an overlay")
	assert.Equal(t, OverlayDemoForm, DemoShown.Overlay())
	assert.True(t, CallbackDismissed.Terminal())
	assert.False(t, CallbackShown.Terminal())
	assert.Equal(t, "unknown", State(42).String())
}
