package popup

import (
	"sync"
	"time"

	"github.com/acesoft/ace-crm-site/internal/observability/metrics"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

// Change describes one accepted transition.
type Change struct {
	From State
	To   State
	At   time.Time
}

// Listener receives every state change. Listeners run under the sequencer
// lock and must not call back into the sequencer.
type Listener func(Change)

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithDelays overrides the default timings.
func WithDelays(d Delays) Option {
	return func(s *Sequencer) { s.delays = d }
}

// WithListener registers a change listener.
func WithListener(l Listener) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Sequencer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics reports overlay impressions and dismissals.
func WithMetrics(m *metrics.PopupMetrics) Option {
	return func(s *Sequencer) { s.metrics = m }
}

// Sequencer drives the overlays of a single page view. It holds exactly one
// current state and at most one scheduled transition.
type Sequencer struct {
	mu        sync.Mutex
	clock     Clock
	delays    Delays
	state     State
	pending   Timer
	epoch     uint64
	mounted   bool
	torndown  bool
	listeners []Listener
	logger    *logging.Logger
	metrics   *metrics.PopupMetrics
}

// New builds an unmounted sequencer. A nil clock means the real clock.
func New(clock Clock, opts ...Option) *Sequencer {
	if clock == nil {
		clock = RealClock()
	}
	s := &Sequencer{
		clock:  clock,
		delays: DefaultDelays(),
		state:  Idle,
		logger: logging.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount starts the sequence by arming the trial timer. Calling it again, or
// after Unmount, does nothing.
func (s *Sequencer) Mount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mounted || s.torndown {
		return
	}
	s.mounted = true
	s.applyLocked(Event{Type: EventMount})
}

// Dismiss closes the visible overlay. It reports false when o is not the
// overlay currently shown.
func (s *Sequencer) Dismiss(o Overlay) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || s.torndown {
		return false
	}
	return s.applyLocked(Event{Type: EventDismiss, Overlay: o})
}

// Unmount cancels the pending timer; no transition happens afterwards.
func (s *Sequencer) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torndown {
		return
	}
	s.torndown = true
	s.cancelLocked()
}

// State returns the current state.
func (s *Sequencer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Visible returns the overlay currently rendered.
func (s *Sequencer) Visible() Overlay {
	return s.State().Overlay()
}

func (s *Sequencer) fire(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torndown || epoch != s.epoch {
		return
	}
	s.pending = nil
	s.applyLocked(Event{Type: EventTimerFired})
}

func (s *Sequencer) applyLocked(ev Event) bool {
	next, delay, ok := Reduce(s.state, ev, s.delays)
	if !ok {
		return false
	}
	s.cancelLocked()
	prev := s.state
	s.state = next
	if delay > 0 {
		epoch := s.epoch
		s.pending = s.clock.AfterFunc(delay, func() { s.fire(epoch) })
	}
	if prev == next {
		return true
	}

	if ev.Type == EventDismiss {
		s.metrics.ObserveDismissed(string(ev.Overlay))
	}
	if o := next.Overlay(); o != OverlayNone {
		s.metrics.ObserveShown(string(o))
	}
	s.logger.Debug("popup transition", "from", prev.String(), "to", next.String())

	change := Change{From: prev, To: next, At: s.clock.Now()}
	for _, l := range s.listeners {
		l(change)
	}
	return true
}

// cancelLocked stops the pending timer and bumps the epoch so a callback that
// already started waiting on the lock is discarded.
func (s *Sequencer) cancelLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
	s.epoch++
}
