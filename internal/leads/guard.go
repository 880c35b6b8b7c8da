package leads

import "sync"

// inflight admits one attempt per session at a time.
type inflight struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{active: make(map[string]struct{})}
}

func (g *inflight) acquire(sessionID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[sessionID]; busy {
		return false
	}
	g.active[sessionID] = struct{}{}
	return true
}

func (g *inflight) release(sessionID string) {
	g.mu.Lock()
	delete(g.active, sessionID)
	g.mu.Unlock()
}
