// Package session keeps short-lived per-visitor markers, the server-side
// counterpart of the browser's sessionStorage.
package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// FormSubmittedKey records which form last delivered a lead.
const FormSubmittedKey = "form_submitted"

// ErrMarkerNotFound is returned when no live marker exists for the key.
var ErrMarkerNotFound = errors.New("session: marker not found")

// ErrMissingSession is returned when the session id is blank.
var ErrMissingSession = errors.New("session: session id is required")

// Store persists ephemeral markers scoped to one visitor session.
type Store interface {
	Mark(ctx context.Context, sessionID, key, value string) error
	Get(ctx context.Context, sessionID, key string) (string, error)
}

// MemoryStore is an in-process Store used when Redis is not configured.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	markers map[string]memoryMarker
	stop    chan struct{}
	once    sync.Once
}

type memoryMarker struct {
	value     string
	expiresAt time.Time
}

func (m memoryMarker) expired(now time.Time) bool {
	return !m.expiresAt.IsZero() && !now.Before(m.expiresAt)
}

// NewMemoryStore creates a memory store whose markers expire after ttl.
// A non-positive ttl keeps markers until the process exits. With a ttl, a
// background loop evicts expired markers every ttl; call Stop to end it.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	s := &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		markers: make(map[string]memoryMarker),
		stop:    make(chan struct{}),
	}
	if ttl > 0 {
		go s.sweepLoop(ttl)
	}
	return s
}

// Stop ends the eviction loop.
func (s *MemoryStore) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *MemoryStore) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

// sweep drops every marker expired at now and returns how many it removed.
func (s *MemoryStore) sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, m := range s.markers {
		if m.expired(now) {
			delete(s.markers, k)
			removed++
		}
	}
	return removed
}

// Mark stores value under key for sessionID, replacing any earlier value.
func (s *MemoryStore) Mark(ctx context.Context, sessionID, key, value string) error {
	if sessionID == "" {
		return ErrMissingSession
	}
	m := memoryMarker{value: value}
	if s.ttl > 0 {
		m.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	s.markers[markerKey(sessionID, key)] = m
	s.mu.Unlock()
	return nil
}

// Get returns the live marker value.
func (s *MemoryStore) Get(ctx context.Context, sessionID, key string) (string, error) {
	if sessionID == "" {
		return "", ErrMissingSession
	}
	k := markerKey(sessionID, key)
	s.mu.RLock()
	m, ok := s.markers[k]
	s.mu.RUnlock()
	if !ok {
		return "", ErrMarkerNotFound
	}
	if m.expired(s.now()) {
		s.mu.Lock()
		// A Mark may have replaced the marker since the read lock was dropped.
		if cur, ok := s.markers[k]; ok && cur.expired(s.now()) {
			delete(s.markers, k)
		}
		s.mu.Unlock()
		return "", ErrMarkerNotFound
	}
	return m.value, nil
}

func markerKey(sessionID, key string) string {
	return "session:" + sessionID + ":" + key
}
