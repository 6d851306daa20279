package wizard

import (
	"context"
	"sync"
	"time"

	"condobot/core/logger"
	"log/slog"
)

// DefaultTTL bounds how long an abandoned session survives in memory.
const DefaultTTL = 30 * time.Minute

// Store keeps one session per (chat, user) key. The transport serializes
// updates within a chat, so sessions need no per-field locking; the mutex
// only guards the map across chats.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[Key]*Session
}

// NewStore creates a Store with the given idle TTL; ttl <= 0 selects DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:      ttl,
		sessions: make(map[Key]*Session),
	}
}

// Get returns the live session for the key, evicting it first if expired.
func (st *Store) Get(k Key) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[k]
	if !ok {
		return nil, false
	}
	if time.Since(s.touched) > st.ttl {
		delete(st.sessions, k)
		return nil, false
	}
	s.touched = time.Now()
	return s, true
}

// Put stores the session, replacing any previous one for the key.
// Re-issuing an entry command therefore always starts over.
func (st *Store) Put(k Key, s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s.touched = time.Now()
	st.sessions[k] = s
}

// Touch refreshes the idle timer for an active session.
func (st *Store) Touch(k Key) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[k]; ok {
		s.touched = time.Now()
	}
}

// Clear removes the session for the key.
func (st *Store) Clear(k Key) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, k)
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	evicted := 0
	now := time.Now()
	for k, s := range st.sessions {
		if now.Sub(s.touched) > st.ttl {
			delete(st.sessions, k)
			evicted++
		}
	}
	return evicted
}

// StartJanitor evicts expired sessions in the background until ctx is done.
func (st *Store) StartJanitor(ctx context.Context) {
	interval := st.ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := st.sweep(); evicted > 0 {
					logger.WIZ.Info("sessions evicted",
						slog.String("event", "session.sweep"),
						slog.Int("sessions_evicted", evicted),
						slog.Int("sessions_active", st.Len()),
					)
				}
			}
		}
	}()
}
