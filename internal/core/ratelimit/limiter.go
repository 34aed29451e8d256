// Package ratelimit implements a sliding-window request limiter with
// per-session token usage accounting.
package ratelimit

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Used       int
	Remaining  int
}

// Snapshot is a read-only view of a session's current usage.
type Snapshot struct {
	Used        int
	Remaining   int
	Window      time.Duration
	ResetsIn    time.Duration
	TokensUsed  int64
	LastRequest time.Time
}

type tokenEntry struct {
	at    time.Time
	count int64
}

type sessionState struct {
	requests    []time.Time
	tokens      []tokenEntry
	tokensTotal int64
}

// Limiter enforces a per-session request ceiling over a trailing window.
// Expired timestamps are evicted lazily on each decision; there is no
// background sweeper, so state stays trivially inspectable in tests.
type Limiter struct {
	maxRequests int
	window      time.Duration

	// Clock allows tests to control time. Defaults to time.Now in UTC.
	Clock func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// New validates the configuration and returns a limiter.
//
// A maxRequests of zero is accepted and rejects every request; a negative
// value or a non-positive window is a configuration error.
func New(maxRequests int, window time.Duration) (*Limiter, error) {
	if maxRequests < 0 {
		return nil, fmt.Errorf("max requests must not be negative, got %d", maxRequests)
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %s", window)
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		sessions:    make(map[string]*sessionState),
	}, nil
}

// Allow decides whether a request for the session may proceed. On success the
// current instant is appended to the session's request log; a rejection has
// no side effect and carries the wait until the oldest retained timestamp
// leaves the window.
func (l *Limiter) Allow(sessionID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state := l.session(sessionID)
	l.evict(state, now)

	used := len(state.requests)
	if used >= l.maxRequests {
		retry := l.window
		if used > 0 {
			retry = state.requests[0].Add(l.window).Sub(now)
		}
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, RetryAfter: retry, Used: used, Remaining: 0}
	}

	state.requests = append(state.requests, now)
	return Decision{Allowed: true, Used: used + 1, Remaining: l.maxRequests - used - 1}
}

// RecordTokens appends a usage entry for cost accounting. It never rejects.
func (l *Limiter) RecordTokens(sessionID string, count int64) {
	if count <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	state := l.session(sessionID)
	state.tokens = append(state.tokens, tokenEntry{at: l.now(), count: count})
	state.tokensTotal += count
}

// Snapshot reports current usage without mutating the request log, using the
// same evict-then-count view as Allow. Repeated calls without intervening
// Allow or RecordTokens calls return identical values.
func (l *Limiter) Snapshot(sessionID string) Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state, ok := l.sessions[sessionID]
	if !ok {
		return Snapshot{Remaining: l.maxRequests, Window: l.window}
	}

	used := 0
	cutoff := now.Add(-l.window)
	var oldest, last time.Time
	for _, ts := range state.requests {
		if ts.After(cutoff) {
			if used == 0 {
				oldest = ts
			}
			used++
			last = ts
		}
	}

	remaining := l.maxRequests - used
	if remaining < 0 {
		remaining = 0
	}

	var resetsIn time.Duration
	if used > 0 {
		resetsIn = oldest.Add(l.window).Sub(now)
		if resetsIn < 0 {
			resetsIn = 0
		}
	}

	return Snapshot{
		Used:        used,
		Remaining:   remaining,
		Window:      l.window,
		ResetsIn:    resetsIn,
		TokensUsed:  state.tokensTotal,
		LastRequest: last,
	}
}

// Reset drops all state for a session.
func (l *Limiter) Reset(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sessions, sessionID)
}

// Sessions returns the tracked session ids, sorted.
func (l *Limiter) Sessions() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.sessions))
	for id := range l.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CleanupIdle removes sessions whose newest activity is older than the given
// age and returns how many were dropped. Token history counts as activity.
func (l *Limiter) CleanupIdle(age time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-age)
	removed := 0
	for id, state := range l.sessions {
		if lastActivity(state).After(cutoff) {
			continue
		}
		delete(l.sessions, id)
		removed++
	}
	return removed
}

// MaxRequests returns the configured ceiling.
func (l *Limiter) MaxRequests() int {
	return l.maxRequests
}

// Window returns the configured window duration.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// session returns the state for the id, creating it when unseen. Callers must
// hold the mutex.
func (l *Limiter) session(sessionID string) *sessionState {
	state, ok := l.sessions[sessionID]
	if !ok {
		state = &sessionState{}
		l.sessions[sessionID] = state
	}
	return state
}

// evict drops request timestamps at or past the end of the trailing window,
// so that waiting out RetryAfter exactly admits the next request.
func (l *Limiter) evict(state *sessionState, now time.Time) {
	cutoff := now.Add(-l.window)
	idx := 0
	for idx < len(state.requests) && !state.requests[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		state.requests = append(state.requests[:0], state.requests[idx:]...)
	}
}

func (l *Limiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}

func lastActivity(state *sessionState) time.Time {
	var last time.Time
	if n := len(state.requests); n > 0 {
		last = state.requests[n-1]
	}
	if n := len(state.tokens); n > 0 && state.tokens[n-1].at.After(last) {
		last = state.tokens[n-1].at
	}
	return last
}
