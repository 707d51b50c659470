package auth

import (
	"sync"
	"time"
)

// AttemptTracker throttles admin password guesses per IP, independent of
// the persisted block state. Purely in-memory: a restart clears it, which
// is acceptable because the persisted block list carries the long-term
// state.
type AttemptTracker struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time
}

// NewAttemptTracker creates a tracker allowing max failures per window.
func NewAttemptTracker(max int, window time.Duration) *AttemptTracker {
	return &AttemptTracker{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
	}
}

// Allow reports whether the IP is under the failure threshold, plus the
// wait time when it is not.
func (t *AttemptTracker) Allow(ip string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := t.prune(ip)
	if len(recent) < t.max {
		return true, 0
	}

	retryAfter := recent[0].Add(t.window).Sub(t.now())
	if retryAfter < 0 {
		retryAfter = 0
	}
	return false, retryAfter
}

// RecordFailure registers a failed attempt for the IP.
func (t *AttemptTracker) RecordFailure(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	recent := t.prune(ip)
	t.attempts[ip] = append(recent, t.now())
}

// RecordSuccess clears the failure history for the IP.
func (t *AttemptTracker) RecordSuccess(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.attempts, ip)
}

// FailureCount returns the number of failures inside the current window.
func (t *AttemptTracker) FailureCount(ip string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.prune(ip))
}

// Reclaim drops IPs with no failures inside the window.
func (t *AttemptTracker) Reclaim() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for ip := range t.attempts {
		if len(t.prune(ip)) == 0 {
			delete(t.attempts, ip)
		}
	}
}

// prune must be called with the lock held. It rewrites the IP's history to
// only the entries inside the window and returns it.
func (t *AttemptTracker) prune(ip string) []time.Time {
	cutoff := t.now().Add(-t.window)
	kept := t.attempts[ip][:0]
	for _, ts := range t.attempts[ip] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(t.attempts, ip)
		return nil
	}
	t.attempts[ip] = kept
	return kept
}
