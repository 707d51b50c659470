package services

import (
	"log/slog"
	"sync"
	"time"
)

// CounterStore is the injected storage for fixed-window request counters.
// Modeling it as an interface keeps the limiter testable and leaves room
// for a shared store when the service scales past one process.
type CounterStore interface {
	// Hit increments the counter for key within its current window and
	// returns the new count plus the window's end. A key whose window has
	// expired restarts at 1.
	Hit(key string, now time.Time, window time.Duration) (count int, windowEnd time.Time, err error)
	// Reclaim drops entries whose windows ended before now, bounding memory.
	Reclaim(now time.Time)
}

// RateLimitResult is the outcome of a limiter check
type RateLimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
}

// RateLimiter enforces per-key fixed-window limits. Sensitive routes get
// their own limiter with route-scoped keys so abuse of one endpoint does
// not exhaust the quota for unrelated ones.
type RateLimiter struct {
	store  CounterStore
	limit  int
	window time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewRateLimiter creates a limiter over the given store.
func NewRateLimiter(store CounterStore, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
}

// Check registers a request for ip (optionally scoped to a route) and
// reports whether it is within the limit. When over the limit the result
// carries the remaining window time as RetryAfter.
func (l *RateLimiter) Check(ip, routeKey string) RateLimitResult {
	key := ip
	if routeKey != "" {
		key = ip + "|" + routeKey
	}

	now := l.now()
	count, windowEnd, err := l.store.Hit(key, now, l.window)
	if err != nil {
		// Counter store failure fails open: a broken limiter should not
		// take down legitimate traffic. Block-list checks stay fail-closed.
		l.logger.Error("rate limit store failure", slog.Any("error", err))
		return RateLimitResult{Allowed: true}
	}

	if count > l.limit {
		retryAfter := windowEnd.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return RateLimitResult{Allowed: false, RetryAfter: retryAfter}
	}

	return RateLimitResult{Allowed: true}
}

// Reclaim drops expired counters from the underlying store.
func (l *RateLimiter) Reclaim() {
	l.store.Reclaim(l.now())
}

// memoryCounter is one fixed window for a key
type memoryCounter struct {
	windowStart time.Time
	count       int
}

// MemoryCounterStore is the in-process CounterStore. Windows reset
// independently per key; Reclaim must run periodically to drop expired
// entries.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*memoryCounter
	window   time.Duration
}

// NewMemoryCounterStore creates an empty in-memory store.
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]*memoryCounter),
	}
}

// Hit implements CounterStore.
func (s *MemoryCounterStore) Hit(key string, now time.Time, window time.Duration) (int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.window = window

	c, ok := s.counters[key]
	if !ok || now.Sub(c.windowStart) >= window {
		c = &memoryCounter{windowStart: now}
		s.counters[key] = c
	}

	c.count++
	return c.count, c.windowStart.Add(window), nil
}

// Reclaim implements CounterStore.
func (s *MemoryCounterStore) Reclaim(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, c := range s.counters {
		if now.Sub(c.windowStart) >= s.window {
			delete(s.counters, key)
		}
	}
}

// Len reports the number of live counters.
func (s *MemoryCounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
