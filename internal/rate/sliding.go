package rate

import (
	"sync"
	"time"
)

// SlidingLog is a per-key sliding-window attempt log.
type SlidingLog struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	entries map[string][]time.Time
}

// NewSlidingLog creates a log admitting at most limit attempts per key inside
// any trailing window.
func NewSlidingLog(window time.Duration, limit int) *SlidingLog {
	return &SlidingLog{
		window:  window,
		limit:   limit,
		entries: make(map[string][]time.Time),
	}
}

// Allow records an attempt for key at now when the key is under its limit.
// A rejected attempt is not recorded; the returned duration is how long until
// the oldest counted attempt leaves the window.
func (l *SlidingLog) Allow(key string, now time.Time) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.prune(l.entries[key], now, l.window)
	if len(kept) >= l.limit {
		l.entries[key] = kept
		return l.window - now.Sub(kept[0]), false
	}

	l.entries[key] = append(kept, now)
	return 0, true
}

// Count returns the number of attempts for key still inside the window.
func (l *SlidingLog) Count(key string, now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, t := range l.entries[key] {
		if now.Sub(t) <= l.window {
			n++
		}
	}
	return n
}

// Sweep drops attempts older than maxAge and removes keys left empty.
// It returns the number of keys removed.
func (l *SlidingLog) Sweep(now time.Time, maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, ts := range l.entries {
		kept := l.prune(ts, now, maxAge)
		if len(kept) == 0 {
			delete(l.entries, key)
			removed++
			continue
		}
		if len(kept) < len(ts) {
			l.entries[key] = kept
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *SlidingLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *SlidingLog) prune(ts []time.Time, now time.Time, age time.Duration) []time.Time {
	if len(ts) == 0 {
		return nil
	}
	out := ts[:0:0]
	for _, t := range ts {
		if now.Sub(t) > age {
			continue
		}
		out = append(out, t)
	}
	return out
}
