package rate

import (
	"sync"
	"time"
)

type windowRecord struct {
	count     int
	firstTime time.Time
}

// Outcome is the result of a single [ResetWindow.Attempt].
type Outcome struct {
	// Blocked is set when the key was already at its limit; check was not run.
	Blocked bool
	// Passed is set when check returned true; the key's record was deleted.
	Passed bool
	// Count is the failure count after this attempt.
	Count int
	// Tripped is set on the failure that brought Count to the limit.
	Tripped bool
}

// keyLock serializes Attempt calls for one key. refs counts holders and
// waiters; the entry is dropped when it reaches zero.
type keyLock struct {
	mu   sync.Mutex
	refs int
}

// ResetWindow is a per-key failure counter with an auto-reset window.
//
// mu guards records and locks and is only held for map lookups and updates.
// Attempts on the same key are serialized by that key's keyLock; attempts on
// different keys never wait on each other's check.
type ResetWindow struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	records map[string]*windowRecord
	locks   map[string]*keyLock
}

// NewResetWindow creates a counter that blocks a key after limit failures
// until window has elapsed since that key's first recorded failure.
func NewResetWindow(window time.Duration, limit int) *ResetWindow {
	return &ResetWindow{
		window:  window,
		limit:   limit,
		records: make(map[string]*windowRecord),
		locks:   make(map[string]*keyLock),
	}
}

// Attempt runs check for key while holding that key's lock.
//
// An elapsed window is discarded first. A key at its limit is rejected
// without calling check. A passing check deletes the key's record; a failing
// one creates the record lazily and increments it. check runs outside the
// window-wide mutex.
func (w *ResetWindow) Attempt(key string, now time.Time, check func() bool) Outcome {
	unlock := w.lockKey(key)
	defer unlock()

	w.mu.Lock()
	rec := w.current(key, now)
	if rec != nil && rec.count >= w.limit {
		count := rec.count
		w.mu.Unlock()
		return Outcome{Blocked: true, Count: count}
	}
	w.mu.Unlock()

	passed := check()

	w.mu.Lock()
	defer w.mu.Unlock()

	if passed {
		delete(w.records, key)
		return Outcome{Passed: true}
	}

	// Reset or Sweep may have dropped the record while check ran.
	rec = w.current(key, now)
	if rec == nil {
		rec = &windowRecord{firstTime: now}
		w.records[key] = rec
	}
	rec.count++

	return Outcome{Count: rec.count, Tripped: rec.count == w.limit}
}

// lockKey acquires the per-key lock and returns its release func.
func (w *ResetWindow) lockKey(key string) func() {
	w.mu.Lock()
	kl, ok := w.locks[key]
	if !ok {
		kl = &keyLock{}
		w.locks[key] = kl
	}
	kl.refs++
	w.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		w.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(w.locks, key)
		}
		w.mu.Unlock()
	}
}

// Blocked reports whether key is currently at its limit.
func (w *ResetWindow) Blocked(key string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := w.current(key, now)
	return rec != nil && rec.count >= w.limit
}

// Count returns the failure count inside the current window for key.
func (w *ResetWindow) Count(key string, now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec := w.current(key, now)
	if rec == nil {
		return 0
	}
	return rec.count
}

// Reset deletes the record for key.
func (w *ResetWindow) Reset(key string) {
	w.mu.Lock()
	delete(w.records, key)
	w.mu.Unlock()
}

// Sweep removes every record whose window has elapsed and returns how many
// were removed. A lazy reset on next access is equivalent.
func (w *ResetWindow) Sweep(now time.Time) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	removed := 0
	for key, rec := range w.records {
		if now.Sub(rec.firstTime) > w.window {
			delete(w.records, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (w *ResetWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}

// current returns the live record for key, discarding an elapsed one.
// Caller must hold w.mu.
func (w *ResetWindow) current(key string, now time.Time) *windowRecord {
	rec, ok := w.records[key]
	if !ok {
		return nil
	}
	if now.Sub(rec.firstTime) > w.window {
		delete(w.records, key)
		return nil
	}
	return rec
}
