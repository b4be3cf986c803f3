package rate

import (
	"sync"
	"testing"
	"time"
)

func fail() bool { return false }
func pass() bool { return true }

func TestResetWindowTripsAtLimit(t *testing.T) {
	w := NewResetWindow(time.Hour, 3)

	for i := 1; i <= 2; i++ {
		out := w.Attempt("k", t0, fail)
		if out.Blocked || out.Tripped || out.Count != i {
			t.Fatalf("failure %d: unexpected outcome %+v", i, out)
		}
	}

	out := w.Attempt("k", t0, fail)
	if !out.Tripped || out.Count != 3 {
		t.Fatalf("3rd failure should trip, got %+v", out)
	}

	called := false
	out = w.Attempt("k", t0, func() bool { called = true; return true })
	if !out.Blocked {
		t.Fatalf("expected blocked, got %+v", out)
	}
	if called {
		t.Fatal("check must not run for a blocked key")
	}
}

func TestResetWindowSuccessDeletesRecord(t *testing.T) {
	w := NewResetWindow(time.Hour, 3)
	w.Attempt("k", t0, fail)
	w.Attempt("k", t0, fail)

	out := w.Attempt("k", t0, pass)
	if !out.Passed {
		t.Fatalf("expected pass, got %+v", out)
	}
	if w.Len() != 0 {
		t.Fatalf("expected record deleted, have %d", w.Len())
	}
	if out := w.Attempt("k", t0, fail); out.Count != 1 {
		t.Fatalf("count should restart at 1, got %d", out.Count)
	}
}

func TestResetWindowResetsWholesale(t *testing.T) {
	w := NewResetWindow(time.Hour, 2)
	w.Attempt("k", t0, fail)
	w.Attempt("k", t0.Add(30*time.Minute), fail)

	if !w.Blocked("k", t0.Add(time.Hour)) {
		t.Fatal("record exactly at the window edge must still count")
	}
	if w.Blocked("k", t0.Add(time.Hour+time.Millisecond)) {
		t.Fatal("window measured from first failure should have reset")
	}
	if w.Count("k", t0.Add(time.Hour+time.Millisecond)) != 0 {
		t.Fatal("reset must discard the old count entirely")
	}
}

func TestResetWindowLazyFirstTime(t *testing.T) {
	w := NewResetWindow(time.Hour, 2)
	// Successes never open a window.
	w.Attempt("k", t0, pass)
	w.Attempt("k", t0.Add(50*time.Minute), fail)
	w.Attempt("k", t0.Add(55*time.Minute), fail)

	if !w.Blocked("k", t0.Add(70*time.Minute)) {
		t.Fatal("window should start at the first failure, not the first access")
	}
}

func TestResetWindowSweep(t *testing.T) {
	w := NewResetWindow(time.Hour, 5)
	w.Attempt("old", t0, fail)
	w.Attempt("new", t0.Add(50*time.Minute), fail)

	if n := w.Sweep(t0.Add(61 * time.Minute)); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}
	if w.Len() != 1 {
		t.Fatalf("expected 1 remaining, got %d", w.Len())
	}
}

func TestResetWindowConcurrentFailuresAreNotLost(t *testing.T) {
	w := NewResetWindow(time.Hour, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				w.Attempt("k", t0, fail)
			}
		}()
	}
	wg.Wait()

	if got := w.Count("k", t0); got != 500 {
		t.Fatalf("expected 500 failures, got %d", got)
	}
}

func TestResetWindowCheckDoesNotBlockOtherKeys(t *testing.T) {
	w := NewResetWindow(time.Hour, 10)

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan Outcome, 1)
	go func() {
		done <- w.Attempt("slow", t0, func() bool {
			close(entered)
			<-release
			return false
		})
	}()
	<-entered

	fast := make(chan Outcome, 1)
	go func() { fast <- w.Attempt("fast", t0, fail) }()

	select {
	case out := <-fast:
		if out.Count != 1 {
			t.Fatalf("expected 1 failure for fast key, got %d", out.Count)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("attempt on another key waited for an in-flight check")
	}

	close(release)
	if out := <-done; out.Count != 1 {
		t.Fatalf("expected 1 failure for slow key, got %d", out.Count)
	}
	if w.locks["slow"] != nil || w.locks["fast"] != nil {
		t.Fatal("expected key locks to be released")
	}
}

func TestResetWindowSameKeyIsSerialized(t *testing.T) {
	w := NewResetWindow(time.Hour, 1)

	entered := make(chan struct{})
	release := make(chan struct{})
	first := make(chan Outcome, 1)
	go func() {
		first <- w.Attempt("k", t0, func() bool {
			close(entered)
			<-release
			return false
		})
	}()
	<-entered

	second := make(chan Outcome, 1)
	called := false
	go func() {
		second <- w.Attempt("k", t0, func() bool { called = true; return true })
	}()

	select {
	case <-second:
		t.Fatal("second attempt on the same key ran before the first finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if out := <-first; !out.Tripped {
		t.Fatalf("expected first failure to trip the limit, got %+v", out)
	}
	out := <-second
	if !out.Blocked || called {
		t.Fatalf("expected second attempt blocked without running check, got %+v called=%v", out, called)
	}
}
