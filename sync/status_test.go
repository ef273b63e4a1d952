// ABOUTME: Tests for the per-user sync status registry
// ABOUTME: Verifies single-flight semantics and status bookkeeping
package sync

import (
	"errors"
	gosync "sync"
	"testing"
)

func TestStatusRegistrySingleFlight(t *testing.T) {
	reg := NewStatusRegistry()

	if !reg.TryStart("user@example.com") {
		t.Fatal("first TryStart must succeed")
	}
	if reg.TryStart("user@example.com") {
		t.Error("second TryStart must fail while the first pass runs")
	}
	if !reg.TryStart("other@example.com") {
		t.Error("a different user must not be blocked")
	}

	reg.Finish("user@example.com", nil)
	if !reg.TryStart("user@example.com") {
		t.Error("TryStart must succeed again after Finish")
	}
}

func TestStatusRegistrySingleFlightConcurrent(t *testing.T) {
	reg := NewStatusRegistry()

	const attempts = 50
	acquired := 0
	var mu gosync.Mutex
	var wg gosync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if reg.TryStart("user@example.com") {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != 1 {
		t.Errorf("expected exactly one concurrent TryStart to win, got %d", acquired)
	}
}

func TestStatusRegistryOutcomes(t *testing.T) {
	reg := NewStatusRegistry()

	reg.TryStart("user@example.com")
	reg.Finish("user@example.com", errors.New("boom"))

	st := reg.Get("user@example.com")
	if st.Running {
		t.Error("running flag must clear on Finish")
	}
	if st.LastError != "boom" {
		t.Errorf("expected last error 'boom', got %q", st.LastError)
	}
	if st.LastSuccess != nil {
		t.Error("failed run must not stamp last success")
	}

	reg.TryStart("user@example.com")
	reg.Finish("user@example.com", nil)

	st = reg.Get("user@example.com")
	if st.LastSuccess == nil {
		t.Error("successful run must stamp last success")
	}
	if st.LastError != "" {
		t.Error("successful run must clear last error")
	}
}

func TestStatusRegistryNeedsReauth(t *testing.T) {
	reg := NewStatusRegistry()

	reg.MarkNeedsReauth("user@example.com")
	if !reg.Get("user@example.com").NeedsReauth {
		t.Error("expected needs-reauth flag set")
	}

	reg.ClearNeedsReauth("user@example.com")
	if reg.Get("user@example.com").NeedsReauth {
		t.Error("expected needs-reauth flag cleared")
	}
}
