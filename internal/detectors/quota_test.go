package detectors

import (
	"sync"
	"testing"
	"time"
)

func TestQuotaSpendWithinLimit(t *testing.T) {
	q := NewQuotaTracker(nil)
	q.SetLimit("d", 100)

	if !q.Spend("d", 60) {
		t.Error("spend within budget should succeed")
	}
	if q.Exhausted("d") {
		t.Error("detector should not be exhausted yet")
	}
	if got := q.Remaining("d"); got != 40 {
		t.Errorf("remaining = %d, want 40", got)
	}
}

func TestQuotaCrossingThresholdExhausts(t *testing.T) {
	q := NewQuotaTracker(nil)
	q.SetLimit("d", 100)

	q.Spend("d", 60)
	if !q.Spend("d", 60) {
		t.Error("the spend that crosses the budget should still be admitted")
	}
	if !q.Exhausted("d") {
		t.Error("detector should be exhausted after crossing the budget")
	}
	if q.Spend("d", 1) {
		t.Error("spends after exhaustion should be refused")
	}
	if got := q.Remaining("d"); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}

func TestQuotaUnlimitedDetector(t *testing.T) {
	q := NewQuotaTracker(nil)

	if !q.Spend("free", 1_000_000) {
		t.Error("unlimited detector should always be within budget")
	}
	if q.Exhausted("free") {
		t.Error("unlimited detector can never be exhausted")
	}
	if got := q.Remaining("free"); got != -1 {
		t.Errorf("remaining = %d, want -1 for unlimited", got)
	}
}

func TestQuotaDailyReset(t *testing.T) {
	now := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	q := NewQuotaTracker(clock)
	q.SetLimit("d", 100)
	q.Spend("d", 100)
	if !q.Exhausted("d") {
		t.Fatal("detector should be exhausted before midnight")
	}

	// Cross the day boundary.
	mu.Lock()
	now = now.Add(20 * time.Minute)
	mu.Unlock()

	if q.Exhausted("d") {
		t.Error("counters should reset at the daily boundary")
	}
	if got := q.Remaining("d"); got != 100 {
		t.Errorf("remaining after reset = %d, want 100", got)
	}
}

func TestQuotaConcurrentSpends(t *testing.T) {
	q := NewQuotaTracker(nil)
	q.SetLimit("d", 1000)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Spend("d", 10)
		}()
	}
	wg.Wait()

	if !q.Exhausted("d") {
		t.Errorf("100 spends of 10 against 1000 should exactly exhaust the budget, remaining=%d", q.Remaining("d"))
	}
	if got := q.Remaining("d"); got != 0 {
		t.Errorf("remaining = %d, want 0", got)
	}
}
