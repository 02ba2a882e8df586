package detectors

import (
	"sync"
	"time"
)

// QuotaTracker tracks per-detector daily character usage. It is the only
// shared mutable state in the detection path, so all access goes through
// one mutex. The clock is injectable for deterministic reset tests.
type QuotaTracker struct {
	mu     sync.Mutex
	now    func() time.Time
	day    string
	limits map[string]int
	used   map[string]int
}

// NewQuotaTracker creates a tracker. A nil clock defaults to time.Now.
func NewQuotaTracker(now func() time.Time) *QuotaTracker {
	if now == nil {
		now = time.Now
	}
	t := &QuotaTracker{
		now:    now,
		limits: map[string]int{},
		used:   map[string]int{},
	}
	t.day = t.now().Format("2006-01-02")
	return t
}

// SetLimit configures the daily character budget for a detector.
// A limit of zero means unlimited.
func (t *QuotaTracker) SetLimit(id string, chars int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.limits[id] = chars
}

// Spend charges chars against a detector's daily budget and reports
// whether the request was admitted. Any budget left when the call
// arrives admits it, so the request that crosses the threshold is
// charged in full and still served; everything after it is refused,
// uncharged, until the daily reset.
func (t *QuotaTracker) Spend(id string, chars int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()

	limit := t.limits[id]
	if limit > 0 && t.used[id] >= limit {
		return false
	}
	t.used[id] += chars
	return true
}

// Exhausted reports whether a detector has no budget left today.
func (t *QuotaTracker) Exhausted(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()

	limit := t.limits[id]
	return limit > 0 && t.used[id] >= limit
}

// Remaining reports the character budget left today. Unlimited detectors
// report -1.
func (t *QuotaTracker) Remaining(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()

	limit := t.limits[id]
	if limit <= 0 {
		return -1
	}
	left := limit - t.used[id]
	if left < 0 {
		return 0
	}
	return left
}

// rollover resets counters when the calendar day changes. Callers must
// hold the mutex.
func (t *QuotaTracker) rollover() {
	day := t.now().Format("2006-01-02")
	if day != t.day {
		t.day = day
		t.used = map[string]int{}
	}
}
