package detectors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/zombar/ghosted/internal/models"
)

// DefaultDetectTimeout bounds each individual adapter call.
const DefaultDetectTimeout = 60 * time.Second

// Registry holds the configured detectors in a fixed preference order
// and fans detection out across them. Selection is a pure function of
// (requested ids, configured order); failure of one adapter never
// aborts or cancels its siblings.
type Registry struct {
	ordered []Detector
	byID    map[string]Detector
	primary Detector
	quota   *QuotaTracker
	timeout time.Duration
	logger  *slog.Logger
}

// NewRegistry creates a registry. The quota tracker may be nil when no
// detector carries a daily budget.
func NewRegistry(timeout time.Duration, quota *QuotaTracker, logger *slog.Logger) *Registry {
	if timeout <= 0 {
		timeout = DefaultDetectTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		byID:    map[string]Detector{},
		quota:   quota,
		timeout: timeout,
		logger:  logger,
	}
}

// Register appends a detector to the preference order. The first
// registered primary becomes the designated primary for the registry.
func (r *Registry) Register(d Detector) {
	if _, dup := r.byID[d.ID()]; dup {
		return
	}
	r.ordered = append(r.ordered, d)
	r.byID[d.ID()] = d
	if d.Role() == RolePrimary && r.primary == nil {
		r.primary = d
	}
}

// Get looks a detector up by id.
func (r *Registry) Get(id string) (Detector, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Detectors describes every configured detector for the listing endpoint.
func (r *Registry) Detectors() []models.DetectorInfo {
	infos := make([]models.DetectorInfo, 0, len(r.ordered))
	for _, d := range r.ordered {
		infos = append(infos, models.DetectorInfo{
			Detector:     d.ID(),
			DetectorName: d.DisplayName(),
			Method:       d.Method(),
			Role:         string(d.Role()),
			Available:    d.Available(),
		})
	}
	return infos
}

// Resolve selects the adapters to invoke. With explicit ids only those
// run, in registry order regardless of role; unknown ids surface as
// per-id error results rather than failing the request. With no ids
// every configured adapter runs once.
func (r *Registry) Resolve(requestedIDs []string) ([]Detector, []models.DetectorResult) {
	if len(requestedIDs) == 0 {
		return r.ordered, nil
	}

	requested := map[string]bool{}
	var unknown []models.DetectorResult
	for _, id := range requestedIDs {
		if _, ok := r.byID[id]; ok {
			requested[id] = true
			continue
		}
		unknown = append(unknown, models.DetectorResult{
			Detector: id,
			Verdict:  models.VerdictError,
			Note:     fmt.Sprintf("unknown detector %q", id),
		})
	}

	var selected []Detector
	for _, d := range r.ordered {
		if requested[d.ID()] {
			selected = append(selected, d)
		}
	}
	return selected, unknown
}

// DetectAll runs every resolved adapter concurrently, each under its own
// timeout, and joins before returning. A slow or failing adapter
// degrades to its own error result; an expired caller deadline turns
// still-pending adapters into error results instead of failing the
// batch.
func (r *Registry) DetectAll(ctx context.Context, text string, requestedIDs []string) []models.DetectorResult {
	selected, results := r.Resolve(requestedIDs)
	if len(selected) == 0 {
		return results
	}

	primaryDown := r.primary != nil && !r.primary.Available()

	slots := make([]models.DetectorResult, len(selected))
	var g errgroup.Group
	for i, d := range selected {
		g.Go(func() error {
			slots[i] = r.detectOne(ctx, d, text, primaryDown)
			return nil
		})
	}
	g.Wait()

	return append(slots, results...)
}

func (r *Registry) detectOne(ctx context.Context, d Detector, text string, primaryDown bool) models.DetectorResult {
	result := r.invoke(ctx, d, text)

	if result.Verdict == models.VerdictError {
		r.logger.Warn("detector failed", "detector", d.ID(), "note", result.Note)
	}

	result.Note = annotateRole(result.Note, d, primaryDown)
	return result
}

// invoke runs one adapter under the registry timeout. The registry is
// the sole quota gatekeeper: it charges the primary's budget up front
// and refuses the call itself once the budget is gone, so the request
// that crosses the threshold still goes through.
func (r *Registry) invoke(ctx context.Context, d Detector, text string) models.DetectorResult {
	if r.quota != nil && d.Role() == RolePrimary {
		if !r.quota.Spend(d.ID(), utf8.RuneCountInString(text)) {
			return errorResult(d, "daily character quota exhausted; resets at midnight")
		}
	}

	tctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan models.DetectorResult, 1)
	go func() {
		done <- d.Detect(tctx, text)
	}()

	select {
	case result := <-done:
		return result
	case <-tctx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			return errorResult(d, "detection cancelled by caller")
		}
		return errorResult(d, fmt.Sprintf("detection timed out: %v", tctx.Err()))
	}
}

// annotateRole tags each result with the adapter's routing role. A
// fallback flags itself as backup coverage when the primary is down; it
// runs either way.
func annotateRole(note string, d Detector, primaryDown bool) string {
	tag := fmt.Sprintf("[%s]", d.Role())
	if d.Role() == RoleFallback && primaryDown {
		tag = "[fallback] Providing backup coverage while the primary detector is unavailable."
	}
	if note == "" {
		return tag
	}
	return note + " " + tag
}
