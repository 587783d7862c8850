package indicator

import (
	"context"
	"fmt"
	"sort"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// Registry owns the mapping from security to its momentum indicator.
// Indicators are created lazily (Touch) or through warm-up, and evicted
// explicitly when a security leaves the tracked universe. Designed for
// single-goroutine usage, matching the engine's one-event-at-a-time model.
type Registry struct {
	lookback   int
	indicators map[contracts.SecurityID]*Momentum
	logger     *logger.Logger
}

// NewRegistry creates a registry whose indicators use the given lookback
func NewRegistry(lookbackDays int, log *logger.Logger) *Registry {
	return &Registry{
		lookback:   lookbackDays,
		indicators: make(map[contracts.SecurityID]*Momentum, 128),
		logger:     log,
	}
}

// Touch ensures an indicator exists for id without updating it. Idempotent.
func (r *Registry) Touch(id contracts.SecurityID) {
	if _, ok := r.indicators[id]; !ok {
		r.indicators[id] = NewMomentum(r.lookback)
	}
}

// Get returns the indicator for id, if tracked
func (r *Registry) Get(id contracts.SecurityID) (*Momentum, bool) {
	m, ok := r.indicators[id]
	return m, ok
}

// Ready reports whether id has a warmed indicator
func (r *Registry) Ready(id contracts.SecurityID) bool {
	m, ok := r.indicators[id]
	return ok && m.Ready()
}

// Evict drops the indicator for id. Re-adding the security later goes
// through warm-up again.
func (r *Registry) Evict(id contracts.SecurityID) {
	delete(r.indicators, id)
}

// Len returns the number of tracked securities
func (r *Registry) Len() int {
	return len(r.indicators)
}

// Tracked returns all tracked ids in sorted order
func (r *Registry) Tracked() []contracts.SecurityID {
	ids := make([]contracts.SecurityID, 0, len(r.indicators))
	for id := range r.indicators {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// UpdateAll feeds the batch observation into every tracked indicator present
// in the batch. Securities not yet tracked are skipped; creation happens
// only via Touch or WarmUp. A sequencing error aborts the pass and
// propagates: it means the upstream feed is corrupt.
func (r *Registry) UpdateAll(observations map[contracts.SecurityID]contracts.PriceObservation) error {
	ids := make([]contracts.SecurityID, 0, len(observations))
	for id := range observations {
		if _, tracked := r.indicators[id]; tracked {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		obs := observations[id]
		if err := r.indicators[id].Update(obs.Time, obs.Close); err != nil {
			return fmt.Errorf("update %s: %w", id, err)
		}
	}
	return nil
}

// WarmUp backfills indicators for every id in ids that lacks a ready one.
// History is batch-fetched once, then fed chronologically into fresh
// indicators. Securities with missing or insufficient history are left
// unready and logged at warn level; that is a recoverable partial failure,
// not a fatal one. Already-ready indicators are never re-warmed.
func (r *Registry) WarmUp(ctx context.Context, ids []contracts.SecurityID, provider contracts.HistoryProvider) error {
	need := make([]contracts.SecurityID, 0, len(ids))
	for _, id := range ids {
		if !r.Ready(id) {
			need = append(need, id)
		}
	}
	if len(need) == 0 {
		return nil
	}

	// The ROC needs lookback+1 closes to produce a value, so the backfill
	// requests one point beyond the window.
	series, err := provider.DailyCloses(ctx, need, r.lookback+1)
	if err != nil {
		return fmt.Errorf("fetch daily closes for %d securities: %w", len(need), err)
	}

	warmed := 0
	for _, id := range need {
		history, ok := series[id]
		if !ok || len(history) < r.lookback+1 {
			r.logger.WithFields(map[string]interface{}{
				"security": id,
				"points":   len(history),
				"required": r.lookback + 1,
			}).Warn("Insufficient history for warm-up, excluding from ranking")
			continue
		}

		// Feed only the most recent lookback+1 points
		history = history[len(history)-(r.lookback+1):]

		m := NewMomentum(r.lookback)
		for _, obs := range history {
			if err := m.Update(obs.Time, obs.Close); err != nil {
				return fmt.Errorf("warm up %s: %w", id, err)
			}
		}
		r.indicators[id] = m
		warmed++
	}

	r.logger.WithFields(map[string]interface{}{
		"requested": len(need),
		"warmed":    warmed,
	}).Debug("Indicator warm-up completed")

	return nil
}

// Stats summarizes registry state for observability
type Stats struct {
	Tracked int `json:"tracked"`
	Ready   int `json:"ready"`
}

// Snapshot returns current registry statistics
func (r *Registry) Snapshot() Stats {
	s := Stats{Tracked: len(r.indicators)}
	for _, m := range r.indicators {
		if m.Ready() {
			s.Ready++
		}
	}
	return s
}
