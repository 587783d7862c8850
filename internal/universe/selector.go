// Package universe implements the weekly selection pipeline: liquidity
// ranking, indicator warm-up, and the momentum-extremes pick that drives
// the long/short book.
package universe

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/internal/indicator"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// SelectorConfig holds the selection parameters
type SelectorConfig struct {
	// LiquidityTopK is the size of the liquidity-selected set (the tracked
	// universe), e.g. 100.
	LiquidityTopK int

	// MomentumFraction is the per-side selection size as a fraction of
	// LiquidityTopK, e.g. 0.10 for 10 longs and 10 shorts at K=100.
	MomentumFraction float64
}

// Result is the outcome of one daily pass through the selector
type Result struct {
	// Refreshed is false when the weekly gate suppressed reselection;
	// indicators were still updated.
	Refreshed bool

	// Universe is the new tracked membership. Nil unless Refreshed.
	Universe *contracts.UniverseSnapshot

	// Shorts holds the top-momentum picks, highest first; Longs the
	// bottom-momentum picks, lowest first. The reversal logic shorts
	// winners and buys losers. Empty unless Refreshed.
	Shorts []contracts.SecurityID
	Longs  []contracts.SecurityID

	// ReadyCount is how many liquidity-selected securities had a warmed
	// indicator at ranking time.
	ReadyCount int
}

// Selector runs the weekly-gated ranking pipeline over daily candidate
// batches. One transition per invocation; single-goroutine usage.
type Selector struct {
	config   SelectorConfig
	registry *indicator.Registry
	history  contracts.HistoryProvider
	logger   *logger.Logger

	// lastWeek is year*100+ISO week of the last refresh, 0 before the first
	lastWeek int
}

// NewSelector creates a selector working against the given registry
func NewSelector(cfg SelectorConfig, registry *indicator.Registry, history contracts.HistoryProvider, log *logger.Logger) *Selector {
	return &Selector{
		config:   cfg,
		registry: registry,
		history:  history,
		logger:   log,
	}
}

// Process handles one daily candidate batch. Indicators for tracked
// securities are always updated; ranking and reselection run at most once
// per ISO week. asOf is the event time of the batch.
func (s *Selector) Process(ctx context.Context, asOf time.Time, batch []contracts.DailyBar) (*Result, error) {
	// Update phase: keep every tracked indicator current, including on
	// non-refresh days, so securities re-entering the universe stay warm.
	observations := make(map[contracts.SecurityID]contracts.PriceObservation, len(batch))
	for _, bar := range batch {
		observations[bar.Security] = contracts.PriceObservation{Time: bar.EndTime, Close: bar.Close}
	}
	if err := s.registry.UpdateAll(observations); err != nil {
		return nil, fmt.Errorf("daily indicator update: %w", err)
	}

	// Weekly gate
	week := weekKey(asOf)
	if week == s.lastWeek {
		return &Result{Refreshed: false}, nil
	}
	s.lastWeek = week

	// Liquidity filter: stable sort keeps the original batch order on ties,
	// making the selection reproducible for identical input.
	candidates := append([]contracts.DailyBar(nil), batch...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DollarVolume > candidates[j].DollarVolume
	})

	topK := len(candidates)
	if s.config.LiquidityTopK < topK {
		topK = s.config.LiquidityTopK
	}

	snapshot := &contracts.UniverseSnapshot{
		Date:     asOf,
		Members:  make([]contracts.SecurityID, 0, topK),
		Excluded: make(map[contracts.SecurityID]string),
	}
	for i, c := range candidates {
		if i < topK {
			snapshot.Members = append(snapshot.Members, c.Security)
		} else {
			snapshot.Excluded[c.Security] = fmt.Sprintf("below liquidity cut (rank %d)", i+1)
		}
	}

	// Warm-up: batch-fetch history for exactly the members lacking a ready
	// indicator. WarmUp itself skips ready ones, keeping history calls
	// minimal.
	if err := s.registry.WarmUp(ctx, snapshot.Members, s.history); err != nil {
		return nil, fmt.Errorf("warm up universe: %w", err)
	}

	// Members whose warm-up fell short stay tracked: daily updates will
	// fill their window until they become ready organically.
	for _, id := range snapshot.Members {
		s.registry.Touch(id)
	}

	// Momentum rank over the ready members, descending, stable on batch
	// order for ties
	type scored struct {
		id    contracts.SecurityID
		value float64
	}
	ready := make([]scored, 0, len(snapshot.Members))
	for _, id := range snapshot.Members {
		m, ok := s.registry.Get(id)
		if !ok || !m.Ready() {
			continue
		}
		v, err := m.Value()
		if err != nil {
			return nil, fmt.Errorf("momentum value for %s: %w", id, err)
		}
		ready = append(ready, scored{id: id, value: v})
	}
	sort.SliceStable(ready, func(i, j int) bool {
		return ready[i].value > ready[j].value
	})

	// Per-side size: a fraction of K, shrunk so the two groups can never
	// overlap when fewer than 2M securities are ready.
	m := int(math.Round(float64(s.config.LiquidityTopK) * s.config.MomentumFraction))
	if m*2 > len(ready) {
		m = len(ready) / 2
	}

	result := &Result{
		Refreshed:  true,
		Universe:   snapshot,
		ReadyCount: len(ready),
	}
	if m > 0 {
		result.Shorts = make([]contracts.SecurityID, 0, m)
		for _, sc := range ready[:m] {
			result.Shorts = append(result.Shorts, sc.id)
		}
		// Longs come off the bottom of the ranking, lowest momentum first
		result.Longs = make([]contracts.SecurityID, 0, m)
		for i := len(ready) - 1; i >= len(ready)-m; i-- {
			result.Longs = append(result.Longs, ready[i].id)
		}
	}

	s.logger.WithFields(map[string]interface{}{
		"week":       week,
		"candidates": len(batch),
		"universe":   len(snapshot.Members),
		"ready":      len(ready),
		"per_side":   m,
	}).Info("Weekly selection completed")

	return result, nil
}

// LastWeek returns the year*100+ISO-week marker of the last refresh,
// 0 before the first one. Exposed for observability.
func (s *Selector) LastWeek() int {
	return s.lastWeek
}

// weekKey collapses a timestamp to its ISO year and week
func weekKey(t time.Time) int {
	year, week := t.ISOWeek()
	return year*100 + week
}
