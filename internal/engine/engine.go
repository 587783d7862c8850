// Package engine wires the selection pipeline together and owns the shared
// state handed between its stages: the tracked universe and the pending
// selection.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/internal/indicator"
	"github.com/quantfold/ebbtide/internal/rebalance"
	"github.com/quantfold/ebbtide/internal/universe"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// Engine is the strategy controller. All methods are invoked synchronously,
// one event at a time, by the surrounding platform (scheduler, feed or
// replay); no internal locking is needed under that model.
type Engine struct {
	registry   *indicator.Registry
	selector   *universe.Selector
	rebalancer *rebalance.Scheduler
	changes    *universe.ChangeHandler

	instructions contracts.InstructionSink
	universeSink contracts.UniverseSink
	logger       *logger.Logger

	// selection is populated by the weekly refresh and cleared by the
	// rebalancer after emission
	selection contracts.SelectionState

	// tracked is the last published universe snapshot
	tracked *contracts.UniverseSnapshot
}

// New creates the engine around its collaborators. universeSink may be nil
// when no external subscription management is attached (replay, tests).
func New(
	registry *indicator.Registry,
	selector *universe.Selector,
	rebalancer *rebalance.Scheduler,
	changes *universe.ChangeHandler,
	instructions contracts.InstructionSink,
	universeSink contracts.UniverseSink,
	log *logger.Logger,
) *Engine {
	return &Engine{
		registry:     registry,
		selector:     selector,
		rebalancer:   rebalancer,
		changes:      changes,
		instructions: instructions,
		universeSink: universeSink,
		logger:       log,
	}
}

// OnDailyBars processes one end-of-day candidate batch: indicator updates,
// the (weekly-gated) reselection, membership-change handling, and the
// rebalance emission that runs on every data event.
func (e *Engine) OnDailyBars(ctx context.Context, asOf time.Time, batch []contracts.DailyBar) error {
	result, err := e.selector.Process(ctx, asOf, batch)
	if err != nil {
		return fmt.Errorf("selection pass: %w", err)
	}

	if result.Refreshed {
		added, removed := result.Universe.Diff(e.tracked)
		e.tracked = result.Universe

		if e.universeSink != nil {
			if err := e.universeSink.PublishUniverse(ctx, result.Universe); err != nil {
				return fmt.Errorf("publish universe: %w", err)
			}
		}

		if err := e.applyMembershipDelta(ctx, asOf, added, removed); err != nil {
			return err
		}

		e.selection.Set(result.Longs, result.Shorts)
	}

	weights := e.rebalancer.Emit(asOf, &e.selection)
	if len(weights) > 0 {
		if err := e.instructions.SubmitWeights(ctx, weights); err != nil {
			return fmt.Errorf("submit weight instructions: %w", err)
		}
	}

	return nil
}

// OnUniverseChanges handles a membership delta pushed by the platform
// outside the weekly refresh, e.g. a delisting mid-week.
func (e *Engine) OnUniverseChanges(ctx context.Context, asOf time.Time, added, removed []contracts.SecurityID) error {
	if e.tracked != nil && len(removed) > 0 {
		kept := e.tracked.Members[:0:0]
		drop := make(map[contracts.SecurityID]struct{}, len(removed))
		for _, id := range removed {
			drop[id] = struct{}{}
		}
		for _, id := range e.tracked.Members {
			if _, gone := drop[id]; !gone {
				kept = append(kept, id)
			}
		}
		e.tracked.Members = kept
	}

	return e.applyMembershipDelta(ctx, asOf, added, removed)
}

// applyMembershipDelta emits liquidations for removed securities and evicts
// their indicators. Eviction is the configured policy here: a removed
// security that re-enters goes through warm-up again.
func (e *Engine) applyMembershipDelta(ctx context.Context, asOf time.Time, added, removed []contracts.SecurityID) error {
	liquidations := e.changes.OnChanges(asOf, added, removed)
	if len(liquidations) > 0 {
		if err := e.instructions.SubmitLiquidations(ctx, liquidations); err != nil {
			return fmt.Errorf("submit liquidations: %w", err)
		}
	}

	for _, id := range removed {
		e.registry.Evict(id)
	}

	return nil
}

// Selection returns a copy of the pending selection
func (e *Engine) Selection() contracts.SelectionState {
	return contracts.SelectionState{
		Longs:  append([]contracts.SecurityID(nil), e.selection.Longs...),
		Shorts: append([]contracts.SecurityID(nil), e.selection.Shorts...),
	}
}

// Universe returns the last published universe snapshot, or nil before the
// first refresh
func (e *Engine) Universe() *contracts.UniverseSnapshot {
	return e.tracked
}

// IndicatorStats returns registry statistics for observability
func (e *Engine) IndicatorStats() indicator.Stats {
	return e.registry.Snapshot()
}
