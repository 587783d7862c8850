// Package rebalance turns pending weekly selections into target-weight
// instructions, once per selection.
package rebalance

import (
	"time"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// Scheduler consumes the shared SelectionState on each data event. A
// non-empty selection is converted into equal-weight instructions per side
// and then cleared, so the same selection never re-enters positions on
// subsequent days.
type Scheduler struct {
	// grossExposure is W: the gross exposure fraction allocated to each
	// leg. Longs sum to +W, shorts to -W.
	grossExposure float64
	logger        *logger.Logger
}

// NewScheduler creates a rebalance scheduler with the given gross exposure
// fraction per leg (e.g. 0.5).
func NewScheduler(grossExposure float64, log *logger.Logger) *Scheduler {
	return &Scheduler{
		grossExposure: grossExposure,
		logger:        log,
	}
}

// Emit produces weight instructions for the pending selection and clears
// it. Returns nil when nothing is pending, which makes repeated daily
// invocations between refreshes no-ops. An empty side is skipped entirely,
// so the per-security division is never by zero.
func (s *Scheduler) Emit(asOf time.Time, state *contracts.SelectionState) []contracts.WeightInstruction {
	if state.IsEmpty() {
		return nil
	}

	instructions := make([]contracts.WeightInstruction, 0, len(state.Shorts)+len(state.Longs))

	if n := len(state.Shorts); n > 0 {
		weight := -s.grossExposure / float64(n)
		for _, id := range state.Shorts {
			instructions = append(instructions, contracts.WeightInstruction{
				Security: id,
				Weight:   weight,
				AsOf:     asOf,
			})
		}
	}

	if n := len(state.Longs); n > 0 {
		weight := s.grossExposure / float64(n)
		for _, id := range state.Longs {
			instructions = append(instructions, contracts.WeightInstruction{
				Security: id,
				Weight:   weight,
				AsOf:     asOf,
			})
		}
	}

	// Consume-then-clear: the selection has been fully turned into
	// instructions above, so clearing here is safe and debounces the
	// daily event stream until the next weekly refresh.
	state.Clear()

	s.logger.WithFields(map[string]interface{}{
		"instructions": len(instructions),
	}).Info("Rebalance instructions emitted")

	return instructions
}
