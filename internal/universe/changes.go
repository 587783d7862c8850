package universe

import (
	"time"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// ChangeHandler reacts to universe membership deltas. Removed securities
// get a liquidation instruction; additions only get logged, since entry
// into the book happens through the weekly selection.
type ChangeHandler struct {
	logger *logger.Logger
}

// NewChangeHandler creates a change handler
func NewChangeHandler(log *logger.Logger) *ChangeHandler {
	return &ChangeHandler{logger: log}
}

// OnChanges converts a membership delta into liquidation instructions for
// every removed security. It does not touch indicator state; eviction
// policy belongs to the caller.
func (h *ChangeHandler) OnChanges(asOf time.Time, added, removed []contracts.SecurityID) []contracts.LiquidationInstruction {
	if len(added) > 0 {
		h.logger.WithFields(map[string]interface{}{
			"count": len(added),
		}).Debug("Securities entered the universe")
	}

	if len(removed) == 0 {
		return nil
	}

	instructions := make([]contracts.LiquidationInstruction, 0, len(removed))
	for _, id := range removed {
		instructions = append(instructions, contracts.LiquidationInstruction{
			Security: id,
			Reason:   "removed from tracked universe",
			AsOf:     asOf,
		})
	}

	h.logger.WithFields(map[string]interface{}{
		"count": len(removed),
	}).Info("Issuing liquidations for removed securities")

	return instructions
}
