package contracts

import "context"

// HistoryProvider supplies historical daily closes for indicator warm-up.
// Implementations may return partial results: missing securities or series
// shorter than requested are tolerated by the caller.
type HistoryProvider interface {
	DailyCloses(ctx context.Context, ids []SecurityID, lookbackDays int) (map[SecurityID][]PriceObservation, error)
}

// InstructionSink receives the engine's rebalance output. The surrounding
// execution platform turns instructions into orders.
type InstructionSink interface {
	SubmitWeights(ctx context.Context, instructions []WeightInstruction) error
	SubmitLiquidations(ctx context.Context, instructions []LiquidationInstruction) error
}

// UniverseSink receives the tracked universe after each weekly refresh.
// The platform uses it to manage data subscriptions.
type UniverseSink interface {
	PublishUniverse(ctx context.Context, snapshot *UniverseSnapshot) error
}
