package journal

import (
	"context"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// LogSink emits instructions to the structured log instead of a database.
// Used by replay runs and by deployments without a journal schema.
type LogSink struct {
	logger *logger.Logger

	// Weights and Liquidations accumulate everything submitted, so a
	// replay run can summarize its output at the end.
	Weights      []contracts.WeightInstruction
	Liquidations []contracts.LiquidationInstruction
}

// NewLogSink creates a log-backed sink
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{logger: log}
}

// SubmitWeights logs each weight instruction
func (s *LogSink) SubmitWeights(_ context.Context, instructions []contracts.WeightInstruction) error {
	for _, in := range instructions {
		s.logger.WithFields(map[string]interface{}{
			"security": in.Security,
			"weight":   in.Weight,
			"as_of":    in.AsOf,
		}).Info("Weight instruction")
	}
	s.Weights = append(s.Weights, instructions...)
	return nil
}

// SubmitLiquidations logs each liquidation instruction
func (s *LogSink) SubmitLiquidations(_ context.Context, instructions []contracts.LiquidationInstruction) error {
	for _, in := range instructions {
		s.logger.WithFields(map[string]interface{}{
			"security": in.Security,
			"reason":   in.Reason,
			"as_of":    in.AsOf,
		}).Info("Liquidation instruction")
	}
	s.Liquidations = append(s.Liquidations, instructions...)
	return nil
}
