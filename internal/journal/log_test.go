package journal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/logger"
)

func TestLogSink_Accumulates(t *testing.T) {
	sink := NewLogSink(logger.NewNop())
	ctx := context.Background()
	asOf := time.Date(2026, 8, 7, 16, 0, 0, 0, time.UTC)

	require.NoError(t, sink.SubmitWeights(ctx, []contracts.WeightInstruction{
		{Security: "A", Weight: -0.5, AsOf: asOf},
		{Security: "B", Weight: 0.5, AsOf: asOf},
	}))
	require.NoError(t, sink.SubmitWeights(ctx, []contracts.WeightInstruction{
		{Security: "C", Weight: 0.25, AsOf: asOf.AddDate(0, 0, 7)},
	}))
	require.NoError(t, sink.SubmitLiquidations(ctx, []contracts.LiquidationInstruction{
		{Security: "D", Reason: "removed from tracked universe", AsOf: asOf},
	}))

	assert.Len(t, sink.Weights, 3)
	require.Len(t, sink.Liquidations, 1)
	assert.Equal(t, contracts.SecurityID("D"), sink.Liquidations[0].Security)
}
