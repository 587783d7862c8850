package universe

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/internal/indicator"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// fakeHistory serves canned daily close series and counts fetches
type fakeHistory struct {
	series map[contracts.SecurityID][]contracts.PriceObservation
	calls  int
}

func (f *fakeHistory) DailyCloses(_ context.Context, ids []contracts.SecurityID, _ int) (map[contracts.SecurityID][]contracts.PriceObservation, error) {
	f.calls++
	out := make(map[contracts.SecurityID][]contracts.PriceObservation)
	for _, id := range ids {
		if s, ok := f.series[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func day(n int) time.Time {
	// 2026-08-03 is a Monday
	return time.Date(2026, 8, 3, 16, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func closesFrom(start time.Time, prices ...float64) []contracts.PriceObservation {
	obs := make([]contracts.PriceObservation, len(prices))
	for i, p := range prices {
		obs[i] = contracts.PriceObservation{Time: start.AddDate(0, 0, i), Close: p}
	}
	return obs
}

func bar(id contracts.SecurityID, close, volume float64, t time.Time) contracts.DailyBar {
	return contracts.DailyBar{Security: id, Close: close, DollarVolume: volume, EndTime: t}
}

// newSelector builds a selector over three securities whose histories
// produce ROC(A)=0.10, ROC(B)=-0.05, ROC(C)=0.02 at lookback 3.
func newSelector(t *testing.T, cfg SelectorConfig) (*Selector, *indicator.Registry, *fakeHistory) {
	t.Helper()

	historyStart := day(-10)
	provider := &fakeHistory{
		series: map[contracts.SecurityID][]contracts.PriceObservation{
			"A": closesFrom(historyStart, 100, 101, 102, 110),
			"B": closesFrom(historyStart, 200, 198, 199, 190),
			"C": closesFrom(historyStart, 100, 100.5, 101, 102),
		},
	}

	registry := indicator.NewRegistry(3, logger.NewNop())
	return NewSelector(cfg, registry, provider, logger.NewNop()), registry, provider
}

func abcBatch(t time.Time) []contracts.DailyBar {
	return []contracts.DailyBar{
		bar("A", 110, 3_000_000, t),
		bar("B", 190, 2_000_000, t),
		bar("C", 102, 1_000_000, t),
	}
}

func TestSelector_ReversalScenario(t *testing.T) {
	// Liquidity selection size 3, momentum selection size 1
	sel, _, _ := newSelector(t, SelectorConfig{LiquidityTopK: 3, MomentumFraction: 0.34})

	result, err := sel.Process(context.Background(), day(0), abcBatch(day(0)))
	require.NoError(t, err)

	require.True(t, result.Refreshed)
	assert.Equal(t, []contracts.SecurityID{"A", "B", "C"}, result.Universe.Members)
	assert.Equal(t, 3, result.ReadyCount)

	// Highest momentum is shorted, lowest is bought
	assert.Equal(t, []contracts.SecurityID{"A"}, result.Shorts)
	assert.Equal(t, []contracts.SecurityID{"B"}, result.Longs)
}

func TestSelector_WeeklyGate(t *testing.T) {
	sel, registry, provider := newSelector(t, SelectorConfig{LiquidityTopK: 3, MomentumFraction: 0.34})

	first, err := sel.Process(context.Background(), day(0), abcBatch(day(0)))
	require.NoError(t, err)
	require.True(t, first.Refreshed)
	firstCalls := provider.calls

	before, _ := registry.Get("A")
	countBefore := before.Count()

	// Next day, same ISO week: gate holds, but indicators still advance
	second, err := sel.Process(context.Background(), day(1), abcBatch(day(1)))
	require.NoError(t, err)

	assert.False(t, second.Refreshed)
	assert.Nil(t, second.Universe)
	assert.Empty(t, second.Shorts)
	assert.Empty(t, second.Longs)
	assert.Equal(t, firstCalls, provider.calls, "no warm-up inside the same week")

	after, _ := registry.Get("A")
	assert.Equal(t, countBefore, after.Count(), "window slides, count stays full")
	assert.Equal(t, day(1), after.LastTime(), "update phase ran despite the gate")

	// Next ISO week: gate opens again
	third, err := sel.Process(context.Background(), day(7), abcBatch(day(7)))
	require.NoError(t, err)
	assert.True(t, third.Refreshed)
}

func TestSelector_Deterministic(t *testing.T) {
	run := func() *Result {
		sel, _, _ := newSelector(t, SelectorConfig{LiquidityTopK: 3, MomentumFraction: 0.34})
		result, err := sel.Process(context.Background(), day(0), abcBatch(day(0)))
		require.NoError(t, err)
		return result
	}

	a, b := run(), run()
	assert.Equal(t, a.Universe.Members, b.Universe.Members)
	assert.Equal(t, a.Shorts, b.Shorts)
	assert.Equal(t, a.Longs, b.Longs)
}

func TestSelector_LiquidityCut(t *testing.T) {
	sel, _, _ := newSelector(t, SelectorConfig{LiquidityTopK: 2, MomentumFraction: 0.5})

	result, err := sel.Process(context.Background(), day(0), abcBatch(day(0)))
	require.NoError(t, err)

	assert.Equal(t, []contracts.SecurityID{"A", "B"}, result.Universe.Members)
	assert.Contains(t, result.Universe.Excluded, contracts.SecurityID("C"))
	assert.Contains(t, result.Universe.Excluded["C"], "below liquidity cut")
}

func TestSelector_GroupsDisjointWhenFewReady(t *testing.T) {
	// Only A and C have usable history; B's is too short
	sel, _, provider := newSelector(t, SelectorConfig{LiquidityTopK: 3, MomentumFraction: 0.67})
	provider.series["B"] = provider.series["B"][:2]

	result, err := sel.Process(context.Background(), day(0), abcBatch(day(0)))
	require.NoError(t, err)

	require.True(t, result.Refreshed)
	assert.Equal(t, 2, result.ReadyCount)

	// Requested 2 per side, but only 2 ready: shrink to 1, never overlap
	assert.Equal(t, []contracts.SecurityID{"A"}, result.Shorts)
	assert.Equal(t, []contracts.SecurityID{"C"}, result.Longs)

	for _, s := range result.Shorts {
		assert.NotContains(t, result.Longs, s)
	}
}

func TestSelector_SingleReadySelectsNothing(t *testing.T) {
	sel, _, provider := newSelector(t, SelectorConfig{LiquidityTopK: 3, MomentumFraction: 0.34})
	provider.series = map[contracts.SecurityID][]contracts.PriceObservation{
		"A": provider.series["A"],
	}

	result, err := sel.Process(context.Background(), day(0), abcBatch(day(0)))
	require.NoError(t, err)

	require.True(t, result.Refreshed)
	assert.Equal(t, 1, result.ReadyCount)
	assert.Empty(t, result.Shorts)
	assert.Empty(t, result.Longs)
}

func TestSelector_EmptyBatch(t *testing.T) {
	sel, _, _ := newSelector(t, SelectorConfig{LiquidityTopK: 3, MomentumFraction: 0.34})

	result, err := sel.Process(context.Background(), day(0), nil)
	require.NoError(t, err)

	require.True(t, result.Refreshed)
	assert.Empty(t, result.Universe.Members)
	assert.Empty(t, result.Shorts)
	assert.Empty(t, result.Longs)
}

func TestSelector_UnreadyMembersStayTracked(t *testing.T) {
	sel, registry, provider := newSelector(t, SelectorConfig{LiquidityTopK: 3, MomentumFraction: 0.34})
	provider.series["B"] = provider.series["B"][:2]

	_, err := sel.Process(context.Background(), day(0), abcBatch(day(0)))
	require.NoError(t, err)

	// B failed warm-up but is tracked, so daily updates accrue
	assert.False(t, registry.Ready("B"))
	_, tracked := registry.Get("B")
	require.True(t, tracked)

	_, err = sel.Process(context.Background(), day(1), abcBatch(day(1)))
	require.NoError(t, err)

	b, _ := registry.Get("B")
	assert.Equal(t, 1, b.Count())
}
