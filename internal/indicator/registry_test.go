package indicator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// fakeHistory is an in-memory HistoryProvider recording every fetch
type fakeHistory struct {
	series  map[contracts.SecurityID][]contracts.PriceObservation
	calls   int
	fetched [][]contracts.SecurityID
}

func (f *fakeHistory) DailyCloses(_ context.Context, ids []contracts.SecurityID, _ int) (map[contracts.SecurityID][]contracts.PriceObservation, error) {
	f.calls++
	f.fetched = append(f.fetched, append([]contracts.SecurityID(nil), ids...))

	out := make(map[contracts.SecurityID][]contracts.PriceObservation)
	for _, id := range ids {
		if s, ok := f.series[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func closes(prices ...float64) []contracts.PriceObservation {
	obs := make([]contracts.PriceObservation, len(prices))
	for i, p := range prices {
		obs[i] = contracts.PriceObservation{Time: day(i), Close: p}
	}
	return obs
}

func TestRegistry_TouchIsIdempotent(t *testing.T) {
	r := NewRegistry(3, logger.NewNop())

	r.Touch("AAPL")
	first, ok := r.Get("AAPL")
	require.True(t, ok)

	r.Touch("AAPL")
	second, _ := r.Get("AAPL")
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_UpdateAllSkipsUntracked(t *testing.T) {
	r := NewRegistry(3, logger.NewNop())
	r.Touch("AAPL")

	err := r.UpdateAll(map[contracts.SecurityID]contracts.PriceObservation{
		"AAPL": {Time: day(0), Close: 100},
		"MSFT": {Time: day(0), Close: 300}, // not tracked, silently skipped
	})
	require.NoError(t, err)

	m, _ := r.Get("AAPL")
	assert.Equal(t, 1, m.Count())

	_, tracked := r.Get("MSFT")
	assert.False(t, tracked, "UpdateAll must not create indicators")
}

func TestRegistry_UpdateAllPropagatesSequencingErrors(t *testing.T) {
	r := NewRegistry(3, logger.NewNop())
	r.Touch("AAPL")

	require.NoError(t, r.UpdateAll(map[contracts.SecurityID]contracts.PriceObservation{
		"AAPL": {Time: day(5), Close: 100},
	}))

	err := r.UpdateAll(map[contracts.SecurityID]contracts.PriceObservation{
		"AAPL": {Time: day(4), Close: 101},
	})
	assert.ErrorIs(t, err, ErrOutOfOrder)
}

func TestRegistry_WarmUp(t *testing.T) {
	provider := &fakeHistory{
		series: map[contracts.SecurityID][]contracts.PriceObservation{
			"AAPL": closes(100, 101, 102, 110),
			"MSFT": closes(300, 299), // insufficient for lookback 3
		},
	}

	r := NewRegistry(3, logger.NewNop())
	err := r.WarmUp(context.Background(), []contracts.SecurityID{"AAPL", "MSFT", "TSLA"}, provider)
	require.NoError(t, err)

	assert.True(t, r.Ready("AAPL"))

	v, err := mustGet(t, r, "AAPL").Value()
	require.NoError(t, err)
	assert.InDelta(t, 0.10, v, 1e-12)

	// Insufficient and missing history stay unready and excluded
	assert.False(t, r.Ready("MSFT"))
	assert.False(t, r.Ready("TSLA"))
}

func TestRegistry_WarmUpSkipsReadyIndicators(t *testing.T) {
	provider := &fakeHistory{
		series: map[contracts.SecurityID][]contracts.PriceObservation{
			"AAPL": closes(100, 101, 102, 110),
			"MSFT": closes(300, 301, 302, 310),
		},
	}

	r := NewRegistry(3, logger.NewNop())
	require.NoError(t, r.WarmUp(context.Background(), []contracts.SecurityID{"AAPL"}, provider))
	require.True(t, r.Ready("AAPL"))

	// Second pass must only fetch the still-unready security
	require.NoError(t, r.WarmUp(context.Background(), []contracts.SecurityID{"AAPL", "MSFT"}, provider))
	require.Equal(t, 2, provider.calls)
	assert.Equal(t, []contracts.SecurityID{"MSFT"}, provider.fetched[1])
}

func TestRegistry_WarmUpNoopWhenAllReady(t *testing.T) {
	provider := &fakeHistory{
		series: map[contracts.SecurityID][]contracts.PriceObservation{
			"AAPL": closes(100, 101, 102, 110),
		},
	}

	r := NewRegistry(3, logger.NewNop())
	require.NoError(t, r.WarmUp(context.Background(), []contracts.SecurityID{"AAPL"}, provider))
	require.NoError(t, r.WarmUp(context.Background(), []contracts.SecurityID{"AAPL"}, provider))

	assert.Equal(t, 1, provider.calls, "no history call when everything is ready")
}

func TestRegistry_WarmUpUsesMostRecentWindow(t *testing.T) {
	// Provider returns more points than needed; only the tail matters
	provider := &fakeHistory{
		series: map[contracts.SecurityID][]contracts.PriceObservation{
			"AAPL": closes(50, 60, 100, 101, 102, 110),
		},
	}

	r := NewRegistry(3, logger.NewNop())
	require.NoError(t, r.WarmUp(context.Background(), []contracts.SecurityID{"AAPL"}, provider))

	v, err := mustGet(t, r, "AAPL").Value()
	require.NoError(t, err)
	assert.InDelta(t, 0.10, v, 1e-12)
}

func TestRegistry_EvictAndSnapshot(t *testing.T) {
	r := NewRegistry(3, logger.NewNop())
	r.Touch("AAPL")
	r.Touch("MSFT")

	provider := &fakeHistory{
		series: map[contracts.SecurityID][]contracts.PriceObservation{
			"AAPL": closes(100, 101, 102, 110),
		},
	}
	require.NoError(t, r.WarmUp(context.Background(), []contracts.SecurityID{"AAPL"}, provider))

	stats := r.Snapshot()
	assert.Equal(t, 2, stats.Tracked)
	assert.Equal(t, 1, stats.Ready)

	r.Evict("AAPL")
	assert.Equal(t, 1, r.Len())
	assert.False(t, r.Ready("AAPL"))
	assert.Equal(t, []contracts.SecurityID{"MSFT"}, r.Tracked())
}

func mustGet(t *testing.T, r *Registry, id contracts.SecurityID) *Momentum {
	t.Helper()
	m, ok := r.Get(id)
	require.True(t, ok)
	return m
}
