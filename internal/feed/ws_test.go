package feed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/logger"
)

func TestBarStream_Dispatch(t *testing.T) {
	var gotAsOf time.Time
	var gotBatch []contracts.DailyBar

	stream := NewBarStream("ws://unused", func(_ context.Context, asOf time.Time, batch []contracts.DailyBar) error {
		gotAsOf = asOf
		gotBatch = batch
		return nil
	}, logger.NewNop())

	frame := `{
		"type": "daily_bars",
		"as_of": "2026-08-07T16:00:00Z",
		"bars": [
			{"security": "AAPL", "close": 231.5, "dollar_volume": 12345678, "end_time": "2026-08-07T16:00:00Z"}
		]
	}`

	require.NoError(t, stream.dispatch(context.Background(), []byte(frame)))

	assert.Equal(t, time.Date(2026, 8, 7, 16, 0, 0, 0, time.UTC), gotAsOf)
	require.Len(t, gotBatch, 1)
	assert.Equal(t, contracts.SecurityID("AAPL"), gotBatch[0].Security)
	assert.Equal(t, 231.5, gotBatch[0].Close)
}

func TestBarStream_DispatchIgnoresOtherTypes(t *testing.T) {
	called := false
	stream := NewBarStream("ws://unused", func(context.Context, time.Time, []contracts.DailyBar) error {
		called = true
		return nil
	}, logger.NewNop())

	require.NoError(t, stream.dispatch(context.Background(), []byte(`{"type":"heartbeat"}`)))
	assert.False(t, called)
}

func TestBarStream_DispatchMalformed(t *testing.T) {
	stream := NewBarStream("ws://unused", func(context.Context, time.Time, []contracts.DailyBar) error {
		return nil
	}, logger.NewNop())

	assert.Error(t, stream.dispatch(context.Background(), []byte(`not json`)))
}
