package history

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/httputil"
	"github.com/quantfold/ebbtide/pkg/logger"
)

const chartFixture = `[
	["date", "close"],
	["20260803", 100],
	["20260804", 101.5],
	["20260805", "102"],
	["20260806", 110]
]`

func TestWebProvider_DailyCloses(t *testing.T) {
	var symbols []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbols = append(symbols, r.URL.Query().Get("symbol"))
		switch r.URL.Query().Get("symbol") {
		case "A":
			w.Write([]byte(chartFixture))
		case "BAD":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.Write([]byte(`[]`))
		}
	}))
	defer srv.Close()

	client := httputil.New(logger.NewNop(), "test-agent").DisableRetry()
	provider := NewWebProvider(client, srv.URL, 100, logger.NewNop())

	series, err := provider.DailyCloses(context.Background(), []contracts.SecurityID{"A", "BAD", "EMPTY"}, 4)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "BAD", "EMPTY"}, symbols)

	// Failed and empty fetches are skipped, not fatal
	require.Len(t, series, 1)
	a := series["A"]
	require.Len(t, a, 4)

	assert.Equal(t, time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC), a[0].Time)
	assert.Equal(t, 100.0, a[0].Close)
	assert.Equal(t, 102.0, a[2].Close, "string-typed closes are tolerated")
	assert.Equal(t, 110.0, a[3].Close)
}

func TestParseChartResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"header skipped", chartFixture, 4},
		{"empty array", `[]`, 0},
		{"short rows skipped", `[["20260803"], ["20260804", 101]]`, 1},
		{"bad date skipped", `[["not-a-date", 100], ["20260804", 101]]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := parseChartResponse([]byte(tt.body))
			require.NoError(t, err)
			assert.Len(t, series, tt.want)
		})
	}
}

func TestParseChartResponse_Malformed(t *testing.T) {
	_, err := parseChartResponse([]byte(`{"not": "rows"}`))
	assert.Error(t, err)
}
