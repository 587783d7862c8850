package feed

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

const rankingFixture = `
<html><body>
<table class="ranking">
<tr><th>Rank</th><th>Symbol</th><th>Name</th><th>Close</th><th>Value</th></tr>
<tr><td>1</td><td>AAPL</td><td>Apple Inc</td><td>231.50</td><td>12,345,678</td></tr>
<tr><td>2</td><td>MSFT</td><td>Microsoft</td><td>512.10</td><td>9,876,543</td></tr>
<tr><td colspan="5">pager</td></tr>
<tr><td>3</td><td>BRK.B</td><td>Berkshire</td><td>480.00</td><td>5,000,000</td></tr>
</table>
</body></html>`

func TestParseRankingHTML(t *testing.T) {
	items, err := parseRankingHTML(rankingFixture)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, 1, items[0].Rank)
	assert.Equal(t, contracts.SecurityID("AAPL"), items[0].Security)
	assert.Equal(t, 231.50, items[0].Close)
	assert.Equal(t, 12_345_678.0, items[0].DollarVolume)

	assert.Equal(t, contracts.SecurityID("BRK.B"), items[2].Security)
}

func TestParseRankingHTML_NoTable(t *testing.T) {
	items, err := parseRankingHTML(`<html><body><p>maintenance</p></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRankingScraper_FetchValueRanking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(rankingFixture))
	}))
	defer srv.Close()

	client := httputil.New(logger.NewNop(), "test-agent").DisableRetry()
	scraper := NewRankingScraper(client, srv.URL, logger.NewNop())

	items, err := scraper.FetchValueRanking(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestBars(t *testing.T) {
	endTime := time.Date(2026, 8, 7, 16, 0, 0, 0, time.UTC)
	items := []RankedSecurity{
		{Rank: 1, Security: "AAPL", Close: 231.5, DollarVolume: 12_345_678},
	}

	batch := Bars(items, endTime)
	require.Len(t, batch, 1)
	assert.Equal(t, contracts.SecurityID("AAPL"), batch[0].Security)
	assert.Equal(t, endTime, batch[0].EndTime)
	assert.Equal(t, 231.5, batch[0].Close)
}
