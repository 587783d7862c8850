package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/httputil"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// WebProvider fetches daily close series from a chart-style HTTP endpoint,
// one request per security. A local token-bucket limiter keeps the request
// rate below the endpoint's tolerance; cross-process fairness, when needed,
// comes from the rate limiter attached to the HTTP client itself.
type WebProvider struct {
	client  *httputil.Client
	baseURL string
	limiter *rate.Limiter
	logger  *logger.Logger
}

// NewWebProvider creates a provider against baseURL, limited to ratePerSec
// requests per second.
func NewWebProvider(client *httputil.Client, baseURL string, ratePerSec float64, log *logger.Logger) *WebProvider {
	return &WebProvider{
		client:  client,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), 1),
		logger:  log,
	}
}

// DailyCloses fetches each security's series sequentially. A security whose
// fetch or parse fails is skipped with a warning; the warm-up treats missing
// series as a partial, recoverable failure.
func (w *WebProvider) DailyCloses(ctx context.Context, ids []contracts.SecurityID, lookbackDays int) (map[contracts.SecurityID][]contracts.PriceObservation, error) {
	out := make(map[contracts.SecurityID][]contracts.PriceObservation, len(ids))

	for _, id := range ids {
		if err := w.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		series, err := w.fetchOne(ctx, id, lookbackDays)
		if err != nil {
			w.logger.WithError(err).WithField("security", id).Warn("History fetch failed, skipping security")
			continue
		}
		if len(series) > 0 {
			out[id] = series
		}
	}

	return out, nil
}

func (w *WebProvider) fetchOne(ctx context.Context, id contracts.SecurityID, lookbackDays int) ([]contracts.PriceObservation, error) {
	q := url.Values{}
	q.Set("symbol", string(id))
	q.Set("days", strconv.Itoa(lookbackDays))
	fullURL := fmt.Sprintf("%s?%s", w.baseURL, q.Encode())

	resp, err := w.client.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body failed: %w", err)
	}

	return parseChartResponse(body)
}

// parseChartResponse parses the chart endpoint's row format: a JSON array
// of [date, close] rows, dates as "20060102" strings, plus an optional
// header row of column names that is skipped.
func parseChartResponse(body []byte) ([]contracts.PriceObservation, error) {
	var rows [][]interface{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse chart response: %w", err)
	}

	var series []contracts.PriceObservation
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		day, err := time.Parse("20060102", dateStr)
		if err != nil {
			continue // header row
		}

		closePrice, ok := toFloat(row[1])
		if !ok {
			continue
		}

		series = append(series, contracts.PriceObservation{Time: day, Close: closePrice})
	}
	return series, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
