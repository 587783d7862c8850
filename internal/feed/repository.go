// Package feed supplies the engine's daily candidate batches: a Postgres
// repository for scheduled and replay runs, a WebSocket stream for
// platform-pushed events, and a dollar-volume ranking scraper used as a
// candidate source when no database is available.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/ebbtide/internal/contracts"
)

// BarRepository reads end-of-day candidate batches from the market schema
type BarRepository struct {
	pool *pgxpool.Pool
}

// NewBarRepository creates a repository over the given pool
func NewBarRepository(pool *pgxpool.Pool) *BarRepository {
	return &BarRepository{pool: pool}
}

// DailyBatch returns all bars for one trading date, most liquid first.
// The selector re-sorts anyway; emitting them pre-ranked keeps replay
// output stable across sources.
func (r *BarRepository) DailyBatch(ctx context.Context, date time.Time) ([]contracts.DailyBar, error) {
	query := `
		SELECT security_id, close_price, dollar_volume, trade_date
		FROM market.daily_bars
		WHERE trade_date = $1
		ORDER BY dollar_volume DESC, security_id ASC
	`

	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("query daily batch: %w", err)
	}
	defer rows.Close()

	var batch []contracts.DailyBar
	for rows.Next() {
		var bar contracts.DailyBar
		var code string
		if err := rows.Scan(&code, &bar.Close, &bar.DollarVolume, &bar.EndTime); err != nil {
			return nil, fmt.Errorf("scan daily bar: %w", err)
		}
		bar.Security = contracts.SecurityID(code)
		batch = append(batch, bar)
	}
	return batch, rows.Err()
}

// TradingDates returns the distinct trading dates in [from, to], ascending.
// Replay walks these dates in order.
func (r *BarRepository) TradingDates(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT DISTINCT trade_date
		FROM market.daily_bars
		WHERE trade_date BETWEEN $1 AND $2
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query trading dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan trading date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
