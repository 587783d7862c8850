// Package history provides the daily-close backfill used for indicator
// warm-up: a Postgres repository, a chart-API web fallback, and a Redis
// caching decorator over either.
package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/ebbtide/internal/contracts"
)

// PostgresProvider serves daily close series from the market schema
type PostgresProvider struct {
	pool *pgxpool.Pool
}

// NewPostgresProvider creates a provider over the given pool
func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

// DailyCloses returns up to lookbackDays most recent closes per security,
// oldest first. Securities with no rows are simply absent from the result.
func (p *PostgresProvider) DailyCloses(ctx context.Context, ids []contracts.SecurityID, lookbackDays int) (map[contracts.SecurityID][]contracts.PriceObservation, error) {
	if len(ids) == 0 {
		return map[contracts.SecurityID][]contracts.PriceObservation{}, nil
	}

	codes := make([]string, len(ids))
	for i, id := range ids {
		codes[i] = string(id)
	}

	query := `
		SELECT security_id, trade_date, close_price
		FROM (
			SELECT security_id, trade_date, close_price,
				row_number() OVER (PARTITION BY security_id ORDER BY trade_date DESC) AS rn
			FROM market.daily_closes
			WHERE security_id = ANY($1)
		) ranked
		WHERE rn <= $2
		ORDER BY security_id, trade_date ASC
	`

	rows, err := p.pool.Query(ctx, query, codes, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("query daily closes: %w", err)
	}
	defer rows.Close()

	series := make(map[contracts.SecurityID][]contracts.PriceObservation, len(ids))
	for rows.Next() {
		var code string
		var obs contracts.PriceObservation
		if err := rows.Scan(&code, &obs.Time, &obs.Close); err != nil {
			return nil, fmt.Errorf("scan daily close: %w", err)
		}
		id := contracts.SecurityID(code)
		series[id] = append(series[id], obs)
	}
	return series, rows.Err()
}
