package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/ebbtide/pkg/logger"
)

// Maintenance prunes aged journal rows so the instruction tables stay
// bounded. Runs off-hours.
type Maintenance struct {
	pool          *pgxpool.Pool
	retentionDays int
	schedule      string
	logger        *logger.Logger
}

// NewMaintenance creates the maintenance job
func NewMaintenance(pool *pgxpool.Pool, retentionDays int, schedule string, log *logger.Logger) *Maintenance {
	return &Maintenance{
		pool:          pool,
		retentionDays: retentionDays,
		schedule:      schedule,
		logger:        log,
	}
}

func (j *Maintenance) Name() string     { return "journal_maintenance" }
func (j *Maintenance) Schedule() string { return j.schedule }

// Run deletes journal rows older than the retention window
func (j *Maintenance) Run(ctx context.Context) error {
	cutoff := time.Now().AddDate(0, 0, -j.retentionDays)

	weights, err := j.pool.Exec(ctx,
		`DELETE FROM journal.weight_instructions WHERE as_of < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("prune weight instructions: %w", err)
	}

	liquidations, err := j.pool.Exec(ctx,
		`DELETE FROM journal.liquidation_instructions WHERE as_of < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("prune liquidation instructions: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"cutoff":       cutoff.Format("2006-01-02"),
		"weights":      weights.RowsAffected(),
		"liquidations": liquidations.RowsAffected(),
	}).Info("Journal maintenance completed")
	return nil
}
