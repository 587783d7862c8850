// Package jobs holds the concrete scheduled jobs of the strategy runtime.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/quantfold/ebbtide/internal/engine"
	"github.com/quantfold/ebbtide/internal/feed"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// DailySelection pulls the end-of-day candidate batch and feeds it through
// the engine. Scheduled after the close; the weekly gate inside the engine
// decides whether this run also reselects the universe.
type DailySelection struct {
	repo     *feed.BarRepository
	engine   *engine.Engine
	schedule string
	loc      *time.Location
	logger   *logger.Logger
}

// NewDailySelection creates the daily selection job
func NewDailySelection(repo *feed.BarRepository, eng *engine.Engine, schedule string, loc *time.Location, log *logger.Logger) *DailySelection {
	return &DailySelection{
		repo:     repo,
		engine:   eng,
		schedule: schedule,
		loc:      loc,
		logger:   log,
	}
}

func (j *DailySelection) Name() string     { return "daily_selection" }
func (j *DailySelection) Schedule() string { return j.schedule }

// Run processes today's batch. An empty batch means a non-trading day and
// is not an error.
func (j *DailySelection) Run(ctx context.Context) error {
	now := time.Now().In(j.loc)
	tradeDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, j.loc)

	batch, err := j.repo.DailyBatch(ctx, tradeDate)
	if err != nil {
		return fmt.Errorf("fetch daily batch: %w", err)
	}
	if len(batch) == 0 {
		j.logger.WithField("date", tradeDate.Format("2006-01-02")).Info("No bars for date, skipping run")
		return nil
	}

	if err := j.engine.OnDailyBars(ctx, now, batch); err != nil {
		return fmt.Errorf("process daily batch: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"date": tradeDate.Format("2006-01-02"),
		"bars": len(batch),
	}).Info("Daily selection run completed")
	return nil
}
