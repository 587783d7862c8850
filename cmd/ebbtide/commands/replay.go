package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfold/ebbtide/internal/engine"
	"github.com/quantfold/ebbtide/internal/feed"
	"github.com/quantfold/ebbtide/internal/history"
	"github.com/quantfold/ebbtide/internal/indicator"
	"github.com/quantfold/ebbtide/internal/journal"
	"github.com/quantfold/ebbtide/internal/rebalance"
	"github.com/quantfold/ebbtide/internal/strategyconfig"
	"github.com/quantfold/ebbtide/internal/universe"
	"github.com/quantfold/ebbtide/pkg/config"
	"github.com/quantfold/ebbtide/pkg/database"
	"github.com/quantfold/ebbtide/pkg/logger"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay the strategy over historical daily batches",
	Long: `Walks the stored daily bars date by date through the same engine the
live runtime uses. Instructions go to the log, not the journal tables, so a
replay never contaminates live output.

Example:
  ebbtide replay --from 2026-01-05 --to 2026-06-26`,
	RunE: runReplay,
}

var (
	replayFrom string
	replayTo   string
)

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVar(&replayFrom, "from", "", "start date (YYYY-MM-DD, required)")
	replayCmd.Flags().StringVar(&replayTo, "to", "", "end date (YYYY-MM-DD, required)")
	replayCmd.MarkFlagRequired("from")
	replayCmd.MarkFlagRequired("to")
}

func runReplay(cmd *cobra.Command, args []string) error {
	from, err := time.Parse("2006-01-02", replayFrom)
	if err != nil {
		return fmt.Errorf("parse --from: %w", err)
	}
	to, err := time.Parse("2006-01-02", replayTo)
	if err != nil {
		return fmt.Errorf("parse --to: %w", err)
	}
	if to.Before(from) {
		return fmt.Errorf("--to %s is before --from %s", replayTo, replayFrom)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("replay requires DATABASE_URL")
	}

	log := logger.New(cfg)

	strategy, _, err := strategyconfig.Load(cfg.StrategyFile)
	if err != nil {
		return fmt.Errorf("load strategy config: %w", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	registry := indicator.NewRegistry(strategy.Indicator.LookbackDays, log)
	selector := universe.NewSelector(universe.SelectorConfig{
		LiquidityTopK:    strategy.Universe.LiquidityTopK,
		MomentumFraction: strategy.Selection.MomentumFractionPct,
	}, registry, history.NewPostgresProvider(db.Pool), log)
	rebalancer := rebalance.NewScheduler(strategy.Portfolio.GrossExposurePct, log)
	sink := journal.NewLogSink(log)
	eng := engine.New(registry, selector, rebalancer, universe.NewChangeHandler(log), sink, nil, log)

	barRepo := feed.NewBarRepository(db.Pool)
	ctx := context.Background()

	dates, err := barRepo.TradingDates(ctx, from, to)
	if err != nil {
		return fmt.Errorf("list trading dates: %w", err)
	}
	if len(dates) == 0 {
		return fmt.Errorf("no trading dates in [%s, %s]", replayFrom, replayTo)
	}

	log.WithFields(map[string]interface{}{
		"from": replayFrom,
		"to":   replayTo,
		"days": len(dates),
	}).Info("Replay started")

	refreshes := 0
	for _, date := range dates {
		batch, err := barRepo.DailyBatch(ctx, date)
		if err != nil {
			return fmt.Errorf("batch for %s: %w", date.Format("2006-01-02"), err)
		}

		before := selector.LastWeek()
		if err := eng.OnDailyBars(ctx, date, batch); err != nil {
			return fmt.Errorf("process %s: %w", date.Format("2006-01-02"), err)
		}
		if selector.LastWeek() != before {
			refreshes++
		}
	}

	fmt.Printf("Replay complete: %d trading days, %d weekly refreshes\n", len(dates), refreshes)
	fmt.Printf("Instructions: %d weights, %d liquidations\n", len(sink.Weights), len(sink.Liquidations))

	stats := eng.IndicatorStats()
	fmt.Printf("Indicators: %d tracked, %d ready\n", stats.Tracked, stats.Ready)

	selection := eng.Selection()
	if len(selection.Longs)+len(selection.Shorts) > 0 {
		fmt.Printf("Pending selection at end of replay: %d longs, %d shorts\n",
			len(selection.Longs), len(selection.Shorts))
	}

	return nil
}
