package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfold/ebbtide/internal/api"
	"github.com/quantfold/ebbtide/internal/api/handlers"
	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/internal/engine"
	"github.com/quantfold/ebbtide/internal/feed"
	"github.com/quantfold/ebbtide/internal/history"
	"github.com/quantfold/ebbtide/internal/indicator"
	"github.com/quantfold/ebbtide/internal/journal"
	"github.com/quantfold/ebbtide/internal/rebalance"
	"github.com/quantfold/ebbtide/internal/scheduler"
	"github.com/quantfold/ebbtide/internal/scheduler/jobs"
	"github.com/quantfold/ebbtide/internal/strategyconfig"
	"github.com/quantfold/ebbtide/internal/universe"
	"github.com/quantfold/ebbtide/pkg/config"
	"github.com/quantfold/ebbtide/pkg/database"
	"github.com/quantfold/ebbtide/pkg/httputil"
	"github.com/quantfold/ebbtide/pkg/logger"
	"github.com/quantfold/ebbtide/pkg/redis"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the strategy engine",
	Long: `Starts the full strategy runtime:
- indicator registry and weekly selection pipeline
- daily selection job on the configured cron schedule, or the bar stream
  when FEED_BAR_STREAM_URL is set
- instruction journal (Postgres when DATABASE_URL is set, log otherwise)
- HTTP API for observability`,
	RunE: runEngine,
}

var runPort string

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runPort, "port", "", "API server port (overrides PORT)")
}

const journalRetentionDays = 365

func runEngine(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if runPort != "" {
		cfg.Port = runPort
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}

	log := logger.New(cfg)

	strategy, _, err := strategyconfig.Load(cfg.StrategyFile)
	if err != nil {
		return fmt.Errorf("load strategy config %s: %w", cfg.StrategyFile, err)
	}
	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	configHash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return fmt.Errorf("hash strategy config: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"strategy":    strategy.Meta.StrategyID,
		"config_hash": configHash,
		"lookback":    strategy.Indicator.LookbackDays,
		"top_k":       strategy.Universe.LiquidityTopK,
		"per_side":    strategy.PerSideCount(),
	}).Info("Strategy configuration loaded")

	loc := time.UTC
	if strategy.Meta.Timezone != "" {
		loc, err = time.LoadLocation(strategy.Meta.Timezone)
		if err != nil {
			return fmt.Errorf("load timezone: %w", err)
		}
	}

	// Infrastructure
	var db *database.DB
	if cfg.Database.URL != "" {
		db, err = database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		log.Info("Connected to database")
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	cache := redis.NewCache(redisClient, "ebbtide")
	limiter := redis.NewRateLimiter(redisClient, "ebbtide")

	// History provider: database when available, web fallback otherwise,
	// both behind the Redis cache.
	var provider contracts.HistoryProvider
	switch {
	case db != nil:
		provider = history.NewPostgresProvider(db.Pool)
	case cfg.Feed.HistoryURL != "":
		httpClient := httputil.New(log, cfg.Feed.UserAgent).
			WithRateLimiter(limiter, redis.RateLimitConfig{
				Key:    "history-web",
				Limit:  int(cfg.Feed.RateLimit * 10),
				Window: 10 * time.Second,
			})
		provider = history.NewWebProvider(httpClient, cfg.Feed.HistoryURL, cfg.Feed.RateLimit, log)
	default:
		return fmt.Errorf("no history source: set DATABASE_URL or FEED_HISTORY_URL")
	}
	provider = history.NewCachedProvider(provider, cache, log)

	var sink contracts.InstructionSink
	if db != nil {
		sink = journal.NewPostgresSink(db.Pool, log)
	} else {
		log.Warn("No database configured, journaling instructions to log only")
		sink = journal.NewLogSink(log)
	}

	// Strategy pipeline
	registry := indicator.NewRegistry(strategy.Indicator.LookbackDays, log)
	selector := universe.NewSelector(universe.SelectorConfig{
		LiquidityTopK:    strategy.Universe.LiquidityTopK,
		MomentumFraction: strategy.Selection.MomentumFractionPct,
	}, registry, provider, log)
	rebalancer := rebalance.NewScheduler(strategy.Portfolio.GrossExposurePct, log)
	eng := engine.New(registry, selector, rebalancer, universe.NewChangeHandler(log), sink, nil, log)

	// Event source: the bar stream when configured, the cron job otherwise.
	// Both feed the same single-goroutine engine entry point, so exactly one
	// may be active.
	var stream *feed.BarStream
	var sched *scheduler.Scheduler

	if cfg.Feed.BarStreamURL != "" {
		stream = feed.NewBarStream(cfg.Feed.BarStreamURL, eng.OnDailyBars, log)
		if err := stream.Start(context.Background()); err != nil {
			return fmt.Errorf("start bar stream: %w", err)
		}
		defer stream.Stop()
	} else if db != nil {
		sched = scheduler.New(log, loc)
		barRepo := feed.NewBarRepository(db.Pool)

		dailyCron := strategy.Schedule.DailyCron
		if dailyCron == "" {
			dailyCron = "10 16 * * MON-FRI"
		}
		if err := sched.AddJob(jobs.NewDailySelection(barRepo, eng, dailyCron, loc, log)); err != nil {
			return fmt.Errorf("add daily job: %w", err)
		}

		if strategy.Schedule.MaintenanceCron != "" {
			if err := sched.AddJob(jobs.NewMaintenance(db.Pool, journalRetentionDays, strategy.Schedule.MaintenanceCron, log)); err != nil {
				return fmt.Errorf("add maintenance job: %w", err)
			}
		}

		sched.Start()
		defer sched.Stop()
	} else {
		return fmt.Errorf("no event source: set FEED_BAR_STREAM_URL or DATABASE_URL")
	}

	// API server
	handler := handlers.NewStrategyHandler(eng, sched, strategy, configHash, log)
	server := api.New(cfg, log, api.NewRouter(handler, log))

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()
	log.WithField("port", cfg.Port).Info("Engine running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
