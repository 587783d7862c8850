package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfold/ebbtide/internal/strategyconfig"
	"github.com/quantfold/ebbtide/pkg/config"
	"github.com/quantfold/ebbtide/pkg/database"
	"github.com/quantfold/ebbtide/pkg/logger"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and connectivity",
	Long: `Loads the process config and the strategy YAML, validates both, and
pings the database when one is configured. Exit code 0 means the runtime
would start cleanly.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}

	log := logger.New(cfg)

	strategy, _, err := strategyconfig.Load(cfg.StrategyFile)
	if err != nil {
		return fmt.Errorf("strategy config %s: %w", cfg.StrategyFile, err)
	}

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return fmt.Errorf("hash strategy config: %w", err)
	}

	fmt.Printf("Strategy:     %s (v%s)\n", strategy.Meta.StrategyID, strategy.Meta.Version)
	fmt.Printf("Config hash:  %s\n", hash)
	fmt.Printf("Lookback:     %d days\n", strategy.Indicator.LookbackDays)
	fmt.Printf("Universe:     top %d by dollar volume\n", strategy.Universe.LiquidityTopK)
	fmt.Printf("Selection:    %d per side (fraction %.2f)\n", strategy.PerSideCount(), strategy.Selection.MomentumFractionPct)
	fmt.Printf("Exposure:     %.2f per leg\n", strategy.Portfolio.GrossExposurePct)

	for _, w := range strategyconfig.Warn(strategy) {
		fmt.Printf("WARNING [%s]: %s\n", w.Code, w.Message)
	}

	if cfg.Database.URL != "" {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("database ping: %w", err)
		}
		fmt.Println("Database:     ok")
	} else {
		fmt.Println("Database:     not configured")
	}

	log.Info("Configuration check passed")
	return nil
}
