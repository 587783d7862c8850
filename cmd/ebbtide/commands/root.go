package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
)

// rootCmd is the base command when called without subcommands
var rootCmd = &cobra.Command{
	Use:   "ebbtide",
	Short: "ebbtide - weekly long/short reversal engine",
	Long: `ebbtide runs a weekly-rebalanced long/short equity strategy:
liquidity-ranked universe selection, momentum extremes picked against the
trend (winners shorted, losers bought), and equal-weight instructions per
side.

Usage:
  ebbtide [command]

Examples:
  ebbtide run
  ebbtide replay --from 2026-01-05 --to 2026-06-26
  ebbtide check`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML file (overrides STRATEGY_FILE)")
}
