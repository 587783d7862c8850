// Package strategyconfig loads and validates the strategy parameter file.
// The file is the single source of truth for every tunable: a typo or an
// unused field fails the load instead of silently doing nothing.
package strategyconfig

import "time"

// Config is the full reversal strategy parameter set
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Indicator Indicator `yaml:"indicator" json:"indicator"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Selection Selection `yaml:"selection" json:"selection"`
	Portfolio Portfolio `yaml:"portfolio" json:"portfolio"`
	Schedule  Schedule  `yaml:"schedule" json:"schedule"`
}

// Meta identifies the strategy instance
type Meta struct {
	StrategyID        string `yaml:"strategy_id" json:"strategy_id"`
	Version           string `yaml:"version" json:"version"`
	Timezone          string `yaml:"timezone" json:"timezone"`
	DecisionTimeLocal string `yaml:"decision_time_local" json:"decision_time_local"` // HH:MM
}

// Indicator holds the momentum window parameters
type Indicator struct {
	LookbackDays int `yaml:"lookback_days" json:"lookback_days"`
}

// Universe holds the liquidity selection parameters
type Universe struct {
	LiquidityTopK int `yaml:"liquidity_top_k" json:"liquidity_top_k"`
}

// Selection holds the momentum-extremes parameters
type Selection struct {
	// MomentumFractionPct is the per-side group size as a fraction of
	// liquidity_top_k, e.g. 0.10 for 10 per side at top_k=100.
	MomentumFractionPct float64 `yaml:"momentum_fraction_pct" json:"momentum_fraction_pct"`
}

// Portfolio holds the weighting parameters
type Portfolio struct {
	// GrossExposurePct is the gross exposure per leg: longs sum to +this,
	// shorts to -this.
	GrossExposurePct float64 `yaml:"gross_exposure_pct" json:"gross_exposure_pct"`
}

// Schedule holds the cron expressions for the run loops
type Schedule struct {
	DailyCron       string `yaml:"daily_cron" json:"daily_cron"`
	MaintenanceCron string `yaml:"maintenance_cron" json:"maintenance_cron"`
}

// DecisionSnapshot records the exact configuration a selection ran under,
// for reproducibility.
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	GitCommit  string    `json:"git_commit"`
	CreatedAt  time.Time `json:"created_at"`
}

// PerSideCount returns the configured per-side selection size before any
// readiness shrink is applied.
func (c *Config) PerSideCount() int {
	return int(float64(c.Universe.LiquidityTopK)*c.Selection.MomentumFractionPct + 0.5)
}
