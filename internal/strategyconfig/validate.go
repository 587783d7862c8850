package strategyconfig

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidationError is a fatal config violation
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning is a recommended-constraint violation, logged but not fatal
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}
	if cfg.Meta.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
			return ValidationError{"meta.timezone", err.Error()}
		}
	}
	if cfg.Meta.DecisionTimeLocal != "" {
		if err := validateHHMM(cfg.Meta.DecisionTimeLocal); err != nil {
			return ValidationError{"meta.decision_time_local", err.Error()}
		}
	}

	// === Indicator ===
	if cfg.Indicator.LookbackDays < 1 {
		return ValidationError{"indicator.lookback_days", "must be >= 1"}
	}

	// === Universe ===
	if cfg.Universe.LiquidityTopK < 1 {
		return ValidationError{"universe.liquidity_top_k", "must be >= 1"}
	}

	// === Selection ===
	f := cfg.Selection.MomentumFractionPct
	if f <= 0 || f > 0.5 {
		return ValidationError{"selection.momentum_fraction_pct", "must be in (0, 0.5]"}
	}
	if cfg.PerSideCount() < 1 {
		return ValidationError{"selection.momentum_fraction_pct",
			fmt.Sprintf("liquidity_top_k=%d at fraction %.4f selects 0 per side", cfg.Universe.LiquidityTopK, f)}
	}

	// === Portfolio ===
	g := cfg.Portfolio.GrossExposurePct
	if g <= 0 || g > 1 {
		return ValidationError{"portfolio.gross_exposure_pct", "must be in (0, 1]"}
	}

	// === Schedule ===
	if cfg.Schedule.DailyCron != "" {
		if err := validateCron(cfg.Schedule.DailyCron); err != nil {
			return ValidationError{"schedule.daily_cron", err.Error()}
		}
	}
	if cfg.Schedule.MaintenanceCron != "" {
		if err := validateCron(cfg.Schedule.MaintenanceCron); err != nil {
			return ValidationError{"schedule.maintenance_cron", err.Error()}
		}
	}

	return nil
}

// Warn checks recommended constraints
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Universe.LiquidityTopK < 10 {
		warnings = append(warnings, Warning{
			Code:    "SMALL_UNIVERSE",
			Message: fmt.Sprintf("liquidity_top_k=%d: selection will be noisy at this size", cfg.Universe.LiquidityTopK),
		})
	}

	if cfg.Indicator.LookbackDays > 250 {
		warnings = append(warnings, Warning{
			Code:    "LONG_LOOKBACK",
			Message: fmt.Sprintf("lookback_days=%d exceeds a trading year; warm-up may fail for recent listings", cfg.Indicator.LookbackDays),
		})
	}

	if cfg.Portfolio.GrossExposurePct > 0.8 {
		warnings = append(warnings, Warning{
			Code:    "HIGH_EXPOSURE",
			Message: fmt.Sprintf("gross_exposure_pct=%.2f per leg leaves little margin buffer", cfg.Portfolio.GrossExposurePct),
		})
	}

	return warnings
}

func validateHHMM(s string) error {
	re := regexp.MustCompile(`^\d{2}:\d{2}$`)
	if !re.MatchString(s) {
		return errors.New("must be HH:MM format")
	}
	_, err := time.Parse("15:04", s)
	return err
}

func validateCron(expr string) error {
	_, err := cron.ParseStandard(expr)
	return err
}
