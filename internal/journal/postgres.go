// Package journal persists the engine's output instructions so the
// execution platform (and the replay reviewer) can consume them later.
package journal

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/logger"
)

// PostgresSink writes instructions to the journal schema. Each submitted
// batch is inserted in a single transaction so a partial batch never
// becomes visible to downstream consumers.
type PostgresSink struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgresSink creates a sink over the given pool
func NewPostgresSink(pool *pgxpool.Pool, log *logger.Logger) *PostgresSink {
	return &PostgresSink{pool: pool, logger: log}
}

// SubmitWeights journals a weight instruction batch
func (s *PostgresSink) SubmitWeights(ctx context.Context, instructions []contracts.WeightInstruction) error {
	if len(instructions) == 0 {
		return nil
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO journal.weight_instructions (security_id, target_weight, as_of)
			VALUES ($1, $2, $3)
			ON CONFLICT (security_id, as_of) DO UPDATE SET
				target_weight = EXCLUDED.target_weight
		`
		for _, in := range instructions {
			if _, err := tx.Exec(ctx, query, string(in.Security), in.Weight, in.AsOf); err != nil {
				return fmt.Errorf("insert weight for %s: %w", in.Security, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("journal weights: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"count": len(instructions),
	}).Info("Weight instructions journaled")
	return nil
}

// SubmitLiquidations journals a liquidation batch
func (s *PostgresSink) SubmitLiquidations(ctx context.Context, instructions []contracts.LiquidationInstruction) error {
	if len(instructions) == 0 {
		return nil
	}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO journal.liquidation_instructions (security_id, reason, as_of)
			VALUES ($1, $2, $3)
			ON CONFLICT (security_id, as_of) DO NOTHING
		`
		for _, in := range instructions {
			if _, err := tx.Exec(ctx, query, string(in.Security), in.Reason, in.AsOf); err != nil {
				return fmt.Errorf("insert liquidation for %s: %w", in.Security, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("journal liquidations: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"count": len(instructions),
	}).Info("Liquidation instructions journaled")
	return nil
}
