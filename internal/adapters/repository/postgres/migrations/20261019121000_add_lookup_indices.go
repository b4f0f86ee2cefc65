package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding lookup indices...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_fighters_game_ordinal ON fighters(game_id, roster_ordinal);
				CREATE INDEX IF NOT EXISTS idx_slots_tier_list_id ON slots(tier_list_id);
				CREATE INDEX IF NOT EXISTS idx_slots_tier_list_position
					ON slots(tier_list_id, position) WHERE position IS NOT NULL;
				CREATE INDEX IF NOT EXISTS idx_tier_lists_rivalry_id ON tier_lists(rivalry_id);
				CREATE INDEX IF NOT EXISTS idx_contests_history
					ON contests(rivalry_id, created_at DESC) WHERE resolved;
			`); err != nil {
				return fmt.Errorf("failed to add indices: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Rolling back lookup indices...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP INDEX IF EXISTS idx_fighters_game_ordinal;
				DROP INDEX IF EXISTS idx_slots_tier_list_id;
				DROP INDEX IF EXISTS idx_slots_tier_list_position;
				DROP INDEX IF EXISTS idx_tier_lists_rivalry_id;
				DROP INDEX IF EXISTS idx_contests_history;
			`); err != nil {
				return fmt.Errorf("failed to drop indices: %w", err)
			}
			return nil
		})
	})
}
