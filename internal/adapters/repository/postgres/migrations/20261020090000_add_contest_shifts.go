package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Adding contest shift columns...")

		if _, err := db.ExecContext(ctx, `
			ALTER TABLE contests ADD COLUMN IF NOT EXISTS shift_a INTEGER;
			ALTER TABLE contests ADD COLUMN IF NOT EXISTS shift_b INTEGER;
		`); err != nil {
			return fmt.Errorf("failed to add contest shift columns: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping contest shift columns...")

		if _, err := db.ExecContext(ctx, `
			ALTER TABLE contests DROP COLUMN IF EXISTS shift_a;
			ALTER TABLE contests DROP COLUMN IF EXISTS shift_b;
		`); err != nil {
			return fmt.Errorf("failed to drop contest shift columns: %w", err)
		}
		return nil
	})
}
