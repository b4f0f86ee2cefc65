package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

var createTables = []string{
	`CREATE TABLE IF NOT EXISTS games (
		seq  BIGSERIAL,
		id   TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fighters (
		seq            BIGSERIAL,
		id             TEXT PRIMARY KEY,
		game_id        TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		name           TEXT NOT NULL,
		roster_ordinal INTEGER NOT NULL DEFAULT 0 CHECK (roster_ordinal >= 0),
		contest_count  INTEGER NOT NULL DEFAULT 0 CHECK (contest_count >= 0),
		win_count      INTEGER NOT NULL DEFAULT 0 CHECK (win_count >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS rivalries (
		seq                BIGSERIAL,
		id                 TEXT PRIMARY KEY,
		game_id            TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		participant_a_id   TEXT NOT NULL,
		participant_b_id   TEXT NOT NULL,
		tier_list_a_id     TEXT NOT NULL,
		tier_list_b_id     TEXT NOT NULL,
		current_contest_id TEXT,
		contest_count      INTEGER NOT NULL DEFAULT 0,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tier_lists (
		seq            BIGSERIAL,
		id             TEXT PRIMARY KEY,
		rivalry_id     TEXT NOT NULL DEFAULT '',
		game_id        TEXT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		participant_id TEXT NOT NULL,
		standing       INTEGER NOT NULL DEFAULT 0 CHECK (standing >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS slots (
		seq           BIGSERIAL,
		id            TEXT PRIMARY KEY,
		tier_list_id  TEXT NOT NULL REFERENCES tier_lists(id) ON DELETE CASCADE,
		fighter_id    TEXT NOT NULL,
		position      INTEGER CHECK (position >= 0),
		contest_count INTEGER NOT NULL DEFAULT 0 CHECK (contest_count >= 0),
		win_count     INTEGER NOT NULL DEFAULT 0 CHECK (win_count >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS contests (
		seq        BIGSERIAL,
		id         TEXT PRIMARY KEY,
		rivalry_id TEXT NOT NULL REFERENCES rivalries(id) ON DELETE CASCADE,
		slot_a_id  TEXT NOT NULL,
		slot_b_id  TEXT NOT NULL,
		result     INTEGER NOT NULL DEFAULT 0,
		resolved   BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

var dropTables = []string{"contests", "slots", "tier_lists", "rivalries", "fighters", "games"}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating rivalry tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, stmt := range createTables {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return fmt.Errorf("failed to create table: %w", err)
				}
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping rivalry tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, name := range dropTables {
				if _, err := tx.NewDropTable().Table(name).IfExists().Cascade().Exec(ctx); err != nil {
					return fmt.Errorf("failed to drop %s: %w", name, err)
				}
			}
			return nil
		})
	})
}
