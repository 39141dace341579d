package tournamentmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating tournaments table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS tournaments (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL DEFAULT '',
					mode TEXT NOT NULL CHECK (mode IN ('stroke', 'fourball')),
					room_count INTEGER NOT NULL CHECK (room_count BETWEEN 1 AND 200),
					room_names JSONB NOT NULL DEFAULT '[]'::jsonb,
					participants JSONB NOT NULL DEFAULT '[]'::jsonb,
					room_index JSONB NOT NULL DEFAULT '{}'::jsonb,
					event_definitions JSONB NOT NULL DEFAULT '[]'::jsonb,
					inputs JSONB NOT NULL DEFAULT '{}'::jsonb,
					version BIGINT NOT NULL DEFAULT 1,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create tournaments table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_tournaments_updated_at ON tournaments(updated_at DESC);
			`); err != nil {
				return fmt.Errorf("failed to create tournaments index: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping tournaments table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS tournaments;`); err != nil {
			return fmt.Errorf("failed to drop tournaments table: %w", err)
		}
		return nil
	})
}
