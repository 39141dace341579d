package tournamentdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunStore implements Store on Postgres. Commit is a compare-and-swap on the
// version column, serialised per tournament by a transaction-scoped
// advisory lock.
type BunStore struct {
	db bun.IDB
}

var _ Store = (*BunStore)(nil)

// NewBunStore creates a Postgres-backed roster store.
func NewBunStore(db bun.IDB) *BunStore {
	return &BunStore{db: db}
}

// Create inserts a new tournament row at version 1.
func (s *BunStore) Create(ctx context.Context, t *tournamenttypes.Tournament) error {
	now := time.Now().UTC()
	t.Version = 1
	t.CreatedAt = now
	t.UpdatedAt = now

	row := toRow(t)
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

// Read loads the current snapshot.
func (s *BunStore) Read(ctx context.Context, id tournamenttypes.TournamentID) (*tournamenttypes.Tournament, error) {
	row := new(Tournament)
	err := s.db.NewSelect().
		Model(row).
		Where("id = ?", string(id)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read tournament: %w", err)
	}
	return row.toDomain(), nil
}

// Commit replaces the stored document if its version is still expectedVersion.
func (s *BunStore) Commit(ctx context.Context, next *tournamenttypes.Tournament, expectedVersion int64) error {
	row := toRow(next)
	row.Version = expectedVersion + 1
	row.UpdatedAt = time.Now().UTC()

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", row.ID).Exec(ctx); err != nil {
			return fmt.Errorf("failed to acquire tournament lock: %w", err)
		}

		res, err := tx.NewUpdate().
			Model(row).
			Column("name", "mode", "room_count", "room_names", "participants", "room_index",
				"event_definitions", "inputs", "version", "updated_at").
			WherePK().
			Where("version = ?", expectedVersion).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update tournament: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows > 0 {
			return nil
		}

		exists, err := tx.NewSelect().Model((*Tournament)(nil)).Where("id = ?", row.ID).Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to check tournament existence: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrStaleSnapshot
	})
	if err != nil {
		return err
	}

	next.Version = row.Version
	next.UpdatedAt = row.UpdatedAt
	return nil
}
