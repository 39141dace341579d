package tournamentdb

import (
	"context"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
)

// Store is the contract every roster backend implements. A tournament is one
// document; Commit replaces it wholesale only if nobody committed since the
// snapshot with expectedVersion was read.
type Store interface {
	// Create persists a new tournament at version 1.
	Create(ctx context.Context, t *tournamenttypes.Tournament) error

	// Read returns the current snapshot, including its version.
	Read(ctx context.Context, id tournamenttypes.TournamentID) (*tournamenttypes.Tournament, error)

	// Commit writes next if the stored version still equals expectedVersion,
	// returning ErrStaleSnapshot otherwise. On success next.Version is bumped.
	Commit(ctx context.Context, next *tournamenttypes.Tournament, expectedVersion int64) error
}
