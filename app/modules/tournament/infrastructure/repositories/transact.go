package tournamentdb

import (
	"context"
	"errors"
	"fmt"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
)

// DefaultMaxAttempts bounds the read-modify-write loop when no limit is configured.
const DefaultMaxAttempts = 5

// ErrNoChange may be returned by a mutation to finish successfully without
// writing, like filepath.SkipDir for walks.
var ErrNoChange = errors.New("no change")

// Mutation edits a private clone of the snapshot in place. A returned error
// aborts the attempt and nothing is written.
type Mutation[R any] func(t *tournamenttypes.Tournament) (R, error)

// TxOptions tunes Transact.
type TxOptions struct {
	MaxAttempts int
	// OnRetry is called before attempt n (n >= 2) after a stale commit.
	OnRetry func(attempt int)
}

// Transact runs mutate as one atomic read-modify-write against store. Team
// inputs whose team changed membership are dropped in the same write. A stale
// commit restarts from a fresh read, up to MaxAttempts, after which a conflict
// failure is returned. Domain failures from mutate are returned unchanged; the
// committed snapshot is returned alongside the mutation's result.
func Transact[R any](
	ctx context.Context,
	store Store,
	id tournamenttypes.TournamentID,
	opts TxOptions,
	mutate Mutation[R],
) (R, *tournamenttypes.Tournament, error) {
	var zero R

	attempts := opts.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, nil, err
		}
		if attempt > 1 && opts.OnRetry != nil {
			opts.OnRetry(attempt)
		}

		current, err := store.Read(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return zero, nil, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "tournament %s not found", id)
			}
			return zero, nil, err
		}

		next := current.Clone()
		result, err := mutate(next)
		if errors.Is(err, ErrNoChange) {
			return result, current, nil
		}
		if err != nil {
			return zero, nil, err
		}
		tournamenttypes.DropStaleTeamInputs(current, next)

		if err := tournamenttypes.CheckInvariants(next); err != nil {
			return zero, nil, err
		}

		err = store.Commit(ctx, next, current.Version)
		if err == nil {
			return result, next, nil
		}
		if errors.Is(err, ErrStaleSnapshot) {
			continue
		}
		if errors.Is(err, ErrNotFound) {
			return zero, nil, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "tournament %s not found", id)
		}
		return zero, nil, fmt.Errorf("failed to commit tournament: %w", err)
	}

	return zero, nil, tournamenttypes.NewError(tournamenttypes.CodeConflict,
		"tournament %s changed concurrently; gave up after %d attempts", id, attempts)
}

// TransactResult runs Transact and splits its error the way services report
// them: domain errors become the failure branch, anything else is returned as
// an infrastructure error.
func TransactResult[R any](
	ctx context.Context,
	store Store,
	id tournamenttypes.TournamentID,
	opts TxOptions,
	mutate Mutation[R],
) (results.OperationResult[R, error], *tournamenttypes.Tournament, error) {
	res, snapshot, err := Transact(ctx, store, id, opts, mutate)
	if err != nil {
		if tournamenttypes.IsDomainError(err) {
			return results.FailureResult[R, error](err), nil, nil
		}
		return results.OperationResult[R, error]{}, nil, err
	}
	return results.SuccessResult[R, error](res), snapshot, nil
}
