package scoringservice

import (
	"context"

	scoring "github.com/Black-And-White-Club/tourney-bot/app/modules/scoring/domain"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
)

// ComputeRanking returns the ranked view of one event. Nothing is persisted.
func (s *ScoringService) ComputeRanking(ctx context.Context, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (results.OperationResult[[]scoring.Ranked, error], error) {
	return observability.RunOperation(ctx, s.telemetry, "ComputeRanking", string(eventID), func(ctx context.Context) (results.OperationResult[[]scoring.Ranked, error], error) {
		return s.rank(ctx, id, func(t *tournamenttypes.Tournament) ([]scoring.Ranked, error) {
			return scoring.ComputeRanking(t, eventID)
		})
	})
}

// ComputeGroupedRanking folds a person event per room or team before ranking.
func (s *ScoringService) ComputeGroupedRanking(ctx context.Context, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID, by string) (results.OperationResult[[]scoring.Ranked, error], error) {
	return observability.RunOperation(ctx, s.telemetry, "ComputeGroupedRanking", string(eventID)+"/"+by, func(ctx context.Context) (results.OperationResult[[]scoring.Ranked, error], error) {
		group, ok := scoring.ParseGroupBy(by)
		if !ok {
			return fail[[]scoring.Ranked](tournamenttypes.CodeInvalidArgument, "unknown grouping %q", by), nil
		}
		return s.rank(ctx, id, func(t *tournamenttypes.Tournament) ([]scoring.Ranked, error) {
			return scoring.ComputeGroupedRanking(t, eventID, group)
		})
	})
}

func (s *ScoringService) rank(ctx context.Context, id tournamenttypes.TournamentID, view func(*tournamenttypes.Tournament) ([]scoring.Ranked, error)) (results.OperationResult[[]scoring.Ranked, error], error) {
	t, err := s.read(ctx, id)
	if err != nil {
		if tournamenttypes.IsDomainError(err) {
			return results.FailureResult[[]scoring.Ranked, error](err), nil
		}
		return results.OperationResult[[]scoring.Ranked, error]{}, err
	}
	rows, err := view(t)
	if err != nil {
		return results.FailureResult[[]scoring.Ranked, error](err), nil
	}
	if rows == nil {
		rows = []scoring.Ranked{}
	}
	return results.SuccessResult[[]scoring.Ranked, error](rows), nil
}
