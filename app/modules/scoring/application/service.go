package scoringservice

import (
	"context"
	"errors"
	"log/slog"

	scoring "github.com/Black-And-White-Club/tourney-bot/app/modules/scoring/domain"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "ScoringService"

// Service manages event definitions, score entry and ranking views.
type Service interface {
	UpsertEventDefinition(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, def tournamenttypes.EventDefinition) (results.OperationResult[DefinitionResult, error], error)
	DeleteEventDefinition(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (results.OperationResult[DefinitionResult, error], error)
	SubmitInput(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID, req InputRequest) (results.OperationResult[InputResult, error], error)
	ResetInputs(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (results.OperationResult[ResetResult, error], error)
	ComputeRanking(ctx context.Context, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (results.OperationResult[[]scoring.Ranked, error], error)
	ComputeGroupedRanking(ctx context.Context, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID, by string) (results.OperationResult[[]scoring.Ranked, error], error)
}

// ScoringService implements Service over a roster Store.
type ScoringService struct {
	store       tournamentdb.Store
	publisher   eventbus.Publisher
	telemetry   observability.Telemetry
	maxAttempts int
}

var _ Service = (*ScoringService)(nil)

// NewScoringService creates a new ScoringService.
func NewScoringService(
	store tournamentdb.Store,
	publisher eventbus.Publisher,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
	maxAttempts int,
) *ScoringService {
	if publisher == nil {
		publisher = eventbus.NopPublisher{}
	}
	return &ScoringService{
		store:       store,
		publisher:   publisher,
		telemetry:   observability.NewTelemetry(serviceName, logger, metrics, tracer),
		maxAttempts: maxAttempts,
	}
}

// mutate runs fn as one atomic roster transaction.
func mutate[R any](s *ScoringService, ctx context.Context, operationName string, id tournamenttypes.TournamentID, fn tournamentdb.Mutation[R]) (results.OperationResult[R, error], *tournamenttypes.Tournament, error) {
	return tournamentdb.TransactResult(ctx, s.store, id, tournamentdb.TxOptions{
		MaxAttempts: s.maxAttempts,
		OnRetry: func(int) {
			s.telemetry.Metrics.RecordTransactionRetry(ctx, operationName)
		},
	}, fn)
}

// read loads a snapshot for the read-only views.
func (s *ScoringService) read(ctx context.Context, id tournamenttypes.TournamentID) (*tournamenttypes.Tournament, error) {
	t, err := s.store.Read(ctx, id)
	if errors.Is(err, tournamentdb.ErrNotFound) {
		return nil, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "tournament %s not found", id)
	}
	return t, err
}

func (s *ScoringService) publish(ctx context.Context, topic string, payload any) {
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		s.telemetry.Logger.WarnContext(ctx, "Failed to publish domain event",
			observability.ExtractCorrelationID(ctx),
			slog.String("topic", topic),
			observability.Error(err),
		)
	}
}

func fail[S any](code tournamenttypes.ErrorCode, format string, args ...any) results.OperationResult[S, error] {
	return results.FailureResult[S, error](tournamenttypes.NewError(code, format, args...))
}
