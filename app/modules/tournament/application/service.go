package tournamentservice

import (
	"context"
	"errors"
	"log/slog"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "TournamentService"

// Service administers tournaments and their rosters.
type Service interface {
	CreateTournament(ctx context.Context, c caller.Caller, req CreateRequest) (results.OperationResult[*tournamenttypes.Tournament, error], error)
	GetTournament(ctx context.Context, id tournamenttypes.TournamentID) (results.OperationResult[*tournamenttypes.Tournament, error], error)
	AddParticipants(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, add []NewParticipant) (results.OperationResult[RosterResult, error], error)
	RemoveParticipant(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, participantID tournamenttypes.ParticipantID) (results.OperationResult[RosterResult, error], error)
	UpdateParticipant(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, participantID tournamenttypes.ParticipantID, patch ParticipantPatch) (results.OperationResult[RosterResult, error], error)
	ResetAssignments(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID) (results.OperationResult[RosterResult, error], error)
	RenameRooms(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, names []string) (results.OperationResult[RosterResult, error], error)
}

// TournamentService implements Service.
type TournamentService struct {
	store       tournamentdb.Store
	publisher   eventbus.Publisher
	telemetry   observability.Telemetry
	maxAttempts int
	// newID generates tournament and participant ids.
	newID func() string
}

var _ Service = (*TournamentService)(nil)

// NewTournamentService creates a new TournamentService.
func NewTournamentService(
	store tournamentdb.Store,
	publisher eventbus.Publisher,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
	maxAttempts int,
) *TournamentService {
	if publisher == nil {
		publisher = eventbus.NopPublisher{}
	}
	return &TournamentService{
		store:       store,
		publisher:   publisher,
		telemetry:   observability.NewTelemetry(serviceName, logger, metrics, tracer),
		maxAttempts: maxAttempts,
		newID:       newUUID,
	}
}

func (s *TournamentService) withTelemetry(
	ctx context.Context,
	operationName string,
	identifier string,
	op observability.OperationFunc[RosterResult, error],
) (results.OperationResult[RosterResult, error], error) {
	return observability.RunOperation(ctx, s.telemetry, operationName, identifier, op)
}

// mutateRoster runs fn in a roster transaction and publishes action on success.
func (s *TournamentService) mutateRoster(ctx context.Context, c caller.Caller, operationName, action string, id tournamenttypes.TournamentID, fn tournamentdb.Mutation[RosterResult]) (results.OperationResult[RosterResult, error], error) {
	if !c.Privileged {
		return fail[RosterResult](tournamenttypes.CodePermissionDenied, "caller %q is not privileged", c.ID), nil
	}

	result, snapshot, err := tournamentdb.TransactResult(ctx, s.store, id, tournamentdb.TxOptions{
		MaxAttempts: s.maxAttempts,
		OnRetry: func(int) {
			s.telemetry.Metrics.RecordTransactionRetry(ctx, operationName)
		},
	}, fn)
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	result.Success.Version = snapshot.Version
	if result.Success.Count > 0 {
		s.publish(ctx, eventbus.TopicRoster, eventbus.RosterPayload{
			TournamentID: id,
			Action:       action,
			Count:        result.Success.Count,
			Version:      snapshot.Version,
		})
	}
	return result, nil
}

func (s *TournamentService) publish(ctx context.Context, topic string, payload any) {
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		s.telemetry.Logger.WarnContext(ctx, "Failed to publish domain event",
			observability.ExtractCorrelationID(ctx),
			slog.String("topic", topic),
			observability.Error(err),
		)
	}
}

// GetTournament returns the current snapshot.
func (s *TournamentService) GetTournament(ctx context.Context, id tournamenttypes.TournamentID) (results.OperationResult[*tournamenttypes.Tournament, error], error) {
	return observability.RunOperation(ctx, s.telemetry, "GetTournament", string(id), func(ctx context.Context) (results.OperationResult[*tournamenttypes.Tournament, error], error) {
		t, err := s.store.Read(ctx, id)
		if errors.Is(err, tournamentdb.ErrNotFound) {
			return fail[*tournamenttypes.Tournament](tournamenttypes.CodeNotFound, "tournament %s not found", id), nil
		}
		if err != nil {
			return results.OperationResult[*tournamenttypes.Tournament, error]{}, err
		}
		return results.SuccessResult[*tournamenttypes.Tournament, error](t), nil
	})
}

func fail[S any](code tournamenttypes.ErrorCode, format string, args ...any) results.OperationResult[S, error] {
	return results.FailureResult[S, error](tournamenttypes.NewError(code, format, args...))
}
