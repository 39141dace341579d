package assignmentservice

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"

	assignmentpolicy "github.com/Black-And-White-Club/tourney-bot/app/modules/assignment/policy"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "AssignmentService"

// Service is the assignment use-case surface consumed by handlers and jobs.
type Service interface {
	Assign(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, participantID tournamenttypes.ParticipantID) (results.OperationResult[AssignResult, error], error)
	MoveOrTrade(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, role string, participantID tournamenttypes.ParticipantID, targetRoom int) (results.OperationResult[MoveResult, error], error)
	MovePair(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, group1ID tournamenttypes.ParticipantID, targetRoom int) (results.OperationResult[MoveResult, error], error)
	AssignAll(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID) (results.OperationResult[AssignAllResult, error], error)
}

// Config tunes assignment behaviour.
type Config struct {
	Strategy    assignmentpolicy.Strategy
	MaxAttempts int
	// Seed fixes the random source. Zero seeds from the runtime.
	Seed uint64
}

// AssignmentService implements Service over a roster Store.
type AssignmentService struct {
	store       tournamentdb.Store
	publisher   eventbus.Publisher
	logger      *slog.Logger
	metrics     observability.Metrics
	telemetry   observability.Telemetry
	strategy    assignmentpolicy.Strategy
	maxAttempts int

	rngMu sync.Mutex
	rng   *rand.Rand
}

var _ Service = (*AssignmentService)(nil)

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(
	store tournamentdb.Store,
	publisher eventbus.Publisher,
	logger *slog.Logger,
	metrics observability.Metrics,
	tracer trace.Tracer,
	cfg Config,
) *AssignmentService {
	tel := observability.NewTelemetry(serviceName, logger, metrics, tracer)
	if publisher == nil {
		publisher = eventbus.NopPublisher{}
	}
	strategy := cfg.Strategy
	if strategy == "" {
		strategy = assignmentpolicy.StrategyRandom
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &AssignmentService{
		store:       store,
		publisher:   publisher,
		logger:      tel.Logger,
		metrics:     tel.Metrics,
		telemetry:   tel,
		strategy:    strategy,
		maxAttempts: cfg.MaxAttempts,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// withRand serialises access to the shared random source.
func (s *AssignmentService) withRand(fn func(rng *rand.Rand)) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	fn(s.rng)
}

func (s *AssignmentService) publish(ctx context.Context, topic string, payload any) {
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish domain event",
			observability.ExtractCorrelationID(ctx),
			slog.String("topic", topic),
			observability.Error(err),
		)
	}
}

func requirePrivileged(c caller.Caller) error {
	if !c.Privileged {
		return tournamenttypes.NewError(tournamenttypes.CodePermissionDenied, "caller %q is not privileged", c.ID)
	}
	return nil
}

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *AssignmentService,
	ctx context.Context,
	operationName string,
	identifier string,
	op observability.OperationFunc[S, F],
) (results.OperationResult[S, F], error) {
	return observability.RunOperation(ctx, s.telemetry, operationName, identifier, op)
}

// runInTx runs mutate as one atomic roster transaction.
func runInTx[S any](
	s *AssignmentService,
	ctx context.Context,
	operationName string,
	id tournamenttypes.TournamentID,
	mutate tournamentdb.Mutation[S],
) (results.OperationResult[S, error], *tournamenttypes.Tournament, error) {
	return tournamentdb.TransactResult(ctx, s.store, id, tournamentdb.TxOptions{
		MaxAttempts: s.maxAttempts,
		OnRetry: func(attempt int) {
			s.metrics.RecordTransactionRetry(ctx, operationName)
			s.logger.DebugContext(ctx, "Retrying stale roster commit",
				observability.ExtractCorrelationID(ctx),
				slog.String("operation", operationName),
				slog.Int("attempt", attempt),
			)
		},
	}, mutate)
}
