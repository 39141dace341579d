package assignmentqueue

import (
	"context"
	"fmt"
	"log/slog"

	assignmentservice "github.com/Black-And-White-Club/tourney-bot/app/modules/assignment/application"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
	"github.com/riverqueue/river"
)

// Assigner is the slice of the assignment service the worker needs.
type Assigner interface {
	AssignAll(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID) (results.OperationResult[assignmentservice.AssignAllResult, error], error)
}

// AutoAssignWorker runs AssignAll for a queued tournament.
type AutoAssignWorker struct {
	river.WorkerDefaults[AutoAssignJob]
	logger   *slog.Logger
	assigner Assigner
}

func NewAutoAssignWorker(logger *slog.Logger, assigner Assigner) *AutoAssignWorker {
	return &AutoAssignWorker{logger: logger, assigner: assigner}
}

// Work returns infrastructure errors so River retries them. Domain failures
// cancel the job since a retry would fail the same way.
func (w *AutoAssignWorker) Work(ctx context.Context, job *river.Job[AutoAssignJob]) error {
	ctx, _ = observability.EnsureCorrelationID(ctx)
	logger := w.logger.With(
		slog.String("tournament_id", string(job.Args.TournamentID)),
		slog.String("requested_by", job.Args.RequestedBy),
		slog.Int64("job_id", job.ID),
		observability.ExtractCorrelationID(ctx),
	)

	logger.InfoContext(ctx, "Running auto-assign job", slog.Int("attempt", job.Attempt))

	result, err := w.assigner.AssignAll(ctx, caller.System, job.Args.TournamentID)
	if err != nil {
		logger.ErrorContext(ctx, "Auto-assign failed", observability.Error(err))
		return fmt.Errorf("auto-assign %s: %w", job.Args.TournamentID, err)
	}
	if result.IsFailure() {
		logger.WarnContext(ctx, "Auto-assign rejected", observability.Error(*result.Failure))
		return river.JobCancel(*result.Failure)
	}

	logger.InfoContext(ctx, "Auto-assign finished",
		slog.Int("assigned", result.Success.Assigned),
		slog.Int("failed", result.Success.Failed),
	)
	return nil
}
