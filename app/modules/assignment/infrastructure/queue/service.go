package assignmentqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/riverqueue/river/rivertype"
	"github.com/uptrace/bun"
)

const (
	queueName     = "assignment"
	metricService = "river"
)

// uniqueStates are the job states that block a new auto-assign for the same
// tournament. Finished jobs are left out so a later request runs again.
var uniqueStates = []rivertype.JobState{
	rivertype.JobStateAvailable,
	rivertype.JobStatePending,
	rivertype.JobStateRetryable,
	rivertype.JobStateRunning,
	rivertype.JobStateScheduled,
}

func autoAssignInsertOpts() *river.InsertOpts {
	return &river.InsertOpts{
		Queue:       queueName,
		MaxAttempts: 5,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByState: uniqueStates,
		},
	}
}

// QueueService schedules background assignment work.
type QueueService interface {
	// EnqueueAutoAssign queues an AssignAll run. Requests for a tournament that
	// already has an unfinished job collapse into that job, whoever sent them.
	EnqueueAutoAssign(ctx context.Context, id tournamenttypes.TournamentID, requestedBy string) (EnqueueResult, error)
	// PendingJobs lists jobs that have not run yet for a tournament.
	PendingJobs(ctx context.Context, id tournamenttypes.TournamentID) ([]JobInfo, error)
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service runs the auto-assign queue on River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	db      bun.IDB
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewService creates a River-backed queue for background assignment.
func NewService(ctx context.Context, db bun.IDB, dsn string, maxWorkers int, logger *slog.Logger, metrics observability.Metrics, assigner Assigner) (*Service, error) {
	if metrics == nil {
		metrics = observability.NoOpMetrics{}
	}
	if maxWorkers <= 0 {
		maxWorkers = 5
	}
	ctxLogger := logger.With(
		slog.String("operation", "new_assignment_queue_service"),
		slog.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", metricService)

	// River needs a pgx pool, not database/sql.
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", metricService)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", metricService)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", observability.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", metricService)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewAutoAssignWorker(ctxLogger, assigner))

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			queueName:          {MaxWorkers: maxWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", metricService)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", metricService)
	metrics.RecordOperationDuration(ctx, "initialize_service", metricService, time.Since(start))
	ctxLogger.Info("Assignment queue service initialized")

	return &Service{client: client, pool: pool, db: db, logger: ctxLogger, metrics: metrics}, nil
}

// Migrate applies River's own schema. It is run by the migrate command
// alongside the tournament migrations.
func Migrate(ctx context.Context, dsn string) (int, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return 0, fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create River migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return 0, fmt.Errorf("failed to run River migrations: %w", err)
	}
	return len(res.Versions), nil
}

func (s *Service) Start(ctx context.Context) error {
	return s.track(ctx, "start_service", func() error {
		if err := s.client.Start(ctx); err != nil {
			return fmt.Errorf("failed to start River client: %w", err)
		}
		return nil
	})
}

// Stop drains running jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	return s.track(ctx, "stop_service", func() error {
		defer s.pool.Close()
		if err := s.client.Stop(ctx); err != nil {
			return fmt.Errorf("failed to stop River client: %w", err)
		}
		return nil
	})
}

func (s *Service) EnqueueAutoAssign(ctx context.Context, id tournamenttypes.TournamentID, requestedBy string) (EnqueueResult, error) {
	var out EnqueueResult
	err := s.track(ctx, "enqueue_auto_assign", func() error {
		res, err := s.client.Insert(ctx, AutoAssignJob{TournamentID: id, RequestedBy: requestedBy}, autoAssignInsertOpts())
		if err != nil {
			return fmt.Errorf("failed to enqueue auto-assign job: %w", err)
		}
		out = EnqueueResult{JobID: res.Job.ID, Duplicate: res.UniqueSkippedAsDuplicate}
		s.logger.InfoContext(ctx, "Auto-assign job enqueued",
			observability.ExtractCorrelationID(ctx),
			slog.String("tournament_id", string(id)),
			slog.Int64("job_id", out.JobID),
			slog.Bool("duplicate", out.Duplicate),
		)
		return nil
	})
	return out, err
}

func (s *Service) PendingJobs(ctx context.Context, id tournamenttypes.TournamentID) ([]JobInfo, error) {
	type riverJobRow struct {
		ID          int64      `bun:"id"`
		State       string     `bun:"state"`
		ScheduledAt *time.Time `bun:"scheduled_at"`
		Attempt     int16      `bun:"attempt"`
		MaxAttempts int16      `bun:"max_attempts"`
	}

	var out []JobInfo
	err := s.track(ctx, "pending_jobs", func() error {
		var rows []riverJobRow
		err := s.db.NewSelect().
			Table("river_job").
			Column("id", "state", "scheduled_at", "attempt", "max_attempts").
			Where("kind = ?", AutoAssignJob{}.Kind()).
			Where("state IN (?, ?, ?)", "available", "scheduled", "retryable").
			Where("args->>'tournament_id' = ?", string(id)).
			Order("scheduled_at ASC NULLS LAST").
			Scan(ctx, &rows)
		if err != nil {
			return fmt.Errorf("failed to query pending jobs: %w", err)
		}
		out = make([]JobInfo, len(rows))
		for i, row := range rows {
			scheduledAt := ""
			if row.ScheduledAt != nil {
				scheduledAt = row.ScheduledAt.Format(time.RFC3339)
			}
			out[i] = JobInfo{
				ID:           row.ID,
				State:        row.State,
				TournamentID: string(id),
				ScheduledAt:  scheduledAt,
				Attempt:      int(row.Attempt),
				MaxAttempts:  int(row.MaxAttempts),
			}
		}
		return nil
	})
	return out, err
}

func (s *Service) HealthCheck(ctx context.Context) error {
	return s.track(ctx, "health_check", func() error {
		if s.client == nil {
			return fmt.Errorf("river client is nil")
		}
		if err := s.pool.Ping(ctx); err != nil {
			return fmt.Errorf("queue service health check failed: %w", err)
		}
		return nil
	})
}

// track records attempt, outcome and duration metrics for a queue operation.
func (s *Service) track(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, operation, metricService)
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operation, metricService, time.Since(start))
	}()

	if err := fn(); err != nil {
		s.logger.ErrorContext(ctx, "Queue operation failed",
			slog.String("operation", operation),
			observability.Error(err),
		)
		s.metrics.RecordOperationFailure(ctx, operation, metricService)
		return err
	}
	s.metrics.RecordOperationSuccess(ctx, operation, metricService)
	return nil
}
