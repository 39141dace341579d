package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	assignmentservice "github.com/Black-And-White-Club/tourney-bot/app/modules/assignment/application"
	assignmentqueue "github.com/Black-And-White-Club/tourney-bot/app/modules/assignment/infrastructure/queue"
	assignmentpolicy "github.com/Black-And-White-Club/tourney-bot/app/modules/assignment/policy"
	scoringservice "github.com/Black-And-White-Club/tourney-bot/app/modules/scoring/application"
	tournamentservice "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/application"
	tournamentdb "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tourney-bot/config"
	tokenjwt "github.com/Black-And-White-Club/tourney-bot/pkg/jwt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// App holds every long-lived dependency of the process.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry

	db        *bun.DB
	closers   []func() error
	store     tournamentdb.Store
	publisher eventbus.Publisher
	tokens    tokenjwt.Service

	TournamentService tournamentservice.Service
	AssignmentService assignmentservice.Service
	ScoringService    scoringservice.Service
	// Queue is nil unless queue.enabled is set.
	Queue *assignmentqueue.Service
}

// NewApp initializes the application with the necessary services and configuration.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		tokens:   tokenjwt.NewService(cfg.JWT.Secret, cfg.JWT.Issuer),
	}

	metrics, err := observability.NewPrometheusMetrics(app.Registry, "tourney")
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	if cfg.Postgres.DSN != "" {
		pgdb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
		app.db = bun.NewDB(pgdb, pgdialect.New())
		app.closers = append(app.closers, app.db.Close)
		if err := app.db.PingContext(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
	}

	if err := app.initStore(ctx); err != nil {
		app.Close()
		return nil, err
	}
	if err := app.initPublisher(); err != nil {
		app.Close()
		return nil, err
	}

	strategy, ok := assignmentpolicy.ParseStrategy(cfg.Assignment.Strategy)
	if !ok {
		app.Close()
		return nil, fmt.Errorf("unknown assignment strategy %q", cfg.Assignment.Strategy)
	}

	assignments := assignmentservice.NewAssignmentService(app.store, app.publisher, logger, metrics,
		observability.Tracer("assignment"), assignmentservice.Config{
			Strategy:    strategy,
			MaxAttempts: cfg.Assignment.MaxAttempts,
			Seed:        cfg.Assignment.Seed,
		})
	app.AssignmentService = assignments
	app.TournamentService = tournamentservice.NewTournamentService(app.store, app.publisher, logger, metrics,
		observability.Tracer("tournament"), cfg.Assignment.MaxAttempts)
	app.ScoringService = scoringservice.NewScoringService(app.store, app.publisher, logger, metrics,
		observability.Tracer("scoring"), cfg.Assignment.MaxAttempts)

	if cfg.Queue.Enabled {
		queue, err := assignmentqueue.NewService(ctx, app.db, cfg.Postgres.DSN, cfg.Queue.Workers, logger, metrics, assignments)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize job queue: %w", err)
		}
		app.Queue = queue
	}

	logger.InfoContext(ctx, "Application initialized",
		slog.String("storage", cfg.Storage.Driver),
		slog.Bool("queue", cfg.Queue.Enabled),
		slog.String("strategy", string(strategy)),
	)
	return app, nil
}

func (app *App) initStore(ctx context.Context) error {
	switch app.Config.Storage.Driver {
	case config.DriverPostgres:
		app.store = tournamentdb.NewBunStore(app.db)
	case config.DriverFirestore:
		client, err := tournamentdb.NewFirestoreClient(ctx, app.Config.Firestore.ProjectID, app.Config.Firestore.CredentialsFile)
		if err != nil {
			return err
		}
		app.closers = append(app.closers, client.Close)
		app.store = tournamentdb.NewFirestoreStore(client, app.Config.Firestore.Collection)
	case config.DriverMemory:
		app.store = tournamentdb.NewMemoryStore()
	default:
		return fmt.Errorf("unknown storage driver %q", app.Config.Storage.Driver)
	}
	return nil
}

func (app *App) initPublisher() error {
	if app.Config.NATS.URL == "" {
		pub, _ := eventbus.NewGoChannelPublisher(app.Logger)
		app.publisher = pub
		app.closers = append(app.closers, pub.Close)
		app.Logger.Warn("NATS_URL not set; domain events stay in process")
		return nil
	}
	pub, err := eventbus.NewNATSPublisher(app.Config.NATS.URL, app.Logger)
	if err != nil {
		return err
	}
	app.publisher = pub
	app.closers = append(app.closers, pub.Close)
	return nil
}

// Close releases connections in reverse order of acquisition.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.Logger.Error("Error during shutdown", observability.Error(err))
		}
	}
	app.closers = nil
}
