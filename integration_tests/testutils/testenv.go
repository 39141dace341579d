//go:build integration

package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	tournamentmigrations "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories/migrations"
	"github.com/Black-And-White-Club/tourney-bot/integration_tests/containers"
)

// TestEnvironment holds the containers and connections shared by a package's
// integration tests.
type TestEnvironment struct {
	Ctx           context.Context
	Cancel        context.CancelFunc
	PgContainer   *postgres.PostgresContainer
	NatsContainer *nats.NATSContainer
	DSN           string
	NatsURL       string
	DB            *bun.DB
	Logger        *slog.Logger
}

// Options selects the containers a test package needs.
type Options struct {
	Postgres bool
	NATS     bool
}

// NewTestEnvironment starts the requested containers. Postgres comes up with
// the tournament schema migrated.
func NewTestEnvironment(opts Options) (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{
		Ctx:    ctx,
		Cancel: cancel,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if opts.Postgres {
		pg, dsn, err := containers.SetupPostgresContainer(ctx)
		if err != nil {
			env.Cleanup()
			return nil, err
		}
		env.PgContainer = pg
		env.DSN = dsn
		env.DB = bun.NewDB(sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn))), pgdialect.New())

		if err := env.migrate(ctx); err != nil {
			env.Cleanup()
			return nil, err
		}
	}

	if opts.NATS {
		nc, url, err := containers.SetupNatsContainer(ctx)
		if err != nil {
			env.Cleanup()
			return nil, err
		}
		env.NatsContainer = nc
		env.NatsURL = url
	}
	return env, nil
}

func (env *TestEnvironment) migrate(ctx context.Context) error {
	migrator := migrate.NewMigrator(env.DB, tournamentmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// ResetDB empties the tournament table between tests.
func (env *TestEnvironment) ResetDB(t *testing.T) {
	t.Helper()
	if _, err := env.DB.ExecContext(env.Ctx, "TRUNCATE TABLE tournaments"); err != nil {
		t.Fatalf("failed to truncate tournaments: %v", err)
	}
}

// Cleanup closes connections and terminates every started container.
func (env *TestEnvironment) Cleanup() {
	if env.DB != nil {
		_ = env.DB.Close()
	}
	if env.PgContainer != nil {
		_ = env.PgContainer.Terminate(context.Background())
	}
	if env.NatsContainer != nil {
		_ = env.NatsContainer.Terminate(context.Background())
	}
	env.Cancel()
}
