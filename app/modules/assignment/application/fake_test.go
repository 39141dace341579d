package assignmentservice

import (
	"context"
	"io"
	"log/slog"
	"sync"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"go.opentelemetry.io/otel/trace/noop"
)

// fakeStore wraps a MemoryStore and lets tests lose commit races on purpose.
type fakeStore struct {
	inner *tournamentdb.MemoryStore

	mu    sync.Mutex
	trace []string
	// StaleCommits makes the next N commits fail with ErrStaleSnapshot.
	StaleCommits int
	// RaceFunc runs against the inner store before a commit is attempted,
	// simulating a writer that got there first.
	RaceFunc func(ctx context.Context, inner *tournamentdb.MemoryStore) error
}

var _ tournamentdb.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{inner: tournamentdb.NewMemoryStore()}
}

func (f *fakeStore) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *fakeStore) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *fakeStore) Create(ctx context.Context, t *tournamenttypes.Tournament) error {
	f.record("Create")
	return f.inner.Create(ctx, t)
}

func (f *fakeStore) Read(ctx context.Context, id tournamenttypes.TournamentID) (*tournamenttypes.Tournament, error) {
	f.record("Read")
	return f.inner.Read(ctx, id)
}

func (f *fakeStore) Commit(ctx context.Context, next *tournamenttypes.Tournament, expectedVersion int64) error {
	f.record("Commit")
	f.mu.Lock()
	race := f.RaceFunc
	f.RaceFunc = nil
	stale := f.StaleCommits > 0
	if stale {
		f.StaleCommits--
	}
	f.mu.Unlock()

	if race != nil {
		if err := race(ctx, f.inner); err != nil {
			return err
		}
	}
	if stale {
		return tournamentdb.ErrStaleSnapshot
	}
	return f.inner.Commit(ctx, next, expectedVersion)
}

// recordingPublisher captures published topics.
type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads []any
	err      error
}

var _ eventbus.Publisher = (*recordingPublisher)(nil)

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}

func newTestService(store tournamentdb.Store, pub eventbus.Publisher, cfg Config) *AssignmentService {
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAssignmentService(store, pub, logger, observability.NoOpMetrics{}, noop.NewTracerProvider().Tracer("test"), cfg)
}
