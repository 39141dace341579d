package tournamentdb

import (
	"context"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
)

// FakeStore wraps a MemoryStore and can force stale commits.
type FakeStore struct {
	inner *MemoryStore
	trace []string

	// StaleCommits makes the next N commits fail with ErrStaleSnapshot.
	StaleCommits int
	CommitFunc   func(ctx context.Context, next *tournamenttypes.Tournament, expectedVersion int64) error
}

var _ Store = (*FakeStore)(nil)

func NewFakeStore() *FakeStore {
	return &FakeStore{inner: NewMemoryStore()}
}

func (f *FakeStore) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeStore) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeStore) Create(ctx context.Context, t *tournamenttypes.Tournament) error {
	f.record("Create")
	return f.inner.Create(ctx, t)
}

func (f *FakeStore) Read(ctx context.Context, id tournamenttypes.TournamentID) (*tournamenttypes.Tournament, error) {
	f.record("Read")
	return f.inner.Read(ctx, id)
}

func (f *FakeStore) Commit(ctx context.Context, next *tournamenttypes.Tournament, expectedVersion int64) error {
	f.record("Commit")
	if f.StaleCommits > 0 {
		f.StaleCommits--
		return ErrStaleSnapshot
	}
	if f.CommitFunc != nil {
		return f.CommitFunc(ctx, next, expectedVersion)
	}
	return f.inner.Commit(ctx, next, expectedVersion)
}
