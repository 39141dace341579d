package tournamentdb

import (
	"context"
	"sync"
	"time"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
)

// MemoryStore keeps documents in process. Every read and write goes through
// Clone so callers never share memory with the stored copy.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[tournamenttypes.TournamentID]*tournamenttypes.Tournament
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[tournamenttypes.TournamentID]*tournamenttypes.Tournament)}
}

func (s *MemoryStore) Create(_ context.Context, t *tournamenttypes.Tournament) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[t.ID]; ok {
		return ErrAlreadyExists
	}
	now := time.Now().UTC()
	t.Version = 1
	t.CreatedAt = now
	t.UpdatedAt = now
	s.docs[t.ID] = t.Clone()
	return nil
}

func (s *MemoryStore) Read(_ context.Context, id tournamenttypes.TournamentID) (*tournamenttypes.Tournament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (s *MemoryStore) Commit(_ context.Context, next *tournamenttypes.Tournament, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.docs[next.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != expectedVersion {
		return ErrStaleSnapshot
	}
	next.Version = expectedVersion + 1
	next.UpdatedAt = time.Now().UTC()
	s.docs[next.ID] = next.Clone()
	return nil
}
