package scoringservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	scoring "github.com/Black-And-White-Club/tourney-bot/app/modules/scoring/domain"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

var admin = caller.Caller{ID: "admin", Privileged: true}

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads []any
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

// failingStore fails every read with an infrastructure error.
type failingStore struct{ tournamentdb.Store }

func (failingStore) Read(context.Context, tournamenttypes.TournamentID) (*tournamenttypes.Tournament, error) {
	return nil, errors.New("connection reset")
}

func f(v float64) *float64 { return &v }

func slot(i int) *int { return &i }

func fixture() *tournamenttypes.Tournament {
	t := &tournamenttypes.Tournament{
		ID:        "t1",
		Mode:      tournamenttypes.ModeFourball,
		RoomCount: 2,
		Participants: []tournamenttypes.Participant{
			{ID: "a", Group: 1, Room: tournamenttypes.IntPtr(1), Partner: tournamenttypes.IDPtr("b")},
			{ID: "b", Group: 2, Room: tournamenttypes.IntPtr(1), Partner: tournamenttypes.IDPtr("a")},
			{ID: "c", Group: 1, Room: tournamenttypes.IntPtr(2), Partner: tournamenttypes.IDPtr("d")},
			{ID: "d", Group: 2, Room: tournamenttypes.IntPtr(2), Partner: tournamenttypes.IDPtr("c")},
		},
		EventDefinitions: []tournamenttypes.EventDefinition{
			{
				ID: "drive", Target: tournamenttypes.TargetPerson, Template: tournamenttypes.TemplateRawNumber,
				RankOrder: tournamenttypes.RankDesc, InputMode: tournamenttypes.InputRefresh, Enabled: true,
			},
			{
				ID: "putts", Target: tournamenttypes.TargetTeam, Template: tournamenttypes.TemplateRangeConvertBonus,
				Params: tournamenttypes.TemplateParams{
					Ranges:  []tournamenttypes.Range{{Min: f(0), Max: f(5), Score: 10}, {Min: f(6), Score: 20}},
					Bonuses: []tournamenttypes.Bonus{{Label: "ace", Score: 50}},
				},
				RankOrder: tournamenttypes.RankDesc, InputMode: tournamenttypes.InputAccumulate, Attempts: 3, Enabled: true,
			},
			{
				ID: "closed", Target: tournamenttypes.TargetRoom, Template: tournamenttypes.TemplateRawNumber,
				RankOrder: tournamenttypes.RankAsc, InputMode: tournamenttypes.InputRefresh,
			},
		},
	}
	for _, p := range t.Participants {
		t.AddToIndex(*p.Room, p.ID)
	}
	return t
}

func newTestService(t *testing.T) (*ScoringService, *tournamentdb.MemoryStore, *recordingPublisher) {
	t.Helper()
	store := tournamentdb.NewMemoryStore()
	require.NoError(t, store.Create(context.Background(), fixture()))
	pub := &recordingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewScoringService(store, pub, logger, observability.NoOpMetrics{}, noop.NewTracerProvider().Tracer("test"), 3)
	return svc, store, pub
}

func read(t *testing.T, store tournamentdb.Store) *tournamenttypes.Tournament {
	t.Helper()
	tour, err := store.Read(context.Background(), "t1")
	require.NoError(t, err)
	require.NoError(t, tournamenttypes.CheckInvariants(tour))
	return tour
}

func TestUpsertEventDefinition(t *testing.T) {
	ctx := context.Background()

	t.Run("creates then replaces", func(t *testing.T) {
		svc, store, pub := newTestService(t)
		def := tournamenttypes.EventDefinition{
			ID: "chip", Target: tournamenttypes.TargetPerson, Template: tournamenttypes.TemplateNumberConvert,
			Params:    tournamenttypes.TemplateParams{Factor: 1.5},
			RankOrder: tournamenttypes.RankDesc, InputMode: tournamenttypes.InputRefresh, Enabled: true,
		}
		res, err := svc.UpsertEventDefinition(ctx, admin, "t1", def)
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.True(t, res.Success.Created)
		assert.Equal(t, int64(2), res.Success.Version)

		def.Title = "Chipping"
		res, err = svc.UpsertEventDefinition(ctx, admin, "t1", def)
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.False(t, res.Success.Created)
		assert.Equal(t, "Chipping", read(t, store).Event("chip").Title)
		assert.Equal(t, []string{eventbus.TopicDefinitions, eventbus.TopicDefinitions}, pub.topics)
	})

	tests := []struct {
		name     string
		caller   caller.Caller
		prepare  func(t *testing.T, svc *ScoringService)
		def      func() tournamenttypes.EventDefinition
		wantCode tournamenttypes.ErrorCode
	}{
		{
			name:     "unprivileged",
			caller:   caller.Caller{ID: "a"},
			def:      func() tournamenttypes.EventDefinition { return fixture().EventDefinitions[0] },
			wantCode: tournamenttypes.CodePermissionDenied,
		},
		{
			name:   "invalid definition",
			caller: admin,
			def: func() tournamenttypes.EventDefinition {
				d := fixture().EventDefinitions[0]
				d.Template = "guess"
				return d
			},
			wantCode: tournamenttypes.CodeInvalidArgument,
		},
		{
			name:   "target is fixed once inputs exist",
			caller: admin,
			prepare: func(t *testing.T, svc *ScoringService) {
				res, err := svc.SubmitInput(ctx, admin, "t1", "drive", InputRequest{TargetKey: "a", Value: f(200)})
				require.NoError(t, err)
				require.True(t, res.IsSuccess())
			},
			def: func() tournamenttypes.EventDefinition {
				d := fixture().EventDefinitions[0]
				d.Target = tournamenttypes.TargetRoom
				return d
			},
			wantCode: tournamenttypes.CodeFailedPrecondition,
		},
		{
			name:   "attempts cannot drop below filled slots",
			caller: admin,
			prepare: func(t *testing.T, svc *ScoringService) {
				res, err := svc.SubmitInput(ctx, admin, "t1", "putts", InputRequest{TargetKey: "1-A", Slot: slot(2), Value: f(3)})
				require.NoError(t, err)
				require.True(t, res.IsSuccess())
			},
			def: func() tournamenttypes.EventDefinition {
				d := fixture().EventDefinitions[1]
				d.Attempts = 2
				return d
			},
			wantCode: tournamenttypes.CodeFailedPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService(t)
			if tt.prepare != nil {
				tt.prepare(t, svc)
			}
			before := read(t, store)

			res, err := svc.UpsertEventDefinition(ctx, tt.caller, "t1", tt.def())
			require.NoError(t, err)
			require.True(t, res.IsFailure())
			assert.Equal(t, tt.wantCode, tournamenttypes.Code(*res.Failure))
			if diff := cmp.Diff(before, read(t, store)); diff != "" {
				t.Errorf("failed upsert changed the roster (-before +after):\n%s", diff)
			}
		})
	}
}

func TestDeleteEventDefinition(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	res, err := svc.SubmitInput(ctx, admin, "t1", "drive", InputRequest{TargetKey: "a", Value: f(200)})
	require.NoError(t, err)
	require.True(t, res.IsSuccess())

	del, err := svc.DeleteEventDefinition(ctx, admin, "t1", "drive")
	require.NoError(t, err)
	require.True(t, del.IsSuccess())
	assert.True(t, del.Success.Deleted)

	tour := read(t, store)
	assert.Nil(t, tour.Event("drive"))
	assert.NotContains(t, tour.Inputs, tournamenttypes.EventID("drive"))

	del, err = svc.DeleteEventDefinition(ctx, admin, "t1", "drive")
	require.NoError(t, err)
	require.True(t, del.IsFailure())
	assert.Equal(t, tournamenttypes.CodeNotFound, tournamenttypes.Code(*del.Failure))
}

func TestSubmitInput(t *testing.T) {
	tests := []struct {
		name     string
		caller   caller.Caller
		event    tournamenttypes.EventID
		reqs     []InputRequest
		wantCode tournamenttypes.ErrorCode
		want     tournamenttypes.InputEntry
		wantGone bool
	}{
		{
			name:   "refresh overwrites",
			caller: admin,
			event:  "drive",
			reqs:   []InputRequest{{TargetKey: "a", Value: f(200)}, {TargetKey: "a", Value: f(230)}},
			want:   tournamenttypes.InputEntry{Value: f(230)},
		},
		{
			name:     "refresh with nil value clears",
			caller:   admin,
			event:    "drive",
			reqs:     []InputRequest{{TargetKey: "a", Value: f(200)}, {TargetKey: "a"}},
			wantGone: true,
		},
		{
			name:   "participant enters own value",
			caller: caller.Caller{ID: "b"},
			event:  "drive",
			reqs:   []InputRequest{{TargetKey: "b", Value: f(180)}},
			want:   tournamenttypes.InputEntry{Value: f(180)},
		},
		{
			name:     "participant cannot enter for someone else",
			caller:   caller.Caller{ID: "b"},
			event:    "drive",
			reqs:     []InputRequest{{TargetKey: "c", Value: f(180)}},
			wantCode: tournamenttypes.CodePermissionDenied,
		},
		{
			name:   "partner enters for own team",
			caller: caller.Caller{ID: "b"},
			event:  "putts",
			reqs:   []InputRequest{{TargetKey: "1-A", Slot: slot(1), Value: f(4), Bonus: "ace"}},
			want: tournamenttypes.InputEntry{Slots: []tournamenttypes.Slot{
				{}, {Value: f(4), Bonus: "ace"}, {},
			}},
		},
		{
			name:   "accumulate fills slots independently",
			caller: admin,
			event:  "putts",
			reqs: []InputRequest{
				{TargetKey: "2-A", Slot: slot(0), Value: f(7)},
				{TargetKey: "2-A", Slot: slot(2), Value: f(1)},
			},
			want: tournamenttypes.InputEntry{Slots: []tournamenttypes.Slot{
				{Value: f(7)}, {}, {Value: f(1)},
			}},
		},
		{
			name:   "clearing the last slot removes the entry",
			caller: admin,
			event:  "putts",
			reqs: []InputRequest{
				{TargetKey: "2-A", Slot: slot(0), Value: f(7)},
				{TargetKey: "2-A", Slot: slot(0)},
			},
			wantGone: true,
		},
		{
			name:     "slot out of range",
			caller:   admin,
			event:    "putts",
			reqs:     []InputRequest{{TargetKey: "1-A", Slot: slot(3), Value: f(1)}},
			wantCode: tournamenttypes.CodeInvalidArgument,
		},
		{
			name:     "refresh event rejects a slot",
			caller:   admin,
			event:    "drive",
			reqs:     []InputRequest{{TargetKey: "a", Slot: slot(0), Value: f(1)}},
			wantCode: tournamenttypes.CodeInvalidArgument,
		},
		{
			name:     "unknown bonus",
			caller:   admin,
			event:    "putts",
			reqs:     []InputRequest{{TargetKey: "1-A", Slot: slot(0), Value: f(1), Bonus: "eagle"}},
			wantCode: tournamenttypes.CodeInvalidArgument,
		},
		{
			name:     "non-finite value",
			caller:   admin,
			event:    "drive",
			reqs:     []InputRequest{{TargetKey: "a", Value: f(math.Inf(1))}},
			wantCode: tournamenttypes.CodeInvalidArgument,
		},
		{
			name:     "unknown target key",
			caller:   admin,
			event:    "putts",
			reqs:     []InputRequest{{TargetKey: "3-A", Slot: slot(0), Value: f(1)}},
			wantCode: tournamenttypes.CodeNotFound,
		},
		{
			name:     "disabled event",
			caller:   admin,
			event:    "closed",
			reqs:     []InputRequest{{TargetKey: "1", Value: f(1)}},
			wantCode: tournamenttypes.CodeFailedPrecondition,
		},
		{
			name:     "unknown event",
			caller:   admin,
			event:    "nope",
			reqs:     []InputRequest{{TargetKey: "a", Value: f(1)}},
			wantCode: tournamenttypes.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store, pub := newTestService(t)

			var last InputResult
			for i, req := range tt.reqs {
				res, err := svc.SubmitInput(ctx, tt.caller, "t1", tt.event, req)
				require.NoError(t, err)
				if tt.wantCode != "" && i == len(tt.reqs)-1 {
					require.True(t, res.IsFailure())
					assert.Equal(t, tt.wantCode, tournamenttypes.Code(*res.Failure))
					assert.Empty(t, pub.topics)
					return
				}
				require.True(t, res.IsSuccess(), "request %d failed: %v", i, res.Failure)
				last = *res.Success
			}

			stored, ok := read(t, store).Inputs[tt.event][last.TargetKey]
			if tt.wantGone {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			if diff := cmp.Diff(tt.want, stored); diff != "" {
				t.Errorf("stored entry mismatch (-want +got):\n%s", diff)
			}
			assert.Len(t, pub.topics, len(tt.reqs))
		})
	}
}

func TestResetInputs(t *testing.T) {
	ctx := context.Background()

	submitAll := func(t *testing.T, svc *ScoringService) {
		for _, req := range []struct {
			event tournamenttypes.EventID
			req   InputRequest
		}{
			{"drive", InputRequest{TargetKey: "a", Value: f(200)}},
			{"drive", InputRequest{TargetKey: "c", Value: f(210)}},
			{"putts", InputRequest{TargetKey: "1-A", Slot: slot(0), Value: f(2)}},
		} {
			res, err := svc.SubmitInput(ctx, admin, "t1", req.event, req.req)
			require.NoError(t, err)
			require.True(t, res.IsSuccess())
		}
	}

	t.Run("one event", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		submitAll(t, svc)

		res, err := svc.ResetInputs(ctx, admin, "t1", "drive")
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.Equal(t, 2, res.Success.Cleared)

		tour := read(t, store)
		assert.NotContains(t, tour.Inputs, tournamenttypes.EventID("drive"))
		assert.Contains(t, tour.Inputs, tournamenttypes.EventID("putts"))
	})

	t.Run("every event", func(t *testing.T) {
		svc, store, _ := newTestService(t)
		submitAll(t, svc)

		res, err := svc.ResetInputs(ctx, admin, "t1", "")
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.Equal(t, 3, res.Success.Cleared)
		assert.Empty(t, read(t, store).Inputs)
	})

	t.Run("nothing to clear does not write", func(t *testing.T) {
		svc, store, pub := newTestService(t)
		before := read(t, store).Version

		res, err := svc.ResetInputs(ctx, admin, "t1", "drive")
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.Zero(t, res.Success.Cleared)
		assert.Equal(t, before, read(t, store).Version)
		assert.Empty(t, pub.topics)
	})

	t.Run("unprivileged", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		res, err := svc.ResetInputs(ctx, caller.Caller{ID: "a"}, "t1", "")
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, tournamenttypes.CodePermissionDenied, tournamenttypes.Code(*res.Failure))
	})
}

func TestRankingViews(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	for _, in := range []struct {
		event tournamenttypes.EventID
		req   InputRequest
	}{
		{"drive", InputRequest{TargetKey: "a", Value: f(250)}},
		{"drive", InputRequest{TargetKey: "b", Value: f(200)}},
		{"drive", InputRequest{TargetKey: "c", Value: f(240)}},
		{"putts", InputRequest{TargetKey: "1-A", Slot: slot(0), Value: f(3), Bonus: "ace"}},
		{"putts", InputRequest{TargetKey: "2-A", Slot: slot(0), Value: f(9)}},
		{"putts", InputRequest{TargetKey: "2-A", Slot: slot(1), Value: f(2)}},
	} {
		res, err := svc.SubmitInput(ctx, admin, "t1", in.event, in.req)
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
	}

	t.Run("person ranking", func(t *testing.T) {
		res, err := svc.ComputeRanking(ctx, "t1", "drive")
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		want := []scoring.Ranked{
			{Key: "a", Label: "a", Value: 250, Rank: 1},
			{Key: "c", Label: "c", Value: 240, Rank: 2},
			{Key: "b", Label: "b", Value: 200, Rank: 3},
		}
		if diff := cmp.Diff(want, *res.Success); diff != "" {
			t.Errorf("ranking mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("team ranking with bonus", func(t *testing.T) {
		res, err := svc.ComputeRanking(ctx, "t1", "putts")
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		want := []scoring.Ranked{
			{Key: "1-A", Label: "Room 1 A", Value: 60, Rank: 1},
			{Key: "2-A", Label: "Room 2 A", Value: 30, Rank: 2},
		}
		if diff := cmp.Diff(want, *res.Success); diff != "" {
			t.Errorf("ranking mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("grouped by room", func(t *testing.T) {
		res, err := svc.ComputeGroupedRanking(ctx, "t1", "drive", "room")
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		want := []scoring.Ranked{
			{Key: "1", Label: "Room 1", Value: 450, Rank: 1},
			{Key: "2", Label: "Room 2", Value: 240, Rank: 2},
		}
		if diff := cmp.Diff(want, *res.Success); diff != "" {
			t.Errorf("ranking mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty event ranks nothing", func(t *testing.T) {
		res, err := svc.ComputeRanking(ctx, "t1", "closed")
		require.NoError(t, err)
		require.True(t, res.IsSuccess())
		assert.Empty(t, *res.Success)
	})

	t.Run("unknown grouping", func(t *testing.T) {
		res, err := svc.ComputeGroupedRanking(ctx, "t1", "drive", "club")
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, tournamenttypes.CodeInvalidArgument, tournamenttypes.Code(*res.Failure))
	})

	t.Run("missing tournament", func(t *testing.T) {
		res, err := svc.ComputeRanking(ctx, "nope", "drive")
		require.NoError(t, err)
		require.True(t, res.IsFailure())
		assert.Equal(t, tournamenttypes.CodeNotFound, tournamenttypes.Code(*res.Failure))
	})
}

func TestRankingInfrastructureError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewScoringService(failingStore{}, nil, logger, observability.NoOpMetrics{}, noop.NewTracerProvider().Tracer("test"), 3)

	_, err := svc.ComputeRanking(context.Background(), "t1", "drive")
	require.Error(t, err)
	assert.ErrorContains(t, err, "connection reset")
}
