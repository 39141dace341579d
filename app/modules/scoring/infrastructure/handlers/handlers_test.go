package scoringhandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	scoringservice "github.com/Black-And-White-Club/tourney-bot/app/modules/scoring/application"
	scoring "github.com/Black-And-White-Club/tourney-bot/app/modules/scoring/domain"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	definitionResult = results.OperationResult[scoringservice.DefinitionResult, error]
	inputResult      = results.OperationResult[scoringservice.InputResult, error]
	resetResult      = results.OperationResult[scoringservice.ResetResult, error]
	rankingResult    = results.OperationResult[[]scoring.Ranked, error]
)

// FakeService implements scoringservice.Service.
type FakeService struct {
	trace []string

	UpsertEventDefinitionFunc func(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, def tournamenttypes.EventDefinition) (definitionResult, error)
	DeleteEventDefinitionFunc func(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (definitionResult, error)
	SubmitInputFunc           func(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID, req scoringservice.InputRequest) (inputResult, error)
	ResetInputsFunc           func(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (resetResult, error)
	ComputeRankingFunc        func(ctx context.Context, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (rankingResult, error)
	ComputeGroupedRankingFunc func(ctx context.Context, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID, by string) (rankingResult, error)
}

var errUnexpected = errors.New("unexpected call")

func (f *FakeService) UpsertEventDefinition(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, def tournamenttypes.EventDefinition) (definitionResult, error) {
	f.trace = append(f.trace, "UpsertEventDefinition")
	if f.UpsertEventDefinitionFunc == nil {
		return definitionResult{}, errUnexpected
	}
	return f.UpsertEventDefinitionFunc(ctx, c, id, def)
}

func (f *FakeService) DeleteEventDefinition(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (definitionResult, error) {
	f.trace = append(f.trace, "DeleteEventDefinition")
	if f.DeleteEventDefinitionFunc == nil {
		return definitionResult{}, errUnexpected
	}
	return f.DeleteEventDefinitionFunc(ctx, c, id, eventID)
}

func (f *FakeService) SubmitInput(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID, req scoringservice.InputRequest) (inputResult, error) {
	f.trace = append(f.trace, "SubmitInput")
	if f.SubmitInputFunc == nil {
		return inputResult{}, errUnexpected
	}
	return f.SubmitInputFunc(ctx, c, id, eventID, req)
}

func (f *FakeService) ResetInputs(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (resetResult, error) {
	f.trace = append(f.trace, "ResetInputs")
	if f.ResetInputsFunc == nil {
		return resetResult{}, errUnexpected
	}
	return f.ResetInputsFunc(ctx, c, id, eventID)
}

func (f *FakeService) ComputeRanking(ctx context.Context, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (rankingResult, error) {
	f.trace = append(f.trace, "ComputeRanking")
	if f.ComputeRankingFunc == nil {
		return rankingResult{}, errUnexpected
	}
	return f.ComputeRankingFunc(ctx, id, eventID)
}

func (f *FakeService) ComputeGroupedRanking(ctx context.Context, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID, by string) (rankingResult, error) {
	f.trace = append(f.trace, "ComputeGroupedRanking")
	if f.ComputeGroupedRankingFunc == nil {
		return rankingResult{}, errUnexpected
	}
	return f.ComputeGroupedRankingFunc(ctx, id, eventID, by)
}

var scorer = caller.Caller{ID: "p-3"}

func serve(svc *FakeService, method, path, body string) *httptest.ResponseRecorder {
	h := NewHandlers(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(caller.WithCaller(req.Context(), scorer)))
		})
	})
	r.Route("/api/tournaments/{id}", h.Register)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestUpsertEventDefinition(t *testing.T) {
	t.Run("path id wins over an empty body id", func(t *testing.T) {
		svc := &FakeService{
			UpsertEventDefinitionFunc: func(_ context.Context, _ caller.Caller, _ tournamenttypes.TournamentID, def tournamenttypes.EventDefinition) (definitionResult, error) {
				assert.Equal(t, tournamenttypes.EventID("longest-drive"), def.ID)
				assert.Equal(t, tournamenttypes.TemplateRangeConvert, def.Template)
				require.Len(t, def.Params.Ranges, 1)
				return results.SuccessResult[scoringservice.DefinitionResult, error](scoringservice.DefinitionResult{Definition: def, Created: true, Version: 2}), nil
			},
		}
		rec := serve(svc, http.MethodPut, "/api/tournaments/t-1/events/longest-drive",
			`{"title":"Longest drive","target":"person","template":"range-convert","params":{"ranges":[{"min":250,"score":5}]},"rankOrder":"desc","inputMode":"refresh","enabled":true}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		var got scoringservice.DefinitionResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.True(t, got.Created)
	})

	t.Run("mismatched body id", func(t *testing.T) {
		svc := &FakeService{}
		rec := serve(svc, http.MethodPut, "/api/tournaments/t-1/events/longest-drive", `{"id":"closest-pin"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, svc.trace)
	})
}

func TestSubmitInput(t *testing.T) {
	svc := &FakeService{
		SubmitInputFunc: func(_ context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID, req scoringservice.InputRequest) (inputResult, error) {
			assert.Equal(t, scorer, c)
			assert.Equal(t, tournamenttypes.EventID("putts"), eventID)
			assert.Equal(t, "room-1-A", req.TargetKey)
			require.NotNil(t, req.Slot)
			assert.Equal(t, 1, *req.Slot)
			assert.Equal(t, "ace", req.Bonus)
			return results.FailureResult[scoringservice.InputResult, error](tournamenttypes.NewError(tournamenttypes.CodePermissionDenied, "caller is not a member of %s", req.TargetKey)), nil
		},
	}
	rec := serve(svc, http.MethodPost, "/api/tournaments/t-1/events/putts/inputs", `{"targetKey":"room-1-A","slot":1,"value":3,"bonus":"ace"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, []string{"SubmitInput"}, svc.trace)
}

func TestResetInputsRoutes(t *testing.T) {
	var seen []tournamenttypes.EventID
	svc := &FakeService{
		ResetInputsFunc: func(_ context.Context, _ caller.Caller, _ tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (resetResult, error) {
			seen = append(seen, eventID)
			return results.SuccessResult[scoringservice.ResetResult, error](scoringservice.ResetResult{Cleared: 2, Version: 5}), nil
		},
	}

	rec := serve(svc, http.MethodDelete, "/api/tournaments/t-1/events/drive/inputs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cleared":2,"version":5}`, rec.Body.String())

	rec = serve(svc, http.MethodDelete, "/api/tournaments/t-1/inputs", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []tournamenttypes.EventID{"drive", ""}, seen)
}

func TestRanking(t *testing.T) {
	rows := []scoring.Ranked{
		{Key: "room-2", Label: "Room 2", Value: 450, Rank: 1},
		{Key: "room-1", Label: "Room 1", Value: 240, Rank: 2},
	}

	tests := []struct {
		name       string
		query      string
		wantTrace  []string
		wantStatus int
	}{
		{name: "plain", wantTrace: []string{"ComputeRanking"}, wantStatus: http.StatusOK},
		{name: "grouped", query: "?by=room", wantTrace: []string{"ComputeGroupedRanking"}, wantStatus: http.StatusOK},
		{name: "bad grouping", query: "?by=planet", wantTrace: []string{"ComputeGroupedRanking"}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeService{
				ComputeRankingFunc: func(context.Context, tournamenttypes.TournamentID, tournamenttypes.EventID) (rankingResult, error) {
					return results.SuccessResult[[]scoring.Ranked, error](rows), nil
				},
				ComputeGroupedRankingFunc: func(_ context.Context, _ tournamenttypes.TournamentID, _ tournamenttypes.EventID, by string) (rankingResult, error) {
					if by != "room" {
						return results.FailureResult[[]scoring.Ranked, error](tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "unknown grouping %q", by)), nil
					}
					return results.SuccessResult[[]scoring.Ranked, error](rows), nil
				},
			}
			rec := serve(svc, http.MethodGet, "/api/tournaments/t-1/events/drive/ranking"+tt.query, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantTrace, svc.trace)
			if tt.wantStatus == http.StatusOK {
				var got []scoring.Ranked
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, rows, got)
			}
		})
	}
}
