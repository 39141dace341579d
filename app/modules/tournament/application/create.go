package tournamentservice

import (
	"context"
	"errors"
	"strings"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
)

// CreateTournament stores an empty tournament at version 1.
func (s *TournamentService) CreateTournament(ctx context.Context, c caller.Caller, req CreateRequest) (results.OperationResult[*tournamenttypes.Tournament, error], error) {
	return observability.RunOperation(ctx, s.telemetry, "CreateTournament", req.Name, func(ctx context.Context) (results.OperationResult[*tournamenttypes.Tournament, error], error) {
		if !c.Privileged {
			return fail[*tournamenttypes.Tournament](tournamenttypes.CodePermissionDenied, "caller %q is not privileged", c.ID), nil
		}
		if strings.TrimSpace(req.Name) == "" {
			return fail[*tournamenttypes.Tournament](tournamenttypes.CodeInvalidArgument, "tournament name is required"), nil
		}
		if !req.Mode.Valid() {
			return fail[*tournamenttypes.Tournament](tournamenttypes.CodeInvalidArgument, "unknown mode %q", req.Mode), nil
		}
		if req.RoomCount < 1 || req.RoomCount > tournamenttypes.MaxRoomCount {
			return fail[*tournamenttypes.Tournament](tournamenttypes.CodeInvalidArgument, "room count must be between 1 and %d", tournamenttypes.MaxRoomCount), nil
		}
		if len(req.RoomNames) > req.RoomCount {
			return fail[*tournamenttypes.Tournament](tournamenttypes.CodeInvalidArgument, "%d room names given for %d rooms", len(req.RoomNames), req.RoomCount), nil
		}

		id := req.ID
		if id == "" {
			id = tournamenttypes.TournamentID(s.newID())
		}
		t := &tournamenttypes.Tournament{
			ID:        id,
			Name:      strings.TrimSpace(req.Name),
			Mode:      req.Mode,
			RoomCount: req.RoomCount,
			RoomNames: roomNames(req.RoomNames, req.RoomCount),
			RoomIndex: make(map[int][]tournamenttypes.ParticipantID),
			Inputs:    make(map[tournamenttypes.EventID]tournamenttypes.InputBucket),
		}

		if err := s.store.Create(ctx, t); err != nil {
			if errors.Is(err, tournamentdb.ErrAlreadyExists) {
				return fail[*tournamenttypes.Tournament](tournamenttypes.CodeFailedPrecondition, "tournament %s already exists", id), nil
			}
			return results.OperationResult[*tournamenttypes.Tournament, error]{}, err
		}

		s.publish(ctx, eventbus.TopicRoster, eventbus.RosterPayload{
			TournamentID: id,
			Action:       "create",
			Version:      t.Version,
		})
		return results.SuccessResult[*tournamenttypes.Tournament, error](t), nil
	})
}

// roomNames pads names to n entries, filling blanks with the default name.
func roomNames(names []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		if i < len(names) && strings.TrimSpace(names[i]) != "" {
			out[i] = strings.TrimSpace(names[i])
			continue
		}
		out[i] = tournamenttypes.DefaultRoomName(i + 1)
	}
	return out
}
