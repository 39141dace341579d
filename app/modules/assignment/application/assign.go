package assignmentservice

import (
	"context"
	"math/rand/v2"

	assignmentpolicy "github.com/Black-And-White-Club/tourney-bot/app/modules/assignment/policy"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
)

// Assign seats a participant through the self-service path. Unprivileged
// callers may only assign themselves.
func (s *AssignmentService) Assign(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, participantID tournamenttypes.ParticipantID) (results.OperationResult[AssignResult, error], error) {
	return withTelemetry(s, ctx, "Assign", string(participantID), func(ctx context.Context) (results.OperationResult[AssignResult, error], error) {
		if participantID == "" {
			return results.FailureResult[AssignResult, error](tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "participant id is required")), nil
		}
		if !c.Privileged && c.ID != string(participantID) {
			return results.FailureResult[AssignResult, error](tournamenttypes.NewError(tournamenttypes.CodePermissionDenied, "caller %q may only assign themselves", c.ID)), nil
		}

		result, snapshot, err := runInTx(s, ctx, "Assign", id, s.assignMutation(participantID, s.strategy))
		if err != nil || !result.IsSuccess() {
			return result, err
		}
		result.Success.Version = snapshot.Version
		if !result.Success.Query {
			s.publish(ctx, eventbus.TopicAssignment, eventbus.AssignmentPayload{
				TournamentID:  id,
				ParticipantID: participantID,
				Room:          result.Success.Room,
				PartnerID:     result.Success.PartnerID,
				Degraded:      result.Success.Degraded,
				Version:       snapshot.Version,
			})
		}
		return result, nil
	})
}

// assignMutation computes the assignment for one participant on a fresh
// snapshot. It runs inside the transaction so every retry re-evaluates the
// policy against the latest roster.
func (s *AssignmentService) assignMutation(participantID tournamenttypes.ParticipantID, strategy assignmentpolicy.Strategy) tournamentdb.Mutation[AssignResult] {
	return func(t *tournamenttypes.Tournament) (AssignResult, error) {
		p := t.Participant(participantID)
		if p == nil {
			return AssignResult{}, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "participant %s not found", participantID)
		}

		if t.Mode == tournamenttypes.ModeFourball && p.RoleIn(t.Mode) == tournamenttypes.RoleG2 {
			return AssignResult{
				ParticipantID: p.ID,
				Room:          p.RoomNumber(),
				PartnerID:     p.Partner,
				Query:         true,
			}, tournamentdb.ErrNoChange
		}
		if p.Assigned() {
			return AssignResult{}, tournamenttypes.NewError(tournamenttypes.CodeAlreadyAssigned, "participant %s already in room %d", p.ID, *p.Room)
		}

		var (
			res AssignResult
			err error
		)
		s.withRand(func(rng *rand.Rand) {
			if t.Mode == tournamenttypes.ModeFourball {
				res, err = assignFourball(t, p.ID, strategy, rng)
			} else {
				res, err = assignStroke(t, p.ID, strategy, rng)
			}
		})
		return res, err
	}
}

func assignStroke(t *tournamenttypes.Tournament, id tournamenttypes.ParticipantID, strategy assignmentpolicy.Strategy, rng *rand.Rand) (AssignResult, error) {
	p := t.Participant(id)
	candidates := assignmentpolicy.StrokeCandidates(*p, t.Participants, t.RoomCount)
	room, ok := assignmentpolicy.Select(candidates.Rooms, t.Occupancy(), strategy, rng)
	if !ok {
		return AssignResult{}, tournamenttypes.NewError(tournamenttypes.CodeRoomFull, "every room is full")
	}
	if err := Apply(t, id, room, nil); err != nil {
		return AssignResult{}, err
	}
	return AssignResult{ParticipantID: id, Room: room, Degraded: candidates.Degraded}, nil
}

func assignFourball(t *tournamenttypes.Tournament, id tournamenttypes.ParticipantID, strategy assignmentpolicy.Strategy, rng *rand.Rand) (AssignResult, error) {
	pool := assignmentpolicy.FreeGroup2Pool(t.Participants)
	if len(pool) == 0 {
		return AssignResult{}, tournamenttypes.NewError(tournamenttypes.CodeNoFreeGroup2, "no unpaired group 2 participant is available")
	}

	candidates := assignmentpolicy.FourballCandidates(t.Participants, t.RoomCount)
	room, ok := assignmentpolicy.Select(candidates.Rooms, t.Occupancy(), strategy, rng)
	if !ok {
		return AssignResult{}, tournamenttypes.NewError(tournamenttypes.CodeRoomFull, "no room can take a pair")
	}
	partner, _ := assignmentpolicy.PickPartner(pool, rng)

	if err := Apply(t, id, room, &partner); err != nil {
		return AssignResult{}, err
	}
	return AssignResult{
		ParticipantID: id,
		Room:          room,
		PartnerID:     tournamenttypes.IDPtr(partner),
		Degraded:      candidates.Degraded,
	}, nil
}
