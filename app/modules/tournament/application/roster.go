package tournamentservice

import (
	"context"
	"math"
	"strings"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
)

// AddParticipants appends entrants to the roster. The whole batch is
// rejected if any id is taken or repeated.
func (s *TournamentService) AddParticipants(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, add []NewParticipant) (results.OperationResult[RosterResult, error], error) {
	return s.withTelemetry(ctx, "AddParticipants", string(id), func(ctx context.Context) (results.OperationResult[RosterResult, error], error) {
		if len(add) == 0 {
			return fail[RosterResult](tournamenttypes.CodeInvalidArgument, "no participants given"), nil
		}

		batch := make([]tournamenttypes.Participant, 0, len(add))
		for i, np := range add {
			if np.Group < 1 {
				return fail[RosterResult](tournamenttypes.CodeInvalidArgument, "participant %d: group must be positive", i), nil
			}
			if math.IsNaN(np.Handicap) || math.IsInf(np.Handicap, 0) {
				return fail[RosterResult](tournamenttypes.CodeInvalidArgument, "participant %d: handicap must be finite", i), nil
			}
			pid := tournamenttypes.ParticipantID(strings.TrimSpace(string(np.ID)))
			if pid == "" {
				pid = tournamenttypes.ParticipantID(s.newID())
			}
			batch = append(batch, tournamenttypes.Participant{
				ID:       pid,
				Group:    np.Group,
				Nickname: strings.TrimSpace(np.Nickname),
				Handicap: np.Handicap,
			})
		}

		return s.mutateRoster(ctx, c, "AddParticipants", "add_participants", id, func(t *tournamenttypes.Tournament) (RosterResult, error) {
			res := RosterResult{}
			seen := make(map[tournamenttypes.ParticipantID]bool, len(batch))
			for _, p := range batch {
				if seen[p.ID] || t.Participant(p.ID) != nil {
					return RosterResult{}, tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "duplicate participant id %s", p.ID)
				}
				seen[p.ID] = true
				t.Participants = append(t.Participants, p)
				res.IDs = append(res.IDs, p.ID)
			}
			res.Count = len(batch)
			return res, nil
		})
	})
}

// RemoveParticipant drops an entrant, releasing their seat and partner and
// discarding their person-level score entries.
func (s *TournamentService) RemoveParticipant(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, participantID tournamenttypes.ParticipantID) (results.OperationResult[RosterResult, error], error) {
	return s.withTelemetry(ctx, "RemoveParticipant", string(participantID), func(ctx context.Context) (results.OperationResult[RosterResult, error], error) {
		return s.mutateRoster(ctx, c, "RemoveParticipant", "remove_participant", id, func(t *tournamenttypes.Tournament) (RosterResult, error) {
			idx := t.IndexOf(participantID)
			if idx < 0 {
				return RosterResult{}, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "participant %s not found", participantID)
			}
			p := t.Participants[idx]
			if p.Partner != nil {
				if q := t.Participant(*p.Partner); q != nil {
					q.Partner = nil
				}
			}
			if p.Room != nil {
				t.RemoveFromIndex(*p.Room, p.ID)
			}
			t.Participants = append(t.Participants[:idx:idx], t.Participants[idx+1:]...)

			for _, def := range t.EventDefinitions {
				if def.Target == tournamenttypes.TargetPerson {
					delete(t.Inputs[def.ID], string(participantID))
				}
			}
			return RosterResult{Count: 1, IDs: []tournamenttypes.ParticipantID{participantID}}, nil
		})
	})
}

// UpdateParticipant edits the descriptive fields of an entrant. Group is not
// editable because it decides seating.
func (s *TournamentService) UpdateParticipant(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, participantID tournamenttypes.ParticipantID, patch ParticipantPatch) (results.OperationResult[RosterResult, error], error) {
	return s.withTelemetry(ctx, "UpdateParticipant", string(participantID), func(ctx context.Context) (results.OperationResult[RosterResult, error], error) {
		for _, v := range []*float64{patch.Handicap, patch.Score} {
			if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
				return fail[RosterResult](tournamenttypes.CodeInvalidArgument, "numeric fields must be finite"), nil
			}
		}

		return s.mutateRoster(ctx, c, "UpdateParticipant", "update_participant", id, func(t *tournamenttypes.Tournament) (RosterResult, error) {
			p := t.Participant(participantID)
			if p == nil {
				return RosterResult{}, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "participant %s not found", participantID)
			}
			before := *p
			if patch.Nickname != nil {
				p.Nickname = strings.TrimSpace(*patch.Nickname)
			}
			if patch.Handicap != nil {
				p.Handicap = *patch.Handicap
			}
			if patch.Score != nil {
				p.Score = tournamenttypes.FloatPtr(*patch.Score)
			}
			if p.Nickname == before.Nickname && p.Handicap == before.Handicap && sameScore(p.Score, before.Score) {
				return RosterResult{}, tournamentdb.ErrNoChange
			}
			return RosterResult{Count: 1, IDs: []tournamenttypes.ParticipantID{participantID}}, nil
		})
	})
}

func sameScore(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ResetAssignments unseats everyone and clears every partner link.
func (s *TournamentService) ResetAssignments(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID) (results.OperationResult[RosterResult, error], error) {
	return s.withTelemetry(ctx, "ResetAssignments", string(id), func(ctx context.Context) (results.OperationResult[RosterResult, error], error) {
		return s.mutateRoster(ctx, c, "ResetAssignments", "reset_assignments", id, func(t *tournamenttypes.Tournament) (RosterResult, error) {
			cleared := 0
			for i := range t.Participants {
				p := &t.Participants[i]
				if p.Room == nil && p.Partner == nil {
					continue
				}
				p.Room = nil
				p.Partner = nil
				cleared++
			}
			if cleared == 0 {
				return RosterResult{}, tournamentdb.ErrNoChange
			}
			t.RoomIndex = make(map[int][]tournamenttypes.ParticipantID)
			return RosterResult{Count: cleared}, nil
		})
	})
}

// RenameRooms replaces the room display names. Blank names fall back to
// "Room N".
func (s *TournamentService) RenameRooms(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, names []string) (results.OperationResult[RosterResult, error], error) {
	return s.withTelemetry(ctx, "RenameRooms", string(id), func(ctx context.Context) (results.OperationResult[RosterResult, error], error) {
		return s.mutateRoster(ctx, c, "RenameRooms", "rename_rooms", id, func(t *tournamenttypes.Tournament) (RosterResult, error) {
			if len(names) > t.RoomCount {
				return RosterResult{}, tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "%d room names given for %d rooms", len(names), t.RoomCount)
			}
			t.RoomNames = roomNames(names, t.RoomCount)
			return RosterResult{Count: t.RoomCount}, nil
		})
	})
}
