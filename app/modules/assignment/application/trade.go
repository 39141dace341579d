package assignmentservice

import (
	"context"
	"fmt"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
)

// MoveOrTrade relocates one participant into targetRoom. When the target
// already holds someone on the same side the two swap rooms.
func (s *AssignmentService) MoveOrTrade(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, role string, participantID tournamenttypes.ParticipantID, targetRoom int) (results.OperationResult[MoveResult, error], error) {
	identifier := fmt.Sprintf("%s->%d", participantID, targetRoom)
	return withTelemetry(s, ctx, "MoveOrTrade", identifier, func(ctx context.Context) (results.OperationResult[MoveResult, error], error) {
		if err := requirePrivileged(c); err != nil {
			return results.FailureResult[MoveResult, error](err), nil
		}
		r, ok := tournamenttypes.ParseRole(role)
		if !ok {
			return results.FailureResult[MoveResult, error](tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "unknown role %q", role)), nil
		}
		if participantID == "" {
			return results.FailureResult[MoveResult, error](tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "participant id is required")), nil
		}
		if targetRoom < 1 {
			return results.FailureResult[MoveResult, error](tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "room %d must be at least 1", targetRoom)), nil
		}

		result, snapshot, err := runInTx(s, ctx, "MoveOrTrade", id, func(t *tournamenttypes.Tournament) (MoveResult, error) {
			return moveOrTrade(t, r, participantID, targetRoom)
		})
		if err != nil || !result.IsSuccess() {
			return result, err
		}
		s.finishMove(ctx, id, result.Success, snapshot)
		return result, nil
	})
}

// MovePair relocates a g1 participant and its partner together.
func (s *AssignmentService) MovePair(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, group1ID tournamenttypes.ParticipantID, targetRoom int) (results.OperationResult[MoveResult, error], error) {
	identifier := fmt.Sprintf("%s->%d", group1ID, targetRoom)
	return withTelemetry(s, ctx, "MovePair", identifier, func(ctx context.Context) (results.OperationResult[MoveResult, error], error) {
		if err := requirePrivileged(c); err != nil {
			return results.FailureResult[MoveResult, error](err), nil
		}
		if group1ID == "" {
			return results.FailureResult[MoveResult, error](tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "participant id is required")), nil
		}
		if targetRoom < 1 {
			return results.FailureResult[MoveResult, error](tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "room %d must be at least 1", targetRoom)), nil
		}

		result, snapshot, err := runInTx(s, ctx, "MovePair", id, func(t *tournamenttypes.Tournament) (MoveResult, error) {
			return movePair(t, group1ID, targetRoom)
		})
		if err != nil || !result.IsSuccess() {
			return result, err
		}
		s.finishMove(ctx, id, result.Success, snapshot)
		return result, nil
	})
}

func (s *AssignmentService) finishMove(ctx context.Context, id tournamenttypes.TournamentID, res *MoveResult, snapshot *tournamenttypes.Tournament) {
	res.Version = snapshot.Version
	if res.Kind == MoveKindNone {
		return
	}
	s.publish(ctx, eventbus.TopicMoved, eventbus.MovedPayload{
		TournamentID: id,
		Kind:         res.Kind,
		Moved:        res.Moved,
		TargetRoom:   res.TargetRoom,
		Version:      snapshot.Version,
	})
}

// moveOrTrade is the snapshot mutation behind MoveOrTrade. In stroke mode the
// collision key is the group instead of the role.
func moveOrTrade(t *tournamenttypes.Tournament, role tournamenttypes.Role, id tournamenttypes.ParticipantID, targetRoom int) (MoveResult, error) {
	me := t.Participant(id)
	if me == nil {
		return MoveResult{}, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "participant %s not found", id)
	}
	if derived := me.RoleIn(t.Mode); derived != role {
		return MoveResult{}, tournamenttypes.NewError(tournamenttypes.CodeFailedPrecondition, "participant %s has role %s, not %s", id, derived, role)
	}
	if !t.ValidRoom(targetRoom) {
		return MoveResult{}, tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "room %d outside 1..%d", targetRoom, t.RoomCount)
	}
	if me.RoomNumber() == targetRoom {
		return MoveResult{Kind: MoveKindNone, TargetRoom: targetRoom}, tournamentdb.ErrNoChange
	}

	sameSide := func(q *tournamenttypes.Participant) bool {
		if t.Mode == tournamenttypes.ModeFourball {
			return q.RoleIn(t.Mode) == role
		}
		return q.Group == me.Group
	}

	dst := t.Occupants(targetRoom)
	var pick *tournamenttypes.Participant
	for _, q := range dst {
		if sameSide(q) {
			pick = q
			break
		}
	}

	src := me.Room
	if pick == nil {
		if len(dst) >= tournamenttypes.RoomCapacity {
			return MoveResult{}, tournamenttypes.NewError(tournamenttypes.CodeRoomFull, "room %d is full", targetRoom)
		}
		unlink(t, me)
		if src != nil {
			t.RemoveFromIndex(*src, me.ID)
		}
		me.Room = tournamenttypes.IntPtr(targetRoom)
		t.AddToIndex(targetRoom, me.ID)
		if t.Mode == tournamenttypes.ModeFourball {
			linkIn(t, me, targetRoom, nil)
		}
		return MoveResult{Kind: MoveKindMove, Moved: []tournamenttypes.ParticipantID{me.ID}, TargetRoom: targetRoom}, nil
	}

	myOld, pickOld := me.Partner, pick.Partner
	unlink(t, me)
	unlink(t, pick)

	t.RemoveFromIndex(targetRoom, pick.ID)
	if src != nil {
		t.RemoveFromIndex(*src, me.ID)
		pick.Room = tournamenttypes.IntPtr(*src)
		t.AddToIndex(*src, pick.ID)
	} else {
		pick.Room = nil
	}
	me.Room = tournamenttypes.IntPtr(targetRoom)
	t.AddToIndex(targetRoom, me.ID)

	if t.Mode == tournamenttypes.ModeFourball {
		linkIn(t, me, targetRoom, pickOld)
		if src != nil {
			linkIn(t, pick, *src, myOld)
		}
	}
	return MoveResult{Kind: MoveKindSwap, Moved: []tournamenttypes.ParticipantID{me.ID, pick.ID}, TargetRoom: targetRoom}, nil
}

// movePair is the snapshot mutation behind MovePair.
func movePair(t *tournamenttypes.Tournament, group1ID tournamenttypes.ParticipantID, targetRoom int) (MoveResult, error) {
	if t.Mode != tournamenttypes.ModeFourball {
		return MoveResult{}, tournamenttypes.NewError(tournamenttypes.CodeFailedPrecondition, "pair moves need fourball mode")
	}
	me := t.Participant(group1ID)
	if me == nil {
		return MoveResult{}, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "participant %s not found", group1ID)
	}
	if me.RoleIn(t.Mode) != tournamenttypes.RoleG1 {
		return MoveResult{}, tournamenttypes.NewError(tournamenttypes.CodeFailedPrecondition, "participant %s is not group 1", group1ID)
	}
	if !me.Assigned() {
		return MoveResult{}, tournamenttypes.NewError(tournamenttypes.CodeFailedPrecondition, "participant %s has no room", group1ID)
	}
	if !t.ValidRoom(targetRoom) {
		return MoveResult{}, tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "room %d outside 1..%d", targetRoom, t.RoomCount)
	}
	if *me.Room == targetRoom {
		return MoveResult{Kind: MoveKindNone, TargetRoom: targetRoom}, tournamentdb.ErrNoChange
	}

	var partner *tournamenttypes.Participant
	if me.Partner != nil {
		partner = t.Participant(*me.Partner)
	}
	need := 1
	if partner != nil {
		need = 2
	}
	if dst := t.Occupants(targetRoom); len(dst) > tournamenttypes.RoomCapacity-need {
		return MoveResult{}, tournamenttypes.NewError(tournamenttypes.CodeRoomFull, "room %d cannot seat %d more", targetRoom, need)
	}

	moved := []tournamenttypes.ParticipantID{me.ID}
	relocate(t, me, targetRoom)
	if partner != nil {
		relocate(t, partner, targetRoom)
		moved = append(moved, partner.ID)
	}
	return MoveResult{Kind: MoveKindPair, Moved: moved, TargetRoom: targetRoom}, nil
}

func relocate(t *tournamenttypes.Tournament, p *tournamenttypes.Participant, room int) {
	if p.Room != nil {
		t.RemoveFromIndex(*p.Room, p.ID)
	}
	p.Room = tournamenttypes.IntPtr(room)
	t.AddToIndex(room, p.ID)
}

// unlink clears p's partner link on both ends.
func unlink(t *tournamenttypes.Tournament, p *tournamenttypes.Participant) {
	if p.Partner == nil {
		return
	}
	if q := t.Participant(*p.Partner); q != nil && q.Partner != nil && *q.Partner == p.ID {
		q.Partner = nil
	}
	p.Partner = nil
}

// linkIn partners p with a free opposite-role occupant of room, trying prefer
// first. p stays solo when nobody qualifies.
func linkIn(t *tournamenttypes.Tournament, p *tournamenttypes.Participant, room int, prefer *tournamenttypes.ParticipantID) {
	want := p.RoleIn(t.Mode).Opposite()
	eligible := func(q *tournamenttypes.Participant) bool {
		return q != nil && q.ID != p.ID && q.Partner == nil && q.RoomNumber() == room && q.RoleIn(t.Mode) == want
	}

	var match *tournamenttypes.Participant
	if prefer != nil {
		if q := t.Participant(*prefer); eligible(q) {
			match = q
		}
	}
	if match == nil {
		for _, q := range t.Occupants(room) {
			if eligible(q) {
				match = q
				break
			}
		}
	}
	if match == nil {
		return
	}
	p.Partner = tournamenttypes.IDPtr(match.ID)
	match.Partner = tournamenttypes.IDPtr(p.ID)
}
