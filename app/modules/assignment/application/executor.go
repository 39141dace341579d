package assignmentservice

import (
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
)

// Apply seats a participant (and optionally a partner) in room on snapshot t.
// Capacity is checked here, against the snapshot being committed, not only
// when candidates were computed.
func Apply(t *tournamenttypes.Tournament, id tournamenttypes.ParticipantID, room int, partnerID *tournamenttypes.ParticipantID) error {
	if !t.ValidRoom(room) {
		return tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "room %d outside 1..%d", room, t.RoomCount)
	}
	p := t.Participant(id)
	if p == nil {
		return tournamenttypes.NewError(tournamenttypes.CodeNotFound, "participant %s not found", id)
	}
	if p.Assigned() {
		return tournamenttypes.NewError(tournamenttypes.CodeAlreadyAssigned, "participant %s already in room %d", id, *p.Room)
	}

	seats := 1
	var q *tournamenttypes.Participant
	if partnerID != nil {
		if *partnerID == id {
			return tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "participant cannot partner with itself")
		}
		q = t.Participant(*partnerID)
		if q == nil {
			return tournamenttypes.NewError(tournamenttypes.CodeNotFound, "partner %s not found", *partnerID)
		}
		if q.Assigned() || q.Partner != nil {
			return tournamenttypes.NewError(tournamenttypes.CodeFailedPrecondition, "partner %s is no longer free", q.ID)
		}
		seats = 2
	}

	if occupied := len(t.Occupants(room)); occupied+seats > tournamenttypes.RoomCapacity {
		return tournamenttypes.NewError(tournamenttypes.CodeRoomFull, "room %d has %d of %d seats taken", room, occupied, tournamenttypes.RoomCapacity)
	}

	p.Room = tournamenttypes.IntPtr(room)
	t.AddToIndex(room, p.ID)
	if q != nil {
		q.Room = tournamenttypes.IntPtr(room)
		t.AddToIndex(room, q.ID)
		p.Partner = tournamenttypes.IDPtr(q.ID)
		q.Partner = tournamenttypes.IDPtr(p.ID)
	}
	return nil
}
