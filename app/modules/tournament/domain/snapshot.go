package tournamenttypes

import (
	"fmt"
	"slices"
)

// Clone returns a deep copy of the tournament. Mutations always operate on a
// clone so a failed attempt leaves the snapshot it read untouched.
func (t *Tournament) Clone() *Tournament {
	if t == nil {
		return nil
	}
	c := *t
	c.RoomNames = slices.Clone(t.RoomNames)

	c.Participants = make([]Participant, len(t.Participants))
	for i, p := range t.Participants {
		c.Participants[i] = p.clone()
	}

	if t.RoomIndex != nil {
		c.RoomIndex = make(map[int][]ParticipantID, len(t.RoomIndex))
		for room, ids := range t.RoomIndex {
			c.RoomIndex[room] = slices.Clone(ids)
		}
	}

	c.EventDefinitions = make([]EventDefinition, len(t.EventDefinitions))
	for i, d := range t.EventDefinitions {
		c.EventDefinitions[i] = d.clone()
	}

	if t.Inputs != nil {
		c.Inputs = make(map[EventID]InputBucket, len(t.Inputs))
		for id, bucket := range t.Inputs {
			c.Inputs[id] = bucket.clone()
		}
	}
	return &c
}

func (p Participant) clone() Participant {
	c := p
	if p.Room != nil {
		c.Room = IntPtr(*p.Room)
	}
	if p.Partner != nil {
		c.Partner = IDPtr(*p.Partner)
	}
	if p.Score != nil {
		c.Score = FloatPtr(*p.Score)
	}
	return c
}

func (d EventDefinition) clone() EventDefinition {
	c := d
	c.Params.Bonuses = slices.Clone(d.Params.Bonuses)
	if d.Params.Ranges != nil {
		c.Params.Ranges = make([]Range, len(d.Params.Ranges))
		for i, r := range d.Params.Ranges {
			c.Params.Ranges[i] = Range{Min: cloneFloat(r.Min), Max: cloneFloat(r.Max), Score: r.Score}
		}
	}
	return c
}

func (b InputBucket) clone() InputBucket {
	if b == nil {
		return nil
	}
	c := make(InputBucket, len(b))
	for key, entry := range b {
		e := InputEntry{Value: cloneFloat(entry.Value), Bonus: entry.Bonus}
		if entry.Slots != nil {
			e.Slots = make([]Slot, len(entry.Slots))
			for i, s := range entry.Slots {
				e.Slots[i] = Slot{Value: cloneFloat(s.Value), Bonus: s.Bonus}
			}
		}
		c[key] = e
	}
	return c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return FloatPtr(*v)
}

// CheckInvariants verifies the roster rules every committed snapshot must
// satisfy: rooms in range, at most RoomCapacity seats per room, symmetric
// partner links between seated partners, and an occupancy index that agrees
// with the participants' room fields.
func CheckInvariants(t *Tournament) error {
	seen := make(map[ParticipantID]bool, len(t.Participants))
	occupancy := make(map[int][]ParticipantID)

	for _, p := range t.Participants {
		if seen[p.ID] {
			return fmt.Errorf("%w: duplicate participant %s", ErrInvariantViolated, p.ID)
		}
		seen[p.ID] = true

		if p.Room != nil {
			if !t.ValidRoom(*p.Room) {
				return fmt.Errorf("%w: participant %s in room %d outside 1..%d", ErrInvariantViolated, p.ID, *p.Room, t.RoomCount)
			}
			occupancy[*p.Room] = append(occupancy[*p.Room], p.ID)
		}

		if p.Partner == nil {
			continue
		}
		q := t.Participant(*p.Partner)
		if q == nil {
			return fmt.Errorf("%w: participant %s partnered with unknown %s", ErrInvariantViolated, p.ID, *p.Partner)
		}
		if q.PartnerID() != p.ID {
			return fmt.Errorf("%w: partner link %s -> %s is not symmetric", ErrInvariantViolated, p.ID, q.ID)
		}
		if p.Room == nil || q.RoomNumber() != *p.Room {
			return fmt.Errorf("%w: partners %s and %s are not seated together", ErrInvariantViolated, p.ID, q.ID)
		}
	}

	for room, ids := range occupancy {
		if len(ids) > RoomCapacity {
			return fmt.Errorf("%w: room %d holds %d participants", ErrInvariantViolated, room, len(ids))
		}
	}

	for room, ids := range t.RoomIndex {
		if len(ids) == 0 {
			continue
		}
		want := occupancy[room]
		if len(ids) != len(want) {
			return fmt.Errorf("%w: room %d index lists %d participants, roster seats %d", ErrInvariantViolated, room, len(ids), len(want))
		}
		for _, id := range ids {
			if !slices.Contains(want, id) {
				return fmt.Errorf("%w: room %d index lists %s who is not seated there", ErrInvariantViolated, room, id)
			}
		}
	}
	for room, ids := range occupancy {
		if len(t.RoomIndex[room]) != len(ids) {
			return fmt.Errorf("%w: room %d missing from occupancy index", ErrInvariantViolated, room)
		}
	}
	return nil
}
