package tournamenttypes

import (
	"strconv"
	"time"
)

// RoomCapacity is the number of seats in every room.
const RoomCapacity = 4

// MaxRoomCount bounds the number of rooms a tournament may declare.
const MaxRoomCount = 200

type (
	TournamentID  string
	ParticipantID string
	EventID       string
)

// Mode is the tournament format.
type Mode string

const (
	ModeStroke   Mode = "stroke"
	ModeFourball Mode = "fourball"
)

// Valid reports whether m is a known format.
func (m Mode) Valid() bool {
	return m == ModeStroke || m == ModeFourball
}

// Role is the pairing role derived from a participant's group.
type Role string

const (
	RoleG1   Role = "g1"
	RoleG2   Role = "g2"
	RoleSolo Role = "solo"
)

// ParseRole validates a role received from a caller.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleG1, RoleG2, RoleSolo:
		return Role(s), true
	}
	return "", false
}

// Opposite returns the complementary fourball role. Solo has none.
func (r Role) Opposite() Role {
	switch r {
	case RoleG1:
		return RoleG2
	case RoleG2:
		return RoleG1
	}
	return ""
}

// Participant is a single entrant. Room and Partner are nil until assigned.
type Participant struct {
	ID       ParticipantID  `json:"id"`
	Group    int            `json:"group"`
	Nickname string         `json:"nickname"`
	Handicap float64        `json:"handicap"`
	Room     *int           `json:"room,omitempty"`
	Partner  *ParticipantID `json:"partner,omitempty"`
	Score    *float64       `json:"score,omitempty"`
}

// RoleIn derives the participant's role for the given format:
// odd groups are g1 and even groups are g2 in fourball.
func (p Participant) RoleIn(mode Mode) Role {
	if mode != ModeFourball {
		return RoleSolo
	}
	if p.Group%2 != 0 {
		return RoleG1
	}
	return RoleG2
}

// Assigned reports whether the participant occupies a room.
func (p Participant) Assigned() bool {
	return p.Room != nil
}

// RoomNumber returns the assigned room or 0.
func (p Participant) RoomNumber() int {
	if p.Room == nil {
		return 0
	}
	return *p.Room
}

// PartnerID returns the partner id or "".
func (p Participant) PartnerID() ParticipantID {
	if p.Partner == nil {
		return ""
	}
	return *p.Partner
}

// Tournament is the single roster document every operation reads and commits.
type Tournament struct {
	ID               TournamentID            `json:"id"`
	Name             string                  `json:"name"`
	Mode             Mode                    `json:"mode"`
	RoomCount        int                     `json:"roomCount"`
	RoomNames        []string                `json:"roomNames"`
	Participants     []Participant           `json:"participants"`
	RoomIndex        map[int][]ParticipantID `json:"roomIndex"`
	EventDefinitions []EventDefinition       `json:"eventDefinitions"`
	Inputs           map[EventID]InputBucket `json:"inputs"`
	Version          int64                   `json:"version"`
	CreatedAt        time.Time               `json:"createdAt"`
	UpdatedAt        time.Time               `json:"updatedAt"`
}

// IndexOf returns the position of a participant in the roster, or -1.
func (t *Tournament) IndexOf(id ParticipantID) int {
	for i := range t.Participants {
		if t.Participants[i].ID == id {
			return i
		}
	}
	return -1
}

// Participant returns a pointer into the roster for id, or nil.
func (t *Tournament) Participant(id ParticipantID) *Participant {
	if i := t.IndexOf(id); i >= 0 {
		return &t.Participants[i]
	}
	return nil
}

// Occupants returns the participants seated in room, in roster order.
func (t *Tournament) Occupants(room int) []*Participant {
	var out []*Participant
	for i := range t.Participants {
		if t.Participants[i].RoomNumber() == room {
			out = append(out, &t.Participants[i])
		}
	}
	return out
}

// Occupancy returns the seat count for every room 1..RoomCount.
func (t *Tournament) Occupancy() map[int]int {
	occ := make(map[int]int, t.RoomCount)
	for r := 1; r <= t.RoomCount; r++ {
		occ[r] = 0
	}
	for _, p := range t.Participants {
		if p.Room != nil {
			occ[*p.Room]++
		}
	}
	return occ
}

// ValidRoom reports whether room is within 1..RoomCount.
func (t *Tournament) ValidRoom(room int) bool {
	return room >= 1 && room <= t.RoomCount
}

// RoomName returns the display name of a room.
func (t *Tournament) RoomName(room int) string {
	if room >= 1 && room <= len(t.RoomNames) && t.RoomNames[room-1] != "" {
		return t.RoomNames[room-1]
	}
	return DefaultRoomName(room)
}

// DefaultRoomName is the name used for rooms without an explicit one.
func DefaultRoomName(room int) string {
	return "Room " + strconv.Itoa(room)
}

// Event returns the event definition for id, or nil.
func (t *Tournament) Event(id EventID) *EventDefinition {
	for i := range t.EventDefinitions {
		if t.EventDefinitions[i].ID == id {
			return &t.EventDefinitions[i]
		}
	}
	return nil
}

// AddToIndex appends id to a room's occupancy index.
func (t *Tournament) AddToIndex(room int, id ParticipantID) {
	if t.RoomIndex == nil {
		t.RoomIndex = make(map[int][]ParticipantID)
	}
	t.RoomIndex[room] = append(t.RoomIndex[room], id)
}

// RemoveFromIndex drops id from a room's occupancy index.
func (t *Tournament) RemoveFromIndex(room int, id ParticipantID) {
	ids := t.RoomIndex[room]
	for i, existing := range ids {
		if existing == id {
			ids = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(t.RoomIndex, room)
		return
	}
	t.RoomIndex[room] = ids
}

// IntPtr and IDPtr are small helpers for optional fields.
func IntPtr(v int) *int { return &v }

func IDPtr(v ParticipantID) *ParticipantID { return &v }

func FloatPtr(v float64) *float64 { return &v }
