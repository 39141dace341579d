package tournamentservice

import (
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/google/uuid"
)

// CreateRequest describes a new tournament. Missing room names default to
// "Room N".
type CreateRequest struct {
	ID        tournamenttypes.TournamentID `json:"id,omitempty"`
	Name      string                       `json:"name"`
	Mode      tournamenttypes.Mode         `json:"mode"`
	RoomCount int                          `json:"roomCount"`
	RoomNames []string                     `json:"roomNames,omitempty"`
}

// NewParticipant is one roster entry to add. An empty ID is generated.
type NewParticipant struct {
	ID       tournamenttypes.ParticipantID `json:"id,omitempty"`
	Group    int                           `json:"group"`
	Nickname string                        `json:"nickname"`
	Handicap float64                       `json:"handicap"`
}

// ParticipantPatch holds the editable participant fields. Nil fields are
// left unchanged.
type ParticipantPatch struct {
	Nickname *string  `json:"nickname,omitempty"`
	Handicap *float64 `json:"handicap,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

// RosterResult summarises an administrative roster change.
type RosterResult struct {
	Count   int                             `json:"count"`
	IDs     []tournamenttypes.ParticipantID `json:"ids,omitempty"`
	Version int64                           `json:"version"`
}

func newUUID() string {
	return uuid.NewString()
}
