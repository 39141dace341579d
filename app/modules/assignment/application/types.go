package assignmentservice

import tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"

// AssignResult describes where a participant ended up. For a g2 participant
// in fourball the call is a query: Query is set and nothing was written.
type AssignResult struct {
	ParticipantID tournamenttypes.ParticipantID  `json:"participantId"`
	Room          int                            `json:"room,omitempty"`
	PartnerID     *tournamenttypes.ParticipantID `json:"partnerId,omitempty"`
	Degraded      bool                           `json:"degraded,omitempty"`
	Query         bool                           `json:"query,omitempty"`
	Version       int64                          `json:"version"`
}

// Move kinds.
const (
	MoveKindNone = "none"
	MoveKindMove = "move"
	MoveKindSwap = "swap"
	MoveKindPair = "pair"
)

// MoveResult describes a committed move, trade or pair move.
type MoveResult struct {
	Kind       string                          `json:"kind"`
	Moved      []tournamenttypes.ParticipantID `json:"moved"`
	TargetRoom int                             `json:"targetRoom"`
	Version    int64                           `json:"version"`
}

// AssignOutcome is the per-participant outcome of AssignAll.
type AssignOutcome struct {
	ParticipantID tournamenttypes.ParticipantID  `json:"participantId"`
	Room          int                            `json:"room,omitempty"`
	PartnerID     *tournamenttypes.ParticipantID `json:"partnerId,omitempty"`
	Degraded      bool                           `json:"degraded,omitempty"`
	Code          tournamenttypes.ErrorCode      `json:"code,omitempty"`
}

// AssignAllResult aggregates a bulk run.
type AssignAllResult struct {
	Assigned int             `json:"assigned"`
	Failed   int             `json:"failed"`
	Outcomes []AssignOutcome `json:"outcomes"`
}
