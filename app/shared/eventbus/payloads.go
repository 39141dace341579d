package eventbus

import tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"

// AssignmentPayload is published after a participant is seated.
type AssignmentPayload struct {
	TournamentID  tournamenttypes.TournamentID   `json:"tournament_id"`
	ParticipantID tournamenttypes.ParticipantID  `json:"participant_id"`
	Room          int                            `json:"room"`
	PartnerID     *tournamenttypes.ParticipantID `json:"partner_id,omitempty"`
	Degraded      bool                           `json:"degraded,omitempty"`
	Version       int64                          `json:"version"`
}

// MovedPayload is published after a move, trade or pair move.
type MovedPayload struct {
	TournamentID tournamenttypes.TournamentID    `json:"tournament_id"`
	Kind         string                          `json:"kind"`
	Moved        []tournamenttypes.ParticipantID `json:"moved"`
	TargetRoom   int                             `json:"target_room"`
	Version      int64                           `json:"version"`
}

// RosterPayload is published after administrative roster changes.
type RosterPayload struct {
	TournamentID tournamenttypes.TournamentID `json:"tournament_id"`
	Action       string                       `json:"action"`
	Count        int                          `json:"count,omitempty"`
	Version      int64                        `json:"version"`
}

// InputsPayload is published after score entry or an input reset.
type InputsPayload struct {
	TournamentID tournamenttypes.TournamentID `json:"tournament_id"`
	EventID      tournamenttypes.EventID      `json:"event_id,omitempty"`
	TargetKey    string                       `json:"target_key,omitempty"`
	Reset        bool                         `json:"reset,omitempty"`
	Version      int64                        `json:"version"`
}

// DefinitionsPayload is published when an event definition changes.
type DefinitionsPayload struct {
	TournamentID tournamenttypes.TournamentID `json:"tournament_id"`
	EventID      tournamenttypes.EventID      `json:"event_id"`
	Deleted      bool                         `json:"deleted,omitempty"`
	Version      int64                        `json:"version"`
}
