package scoringservice

import tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"

// DefinitionResult is returned after an event definition changes.
type DefinitionResult struct {
	Definition tournamenttypes.EventDefinition `json:"definition"`
	Created    bool                            `json:"created,omitempty"`
	Deleted    bool                            `json:"deleted,omitempty"`
	Version    int64                           `json:"version"`
}

// InputRequest is one score entry. Slot addresses an attempt of an
// accumulate event and must be nil for refresh events. A nil Value clears.
type InputRequest struct {
	TargetKey string   `json:"targetKey"`
	Slot      *int     `json:"slot,omitempty"`
	Value     *float64 `json:"value"`
	Bonus     string   `json:"bonus,omitempty"`
}

// InputResult echoes the stored entry.
type InputResult struct {
	EventID   tournamenttypes.EventID    `json:"eventId"`
	TargetKey string                     `json:"targetKey"`
	Entry     tournamenttypes.InputEntry `json:"entry"`
	Version   int64                      `json:"version"`
}

// ResetResult reports how many entries were cleared.
type ResetResult struct {
	Cleared int   `json:"cleared"`
	Version int64 `json:"version"`
}
