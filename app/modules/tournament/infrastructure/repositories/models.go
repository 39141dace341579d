package tournamentdb

import (
	"context"
	"time"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/uptrace/bun"
)

// Tournament is the bun row backing one roster document. The roster,
// definitions and inputs are stored as JSONB so a commit is a single-row write.
type Tournament struct {
	bun.BaseModel `bun:"table:tournaments,alias:t"`

	ID               string                                                  `bun:"id,pk"`
	Name             string                                                  `bun:"name,notnull"`
	Mode             string                                                  `bun:"mode,notnull"`
	RoomCount        int                                                     `bun:"room_count,notnull"`
	RoomNames        []string                                                `bun:"room_names,type:jsonb,notnull"`
	Participants     []tournamenttypes.Participant                           `bun:"participants,type:jsonb,notnull"`
	RoomIndex        map[int][]tournamenttypes.ParticipantID                 `bun:"room_index,type:jsonb,notnull"`
	EventDefinitions []tournamenttypes.EventDefinition                       `bun:"event_definitions,type:jsonb,notnull"`
	Inputs           map[tournamenttypes.EventID]tournamenttypes.InputBucket `bun:"inputs,type:jsonb,notnull"`
	Version          int64                                                   `bun:"version,notnull"`
	CreatedAt        time.Time                                               `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time                                               `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

var _ bun.BeforeAppendModelHook = (*Tournament)(nil)

// BeforeAppendModel keeps JSONB columns non-null.
func (t *Tournament) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if t.RoomNames == nil {
		t.RoomNames = []string{}
	}
	if t.Participants == nil {
		t.Participants = []tournamenttypes.Participant{}
	}
	if t.RoomIndex == nil {
		t.RoomIndex = map[int][]tournamenttypes.ParticipantID{}
	}
	if t.EventDefinitions == nil {
		t.EventDefinitions = []tournamenttypes.EventDefinition{}
	}
	if t.Inputs == nil {
		t.Inputs = map[tournamenttypes.EventID]tournamenttypes.InputBucket{}
	}
	return nil
}

func toRow(t *tournamenttypes.Tournament) *Tournament {
	return &Tournament{
		ID:               string(t.ID),
		Name:             t.Name,
		Mode:             string(t.Mode),
		RoomCount:        t.RoomCount,
		RoomNames:        t.RoomNames,
		Participants:     t.Participants,
		RoomIndex:        t.RoomIndex,
		EventDefinitions: t.EventDefinitions,
		Inputs:           t.Inputs,
		Version:          t.Version,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func (t *Tournament) toDomain() *tournamenttypes.Tournament {
	return &tournamenttypes.Tournament{
		ID:               tournamenttypes.TournamentID(t.ID),
		Name:             t.Name,
		Mode:             tournamenttypes.Mode(t.Mode),
		RoomCount:        t.RoomCount,
		RoomNames:        t.RoomNames,
		Participants:     t.Participants,
		RoomIndex:        t.RoomIndex,
		EventDefinitions: t.EventDefinitions,
		Inputs:           t.Inputs,
		Version:          t.Version,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}
