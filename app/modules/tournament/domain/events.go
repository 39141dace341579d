package tournamenttypes

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Target is the level a scoring event is entered and ranked at.
type Target string

const (
	TargetPerson Target = "person"
	TargetRoom   Target = "room"
	TargetTeam   Target = "team"
)

// Template selects how a raw value is converted into points.
type Template string

const (
	TemplateRawNumber         Template = "raw-number"
	TemplateNumberConvert     Template = "number-convert"
	TemplateRangeConvert      Template = "range-convert"
	TemplateRangeConvertBonus Template = "range-convert-bonus"
)

type RankOrder string

const (
	RankAsc  RankOrder = "asc"
	RankDesc RankOrder = "desc"
)

type InputMode string

const (
	InputRefresh    InputMode = "refresh"
	InputAccumulate InputMode = "accumulate"
)

// AggregatorKind names a reducer over a list of point values.
type AggregatorKind string

const (
	AggregateSum   AggregatorKind = "sum"
	AggregateAvg   AggregatorKind = "avg"
	AggregateBest  AggregatorKind = "best"
	AggregateCount AggregatorKind = "count"
)

const (
	MinAttempts = 2
	MaxAttempts = 20
)

// Range is one row of a bucketed lookup table. A nil bound is open.
type Range struct {
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Score float64  `json:"score"`
}

// Bonus maps a per-slot label to an additional amount.
type Bonus struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// TemplateParams holds the template-specific configuration. Only the fields
// relevant to the chosen template are consulted.
type TemplateParams struct {
	Factor  float64 `json:"factor,omitempty"`
	Ranges  []Range `json:"ranges,omitempty"`
	Bonuses []Bonus `json:"bonuses,omitempty"`
}

// EventDefinition is an administrator-configured scoring rule.
type EventDefinition struct {
	ID              EventID        `json:"id"`
	Title           string         `json:"title"`
	Target          Target         `json:"target"`
	Template        Template       `json:"template"`
	Params          TemplateParams `json:"params"`
	RankOrder       RankOrder      `json:"rankOrder"`
	InputMode       InputMode      `json:"inputMode"`
	Attempts        int            `json:"attempts"`
	Enabled         bool           `json:"enabled"`
	SlotAggregator  AggregatorKind `json:"slotAggregator,omitempty"`
	GroupAggregator AggregatorKind `json:"groupAggregator,omitempty"`
}

// Slot is one accumulated attempt.
type Slot struct {
	Value *float64 `json:"value,omitempty"`
	Bonus string   `json:"bonus,omitempty"`
}

// InputEntry is the raw input stored for one target. Refresh events use
// Value and Bonus; accumulate events use Slots.
type InputEntry struct {
	Value *float64 `json:"value,omitempty"`
	Bonus string   `json:"bonus,omitempty"`
	Slots []Slot   `json:"slots,omitempty"`
}

// InputBucket maps a target key to its raw input.
type InputBucket map[string]InputEntry

// Validate checks the definition's shape. It returns an invalid_argument error.
func (d EventDefinition) Validate() error {
	if strings.TrimSpace(string(d.ID)) == "" {
		return NewError(CodeInvalidArgument, "event id is required")
	}
	switch d.Target {
	case TargetPerson, TargetRoom, TargetTeam:
	default:
		return NewError(CodeInvalidArgument, "unknown target %q", d.Target)
	}
	switch d.RankOrder {
	case RankAsc, RankDesc:
	default:
		return NewError(CodeInvalidArgument, "unknown rank order %q", d.RankOrder)
	}
	switch d.InputMode {
	case InputRefresh:
	case InputAccumulate:
		if d.Attempts < MinAttempts || d.Attempts > MaxAttempts {
			return NewError(CodeInvalidArgument, "attempts must be between %d and %d", MinAttempts, MaxAttempts)
		}
	default:
		return NewError(CodeInvalidArgument, "unknown input mode %q", d.InputMode)
	}
	for _, k := range []AggregatorKind{d.SlotAggregator, d.GroupAggregator} {
		if k != "" && !k.Valid() {
			return NewError(CodeInvalidArgument, "unknown aggregator %q", k)
		}
	}
	switch d.Template {
	case TemplateRawNumber:
	case TemplateNumberConvert:
		if d.Params.Factor == 0 {
			return NewError(CodeInvalidArgument, "number-convert requires a non-zero factor")
		}
	case TemplateRangeConvert, TemplateRangeConvertBonus:
		if len(d.Params.Ranges) == 0 {
			return NewError(CodeInvalidArgument, "%s requires at least one range", d.Template)
		}
		for i, r := range d.Params.Ranges {
			if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
				return NewError(CodeInvalidArgument, "range %d has min greater than max", i)
			}
		}
	default:
		return NewError(CodeInvalidArgument, "unknown template %q", d.Template)
	}
	return nil
}

// Valid reports whether k is a known reducer.
func (k AggregatorKind) Valid() bool {
	switch k {
	case AggregateSum, AggregateAvg, AggregateBest, AggregateCount:
		return true
	}
	return false
}

// Team sides within a room.
const (
	TeamA = "A"
	TeamB = "B"
)

// TeamKey builds the input key of a fourball team.
func TeamKey(room int, side string) string {
	return fmt.Sprintf("%d-%s", room, side)
}

// ParseTeamKey splits a team key into its room and side.
func ParseTeamKey(key string) (int, string, bool) {
	room, side, ok := strings.Cut(key, "-")
	if !ok || (side != TeamA && side != TeamB) {
		return 0, "", false
	}
	n, err := strconv.Atoi(room)
	if err != nil || n < 1 {
		return 0, "", false
	}
	return n, side, true
}

// RoomKey builds the input key of a room target.
func RoomKey(room int) string {
	return strconv.Itoa(room)
}

// Team is a pair of partners seated together.
type Team struct {
	Key     string
	Room    int
	Side    string
	Members []ParticipantID
}

// Teams lists the teams of a room in roster order: the first g1 (with its
// partner) is side A and the second is side B.
func (t *Tournament) Teams(room int) []Team {
	var teams []Team
	for _, p := range t.Occupants(room) {
		if p.RoleIn(t.Mode) != RoleG1 {
			continue
		}
		if len(teams) == 2 {
			break
		}
		side := TeamA
		if len(teams) == 1 {
			side = TeamB
		}
		members := []ParticipantID{p.ID}
		if p.Partner != nil {
			members = append(members, *p.Partner)
		}
		teams = append(teams, Team{Key: TeamKey(room, side), Room: room, Side: side, Members: members})
	}
	return teams
}

// TeamOf returns the team containing id, if any.
func (t *Tournament) TeamOf(id ParticipantID) (Team, bool) {
	p := t.Participant(id)
	if p == nil || p.Room == nil {
		return Team{}, false
	}
	for _, team := range t.Teams(*p.Room) {
		for _, m := range team.Members {
			if m == id {
				return team, true
			}
		}
	}
	return Team{}, false
}

// teamRosters maps every team key of t to its sorted member list.
func (t *Tournament) teamRosters() map[string]string {
	out := make(map[string]string)
	for room := 1; room <= t.RoomCount; room++ {
		for _, team := range t.Teams(room) {
			ids := make([]string, len(team.Members))
			for i, m := range team.Members {
				ids[i] = string(m)
			}
			slices.Sort(ids)
			out[team.Key] = strings.Join(ids, ",")
		}
	}
	return out
}

// DropStaleTeamInputs deletes the team-target inputs of after whose key no
// longer names the same members it did in before. Team keys are positional,
// so any reseating can hand a key to a different pair. It returns how many
// entries were removed.
func DropStaleTeamInputs(before, after *Tournament) int {
	var events []EventID
	for _, def := range after.EventDefinitions {
		if def.Target == TargetTeam && len(after.Inputs[def.ID]) > 0 {
			events = append(events, def.ID)
		}
	}
	if len(events) == 0 {
		return 0
	}

	was, now := before.teamRosters(), after.teamRosters()
	dropped := 0
	for _, ev := range events {
		bucket := after.Inputs[ev]
		for key := range bucket {
			if was[key] != now[key] {
				delete(bucket, key)
				dropped++
			}
		}
	}
	return dropped
}
