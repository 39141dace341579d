// Package scoring converts raw score entries into points and ranks them.
// Everything here is a pure function of a tournament snapshot.
package scoring

import (
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
)

// GroupBy selects the second-level fold of a grouped ranking.
type GroupBy string

const (
	GroupByRoom GroupBy = "room"
	GroupByTeam GroupBy = "team"
)

// ParseGroupBy validates a grouping received from a caller.
func ParseGroupBy(s string) (GroupBy, bool) {
	switch GroupBy(s) {
	case GroupByRoom, GroupByTeam:
		return GroupBy(s), true
	}
	return "", false
}

// ComputeRanking ranks the targets of one event by their evaluated input.
func ComputeRanking(t *tournamenttypes.Tournament, eventID tournamenttypes.EventID) ([]Ranked, error) {
	def := t.Event(eventID)
	if def == nil {
		return nil, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "event %s not found", eventID)
	}
	bucket := t.Inputs[eventID]

	var rows []Entry
	for _, target := range Targets(t, def.Target) {
		v, ok := EvaluateEntry(*def, bucket[target.Key])
		rows = append(rows, Entry{Key: target.Key, Label: target.Label, Value: v, Valid: ok})
	}
	return Rank(rows, def.RankOrder), nil
}

// ComputeGroupedRanking folds the person-level values of a person event per
// room or per team with the event's group aggregator, then ranks the groups.
func ComputeGroupedRanking(t *tournamenttypes.Tournament, eventID tournamenttypes.EventID, by GroupBy) ([]Ranked, error) {
	def := t.Event(eventID)
	if def == nil {
		return nil, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "event %s not found", eventID)
	}
	if def.Target != tournamenttypes.TargetPerson {
		return nil, tournamenttypes.NewError(tournamenttypes.CodeFailedPrecondition, "event %s is entered per %s and cannot be grouped", eventID, def.Target)
	}
	var level tournamenttypes.Target
	switch by {
	case GroupByRoom:
		level = tournamenttypes.TargetRoom
	case GroupByTeam:
		if t.Mode != tournamenttypes.ModeFourball {
			return nil, tournamenttypes.NewError(tournamenttypes.CodeFailedPrecondition, "teams only exist in fourball tournaments")
		}
		level = tournamenttypes.TargetTeam
	default:
		return nil, tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "unknown grouping %q", by)
	}
	bucket := t.Inputs[eventID]

	var rows []Entry
	for _, group := range Targets(t, level) {
		values := make([]float64, 0, len(group.Members))
		for _, id := range group.Members {
			if v, ok := EvaluateEntry(*def, bucket[string(id)]); ok {
				values = append(values, v)
			}
		}
		v, ok := Aggregate(def.GroupAggregator, values)
		rows = append(rows, Entry{Key: group.Key, Label: group.Label, Value: v, Valid: ok})
	}
	return Rank(rows, def.RankOrder), nil
}

// Target is something an input can be entered for.
type Target struct {
	Key     string
	Label   string
	Members []tournamenttypes.ParticipantID
}

// Targets lists every target of a level in a stable order: participants in
// roster order, rooms and teams by room number.
func Targets(t *tournamenttypes.Tournament, level tournamenttypes.Target) []Target {
	var out []Target
	switch level {
	case tournamenttypes.TargetPerson:
		for _, p := range t.Participants {
			label := p.Nickname
			if label == "" {
				label = string(p.ID)
			}
			out = append(out, Target{Key: string(p.ID), Label: label, Members: []tournamenttypes.ParticipantID{p.ID}})
		}
	case tournamenttypes.TargetRoom:
		for room := 1; room <= t.RoomCount; room++ {
			var members []tournamenttypes.ParticipantID
			for _, p := range t.Occupants(room) {
				members = append(members, p.ID)
			}
			out = append(out, Target{Key: tournamenttypes.RoomKey(room), Label: t.RoomName(room), Members: members})
		}
	case tournamenttypes.TargetTeam:
		for room := 1; room <= t.RoomCount; room++ {
			for _, team := range t.Teams(room) {
				out = append(out, Target{Key: team.Key, Label: t.RoomName(room) + " " + team.Side, Members: team.Members})
			}
		}
	}
	return out
}

// Contains reports whether participant id belongs to the target key of level.
func Contains(t *tournamenttypes.Tournament, level tournamenttypes.Target, key string, id tournamenttypes.ParticipantID) bool {
	p := t.Participant(id)
	if p == nil {
		return false
	}
	switch level {
	case tournamenttypes.TargetPerson:
		return key == string(id)
	case tournamenttypes.TargetRoom:
		return p.Assigned() && key == tournamenttypes.RoomKey(*p.Room)
	case tournamenttypes.TargetTeam:
		team, ok := t.TeamOf(id)
		return ok && team.Key == key
	}
	return false
}

// ValidKey reports whether key names a target of level in t.
func ValidKey(t *tournamenttypes.Tournament, level tournamenttypes.Target, key string) bool {
	for _, target := range Targets(t, level) {
		if target.Key == key {
			return true
		}
	}
	return false
}
