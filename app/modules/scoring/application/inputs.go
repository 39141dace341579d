package scoringservice

import (
	"context"
	"math"

	scoring "github.com/Black-And-White-Club/tourney-bot/app/modules/scoring/domain"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
)

// SubmitInput stores one raw score entry. Unprivileged callers may only
// enter values for a target that contains them.
func (s *ScoringService) SubmitInput(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID, req InputRequest) (results.OperationResult[InputResult, error], error) {
	return observability.RunOperation(ctx, s.telemetry, "SubmitInput", string(eventID)+"/"+req.TargetKey, func(ctx context.Context) (results.OperationResult[InputResult, error], error) {
		if req.TargetKey == "" {
			return fail[InputResult](tournamenttypes.CodeInvalidArgument, "target key is required"), nil
		}
		if req.Value != nil && (math.IsNaN(*req.Value) || math.IsInf(*req.Value, 0)) {
			return fail[InputResult](tournamenttypes.CodeInvalidArgument, "value must be a finite number"), nil
		}

		result, snapshot, err := mutate(s, ctx, "SubmitInput", id, func(t *tournamenttypes.Tournament) (InputResult, error) {
			def := t.Event(eventID)
			if def == nil {
				return InputResult{}, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "event %s not found", eventID)
			}
			if !def.Enabled {
				return InputResult{}, tournamenttypes.NewError(tournamenttypes.CodeFailedPrecondition, "event %s is not accepting entries", eventID)
			}
			if !scoring.ValidKey(t, def.Target, req.TargetKey) {
				return InputResult{}, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "%s target %q not found", def.Target, req.TargetKey)
			}
			if !c.Privileged && !scoring.Contains(t, def.Target, req.TargetKey, tournamenttypes.ParticipantID(c.ID)) {
				return InputResult{}, tournamenttypes.NewError(tournamenttypes.CodePermissionDenied, "caller %q may only enter their own %s", c.ID, def.Target)
			}
			if err := checkBonus(*def, req.Bonus); err != nil {
				return InputResult{}, err
			}

			if t.Inputs == nil {
				t.Inputs = make(map[tournamenttypes.EventID]tournamenttypes.InputBucket)
			}
			bucket := t.Inputs[eventID]
			if bucket == nil {
				bucket = make(tournamenttypes.InputBucket)
				t.Inputs[eventID] = bucket
			}

			entry, err := applyInput(*def, bucket[req.TargetKey], req)
			if err != nil {
				return InputResult{}, err
			}
			if empty(entry) {
				delete(bucket, req.TargetKey)
			} else {
				bucket[req.TargetKey] = entry
			}
			if len(bucket) == 0 {
				delete(t.Inputs, eventID)
			}
			return InputResult{EventID: eventID, TargetKey: req.TargetKey, Entry: entry}, nil
		})
		if err != nil || !result.IsSuccess() {
			return result, err
		}

		result.Success.Version = snapshot.Version
		s.publish(ctx, eventbus.TopicInputs, eventbus.InputsPayload{
			TournamentID: id,
			EventID:      eventID,
			TargetKey:    req.TargetKey,
			Version:      snapshot.Version,
		})
		return result, nil
	})
}

// applyInput writes req into a copy of entry.
func applyInput(def tournamenttypes.EventDefinition, entry tournamenttypes.InputEntry, req InputRequest) (tournamenttypes.InputEntry, error) {
	if def.InputMode != tournamenttypes.InputAccumulate {
		if req.Slot != nil {
			return entry, tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "event %s takes a single value, not slots", def.ID)
		}
		if req.Value == nil {
			return tournamenttypes.InputEntry{}, nil
		}
		return tournamenttypes.InputEntry{Value: tournamenttypes.FloatPtr(*req.Value), Bonus: req.Bonus}, nil
	}

	if req.Slot == nil || *req.Slot < 0 || *req.Slot >= def.Attempts {
		return entry, tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "slot must be between 0 and %d", def.Attempts-1)
	}
	slots := make([]tournamenttypes.Slot, def.Attempts)
	copy(slots, entry.Slots)
	if req.Value == nil {
		slots[*req.Slot] = tournamenttypes.Slot{}
	} else {
		slots[*req.Slot] = tournamenttypes.Slot{Value: tournamenttypes.FloatPtr(*req.Value), Bonus: req.Bonus}
	}
	return tournamenttypes.InputEntry{Slots: slots}, nil
}

func checkBonus(def tournamenttypes.EventDefinition, label string) error {
	if label == "" {
		return nil
	}
	if def.Template != tournamenttypes.TemplateRangeConvertBonus {
		return tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "event %s does not take bonuses", def.ID)
	}
	for _, b := range def.Params.Bonuses {
		if b.Label == label {
			return nil
		}
	}
	return tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "unknown bonus %q", label)
}

func empty(entry tournamenttypes.InputEntry) bool {
	if entry.Value != nil {
		return false
	}
	for _, slot := range entry.Slots {
		if slot.Value != nil {
			return false
		}
	}
	return true
}

// ResetInputs clears the entries of one event, or of every event when
// eventID is empty.
func (s *ScoringService) ResetInputs(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (results.OperationResult[ResetResult, error], error) {
	return observability.RunOperation(ctx, s.telemetry, "ResetInputs", string(eventID), func(ctx context.Context) (results.OperationResult[ResetResult, error], error) {
		if !c.Privileged {
			return fail[ResetResult](tournamenttypes.CodePermissionDenied, "caller %q is not privileged", c.ID), nil
		}

		result, snapshot, err := mutate(s, ctx, "ResetInputs", id, func(t *tournamenttypes.Tournament) (ResetResult, error) {
			if eventID != "" && t.Event(eventID) == nil {
				return ResetResult{}, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "event %s not found", eventID)
			}
			cleared := 0
			for ev, bucket := range t.Inputs {
				if eventID == "" || ev == eventID {
					cleared += len(bucket)
					delete(t.Inputs, ev)
				}
			}
			if cleared == 0 {
				return ResetResult{}, tournamentdb.ErrNoChange
			}
			return ResetResult{Cleared: cleared}, nil
		})
		if err != nil || !result.IsSuccess() {
			return result, err
		}

		result.Success.Version = snapshot.Version
		if result.Success.Cleared > 0 {
			s.publish(ctx, eventbus.TopicInputs, eventbus.InputsPayload{
				TournamentID: id,
				EventID:      eventID,
				Reset:        true,
				Version:      snapshot.Version,
			})
		}
		return result, nil
	})
}
