package scoringservice

import (
	"context"

	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
)

// UpsertEventDefinition creates or replaces an event definition. Once inputs
// exist the target and input mode are fixed, since stored keys and slots
// depend on them.
func (s *ScoringService) UpsertEventDefinition(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, def tournamenttypes.EventDefinition) (results.OperationResult[DefinitionResult, error], error) {
	return observability.RunOperation(ctx, s.telemetry, "UpsertEventDefinition", string(def.ID), func(ctx context.Context) (results.OperationResult[DefinitionResult, error], error) {
		if !c.Privileged {
			return fail[DefinitionResult](tournamenttypes.CodePermissionDenied, "caller %q is not privileged", c.ID), nil
		}
		if err := def.Validate(); err != nil {
			return results.FailureResult[DefinitionResult, error](err), nil
		}

		result, snapshot, err := mutate(s, ctx, "UpsertEventDefinition", id, func(t *tournamenttypes.Tournament) (DefinitionResult, error) {
			existing := t.Event(def.ID)
			if existing == nil {
				t.EventDefinitions = append(t.EventDefinitions, def)
				return DefinitionResult{Definition: def, Created: true}, nil
			}
			if len(t.Inputs[def.ID]) > 0 {
				if existing.Target != def.Target || existing.InputMode != def.InputMode {
					return DefinitionResult{}, tournamenttypes.NewError(tournamenttypes.CodeFailedPrecondition,
						"event %s already has inputs; reset them before changing target or input mode", def.ID)
				}
				if def.InputMode == tournamenttypes.InputAccumulate && def.Attempts < maxSlotInUse(t.Inputs[def.ID]) {
					return DefinitionResult{}, tournamenttypes.NewError(tournamenttypes.CodeFailedPrecondition,
						"event %s has inputs beyond attempt %d", def.ID, def.Attempts)
				}
			}
			*existing = def
			return DefinitionResult{Definition: def}, nil
		})
		if err != nil || !result.IsSuccess() {
			return result, err
		}

		result.Success.Version = snapshot.Version
		s.publish(ctx, eventbus.TopicDefinitions, eventbus.DefinitionsPayload{
			TournamentID: id,
			EventID:      def.ID,
			Version:      snapshot.Version,
		})
		return result, nil
	})
}

// DeleteEventDefinition removes a definition and its input bucket.
func (s *ScoringService) DeleteEventDefinition(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID, eventID tournamenttypes.EventID) (results.OperationResult[DefinitionResult, error], error) {
	return observability.RunOperation(ctx, s.telemetry, "DeleteEventDefinition", string(eventID), func(ctx context.Context) (results.OperationResult[DefinitionResult, error], error) {
		if !c.Privileged {
			return fail[DefinitionResult](tournamenttypes.CodePermissionDenied, "caller %q is not privileged", c.ID), nil
		}

		result, snapshot, err := mutate(s, ctx, "DeleteEventDefinition", id, func(t *tournamenttypes.Tournament) (DefinitionResult, error) {
			for i, d := range t.EventDefinitions {
				if d.ID != eventID {
					continue
				}
				t.EventDefinitions = append(t.EventDefinitions[:i:i], t.EventDefinitions[i+1:]...)
				delete(t.Inputs, eventID)
				return DefinitionResult{Definition: d, Deleted: true}, nil
			}
			return DefinitionResult{}, tournamenttypes.NewError(tournamenttypes.CodeNotFound, "event %s not found", eventID)
		})
		if err != nil || !result.IsSuccess() {
			return result, err
		}

		result.Success.Version = snapshot.Version
		s.publish(ctx, eventbus.TopicDefinitions, eventbus.DefinitionsPayload{
			TournamentID: id,
			EventID:      eventID,
			Deleted:      true,
			Version:      snapshot.Version,
		})
		return result, nil
	})
}

// maxSlotInUse returns one past the highest filled slot of any entry.
func maxSlotInUse(bucket tournamenttypes.InputBucket) int {
	n := 0
	for _, entry := range bucket {
		for i, slot := range entry.Slots {
			if slot.Value != nil && i+1 > n {
				n = i + 1
			}
		}
	}
	return n
}
