package assignmentservice

import (
	"context"
	"errors"

	assignmentpolicy "github.com/Black-And-White-Club/tourney-bot/app/modules/assignment/policy"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/caller"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/eventbus"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/results"
)

// AssignAll seats every unassigned initiator with the balanced strategy. Each
// participant is its own transaction, so one failure does not undo the rest.
func (s *AssignmentService) AssignAll(ctx context.Context, c caller.Caller, id tournamenttypes.TournamentID) (results.OperationResult[AssignAllResult, error], error) {
	return withTelemetry(s, ctx, "AssignAll", string(id), func(ctx context.Context) (results.OperationResult[AssignAllResult, error], error) {
		if err := requirePrivileged(c); err != nil {
			return results.FailureResult[AssignAllResult, error](err), nil
		}

		snapshot, err := s.store.Read(ctx, id)
		if err != nil {
			if errors.Is(err, tournamentdb.ErrNotFound) {
				return results.FailureResult[AssignAllResult, error](tournamenttypes.NewError(tournamenttypes.CodeNotFound, "tournament %s not found", id)), nil
			}
			return results.OperationResult[AssignAllResult, error]{}, err
		}

		var pending []tournamenttypes.ParticipantID
		for _, p := range snapshot.Participants {
			if p.Assigned() {
				continue
			}
			if snapshot.Mode == tournamenttypes.ModeFourball && p.RoleIn(snapshot.Mode) != tournamenttypes.RoleG1 {
				continue
			}
			pending = append(pending, p.ID)
		}

		summary := AssignAllResult{Outcomes: make([]AssignOutcome, 0, len(pending))}
		var version int64
		for _, pid := range pending {
			res, committed, err := runInTx(s, ctx, "AssignAll", id, s.assignMutation(pid, assignmentpolicy.StrategyBalanced))
			if err != nil {
				return results.OperationResult[AssignAllResult, error]{}, err
			}
			if res.IsFailure() {
				summary.Failed++
				summary.Outcomes = append(summary.Outcomes, AssignOutcome{ParticipantID: pid, Code: tournamenttypes.Code(*res.Failure)})
				continue
			}
			summary.Assigned++
			version = committed.Version
			summary.Outcomes = append(summary.Outcomes, AssignOutcome{
				ParticipantID: pid,
				Room:          res.Success.Room,
				PartnerID:     res.Success.PartnerID,
				Degraded:      res.Success.Degraded,
			})
		}

		if summary.Assigned > 0 {
			s.publish(ctx, eventbus.TopicRoster, eventbus.RosterPayload{
				TournamentID: id,
				Action:       "assign_all",
				Count:        summary.Assigned,
				Version:      version,
			})
		}
		return results.SuccessResult[AssignAllResult, error](summary), nil
	})
}
