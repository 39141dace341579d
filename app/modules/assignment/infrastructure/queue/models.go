package assignmentqueue

import tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"

// AutoAssignJob seats every unassigned initiator of a tournament in the
// background. Only TournamentID takes part in uniqueness.
type AutoAssignJob struct {
	TournamentID tournamenttypes.TournamentID `json:"tournament_id" river:"unique"`
	RequestedBy  string                       `json:"requested_by"`
}

// Kind returns the job type identifier for River
func (AutoAssignJob) Kind() string { return "auto_assign" }

// JobInfo describes a queued auto-assign job.
type JobInfo struct {
	ID           int64  `json:"id"`
	State        string `json:"state"`
	TournamentID string `json:"tournament_id"`
	ScheduledAt  string `json:"scheduled_at"`
	Attempt      int    `json:"attempt"`
	MaxAttempts  int    `json:"max_attempts"`
}

// EnqueueResult reports the job an auto-assign request maps to. Duplicate is
// set when an unfinished job for the tournament already existed and was
// returned instead of inserting a new one.
type EnqueueResult struct {
	JobID     int64 `json:"jobId"`
	Duplicate bool  `json:"duplicate,omitempty"`
}
