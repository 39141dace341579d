package assignmenthandlers

import (
	"context"
	"log/slog"
	"net/http"

	assignmentservice "github.com/Black-And-White-Club/tourney-bot/app/modules/assignment/application"
	assignmentqueue "github.com/Black-And-White-Club/tourney-bot/app/modules/assignment/infrastructure/queue"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/httpapi"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/observability"
	"github.com/go-chi/chi/v5"
)

// Enqueuer is the part of the job queue the handlers use.
type Enqueuer interface {
	EnqueueAutoAssign(ctx context.Context, id tournamenttypes.TournamentID, requestedBy string) (assignmentqueue.EnqueueResult, error)
	PendingJobs(ctx context.Context, id tournamenttypes.TournamentID) ([]assignmentqueue.JobInfo, error)
}

// Handlers serves seating operations over HTTP.
type Handlers struct {
	service assignmentservice.Service
	// queue is nil when background jobs are disabled; auto-assign then runs inline.
	queue  Enqueuer
	logger *slog.Logger
}

func NewHandlers(service assignmentservice.Service, queue Enqueuer, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, queue: queue, logger: logger}
}

// Register mounts the routes on a router rooted at /api/tournaments/{id}.
func (h *Handlers) Register(r chi.Router) {
	r.Post("/assign", h.Assign)
	r.Post("/move", h.MoveOrTrade)
	r.Post("/move-pair", h.MovePair)
	r.Post("/auto-assign", h.AutoAssign)
	r.Get("/auto-assign/jobs", h.PendingJobs)
}

func tournamentID(r *http.Request) tournamenttypes.TournamentID {
	return tournamenttypes.TournamentID(chi.URLParam(r, "id"))
}

type assignRequest struct {
	// ParticipantID defaults to the caller.
	ParticipantID tournamenttypes.ParticipantID `json:"participantId"`
}

func (h *Handlers) Assign(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	var req assignRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	if req.ParticipantID == "" {
		req.ParticipantID = tournamenttypes.ParticipantID(c.ID)
	}
	res, err := h.service.Assign(r.Context(), c, tournamentID(r), req.ParticipantID)
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}

type moveRequest struct {
	Role          string                        `json:"role"`
	ParticipantID tournamenttypes.ParticipantID `json:"participantId"`
	TargetRoom    int                           `json:"targetRoom"`
}

func (h *Handlers) MoveOrTrade(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	var req moveRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	res, err := h.service.MoveOrTrade(r.Context(), c, tournamentID(r), req.Role, req.ParticipantID, req.TargetRoom)
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}

type movePairRequest struct {
	Group1ID   tournamenttypes.ParticipantID `json:"group1Id"`
	TargetRoom int                           `json:"targetRoom"`
}

func (h *Handlers) MovePair(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	var req movePairRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	res, err := h.service.MovePair(r.Context(), c, tournamentID(r), req.Group1ID, req.TargetRoom)
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}

// AutoAssign runs AssignAll, in the background when a queue is configured.
// A new job answers 202; a request folded into an unfinished job answers 200
// with duplicate set.
func (h *Handlers) AutoAssign(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	id := tournamentID(r)

	if h.queue == nil {
		res, err := h.service.AssignAll(r.Context(), c, id)
		httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
		return
	}

	// The job runs as the system caller, so privilege is checked here.
	if !c.Privileged {
		httpapi.WriteError(w, tournamenttypes.NewError(tournamenttypes.CodePermissionDenied, "caller %q is not privileged", c.ID))
		return
	}
	res, err := h.queue.EnqueueAutoAssign(r.Context(), id, c.ID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to enqueue auto-assign",
			observability.ExtractCorrelationID(r.Context()),
			observability.Error(err),
		)
		httpapi.WriteJSON(w, http.StatusInternalServerError, httpapi.ErrorBody{Code: "internal", Message: "failed to enqueue job"})
		return
	}
	status := http.StatusAccepted
	if res.Duplicate {
		status = http.StatusOK
	}
	httpapi.WriteJSON(w, status, res)
}

func (h *Handlers) PendingJobs(w http.ResponseWriter, r *http.Request) {
	if _, ok := httpapi.RequireCaller(w, r); !ok {
		return
	}
	if h.queue == nil {
		httpapi.WriteJSON(w, http.StatusOK, []assignmentqueue.JobInfo{})
		return
	}
	jobs, err := h.queue.PendingJobs(r.Context(), tournamentID(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list pending jobs",
			observability.ExtractCorrelationID(r.Context()),
			observability.Error(err),
		)
		httpapi.WriteJSON(w, http.StatusInternalServerError, httpapi.ErrorBody{Code: "internal", Message: "failed to list jobs"})
		return
	}
	if jobs == nil {
		jobs = []assignmentqueue.JobInfo{}
	}
	httpapi.WriteJSON(w, http.StatusOK, jobs)
}
