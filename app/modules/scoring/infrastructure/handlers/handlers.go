package scoringhandlers

import (
	"log/slog"
	"net/http"

	scoringservice "github.com/Black-And-White-Club/tourney-bot/app/modules/scoring/application"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/httpapi"
	"github.com/go-chi/chi/v5"
)

// Handlers serves event definitions, score entry and rankings over HTTP.
type Handlers struct {
	service scoringservice.Service
	logger  *slog.Logger
}

func NewHandlers(service scoringservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// Register mounts the routes on a router rooted at /api/tournaments/{id}.
func (h *Handlers) Register(r chi.Router) {
	r.Delete("/inputs", h.ResetInputs)
	r.Put("/events/{eventId}", h.UpsertEventDefinition)
	r.Delete("/events/{eventId}", h.DeleteEventDefinition)
	r.Post("/events/{eventId}/inputs", h.SubmitInput)
	r.Delete("/events/{eventId}/inputs", h.ResetInputs)
	r.Get("/events/{eventId}/ranking", h.Ranking)
}

func tournamentID(r *http.Request) tournamenttypes.TournamentID {
	return tournamenttypes.TournamentID(chi.URLParam(r, "id"))
}

func eventID(r *http.Request) tournamenttypes.EventID {
	return tournamenttypes.EventID(chi.URLParam(r, "eventId"))
}

func (h *Handlers) UpsertEventDefinition(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	var def tournamenttypes.EventDefinition
	if err := httpapi.Decode(r, &def); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	if def.ID != "" && def.ID != eventID(r) {
		httpapi.WriteError(w, tournamenttypes.NewError(tournamenttypes.CodeInvalidArgument, "body id %q does not match path", def.ID))
		return
	}
	def.ID = eventID(r)
	res, err := h.service.UpsertEventDefinition(r.Context(), c, tournamentID(r), def)
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}

func (h *Handlers) DeleteEventDefinition(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	res, err := h.service.DeleteEventDefinition(r.Context(), c, tournamentID(r), eventID(r))
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}

func (h *Handlers) SubmitInput(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	var req scoringservice.InputRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	res, err := h.service.SubmitInput(r.Context(), c, tournamentID(r), eventID(r), req)
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}

// ResetInputs clears one event's inputs, or every event's when the route has
// no event id.
func (h *Handlers) ResetInputs(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	res, err := h.service.ResetInputs(r.Context(), c, tournamentID(r), eventID(r))
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}

func (h *Handlers) Ranking(w http.ResponseWriter, r *http.Request) {
	if _, ok := httpapi.RequireCaller(w, r); !ok {
		return
	}
	if by := r.URL.Query().Get("by"); by != "" {
		res, err := h.service.ComputeGroupedRanking(r.Context(), tournamentID(r), eventID(r), by)
		httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
		return
	}
	res, err := h.service.ComputeRanking(r.Context(), tournamentID(r), eventID(r))
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}
