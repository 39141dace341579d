package tournamenthandlers

import (
	"log/slog"
	"net/http"

	tournamentservice "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/application"
	tournamenttypes "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/domain"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/httpapi"
	"github.com/go-chi/chi/v5"
)

// Handlers serves tournament administration over HTTP.
type Handlers struct {
	service tournamentservice.Service
	logger  *slog.Logger
}

func NewHandlers(service tournamentservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

// RegisterCollection mounts the routes of /api/tournaments itself.
func (h *Handlers) RegisterCollection(r chi.Router) {
	r.Post("/", h.CreateTournament)
}

// Register mounts the routes on a router rooted at /api/tournaments/{id}.
func (h *Handlers) Register(r chi.Router) {
	r.Get("/", h.GetTournament)
	r.Post("/participants", h.AddParticipants)
	r.Patch("/participants/{pid}", h.UpdateParticipant)
	r.Delete("/participants/{pid}", h.RemoveParticipant)
	r.Post("/reset-assignments", h.ResetAssignments)
	r.Put("/rooms", h.RenameRooms)
}

func tournamentID(r *http.Request) tournamenttypes.TournamentID {
	return tournamenttypes.TournamentID(chi.URLParam(r, "id"))
}

func participantID(r *http.Request) tournamenttypes.ParticipantID {
	return tournamenttypes.ParticipantID(chi.URLParam(r, "pid"))
}

func (h *Handlers) CreateTournament(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	var req tournamentservice.CreateRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	res, err := h.service.CreateTournament(r.Context(), c, req)
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusCreated, res, err)
}

func (h *Handlers) GetTournament(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.GetTournament(r.Context(), tournamentID(r))
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}

type addParticipantsRequest struct {
	Participants []tournamentservice.NewParticipant `json:"participants"`
}

func (h *Handlers) AddParticipants(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	var req addParticipantsRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	res, err := h.service.AddParticipants(r.Context(), c, tournamentID(r), req.Participants)
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusCreated, res, err)
}

func (h *Handlers) UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	var patch tournamentservice.ParticipantPatch
	if err := httpapi.Decode(r, &patch); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	res, err := h.service.UpdateParticipant(r.Context(), c, tournamentID(r), participantID(r), patch)
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}

func (h *Handlers) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	res, err := h.service.RemoveParticipant(r.Context(), c, tournamentID(r), participantID(r))
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}

func (h *Handlers) ResetAssignments(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	res, err := h.service.ResetAssignments(r.Context(), c, tournamentID(r))
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}

type renameRoomsRequest struct {
	Names []string `json:"names"`
}

func (h *Handlers) RenameRooms(w http.ResponseWriter, r *http.Request) {
	c, ok := httpapi.RequireCaller(w, r)
	if !ok {
		return
	}
	var req renameRoomsRequest
	if err := httpapi.Decode(r, &req); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	res, err := h.service.RenameRooms(r.Context(), c, tournamentID(r), req.Names)
	httpapi.WriteResult(r.Context(), w, h.logger, http.StatusOK, res, err)
}
