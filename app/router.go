package app

import (
	"net/http"

	assignmenthandlers "github.com/Black-And-White-Club/tourney-bot/app/modules/assignment/infrastructure/handlers"
	scoringhandlers "github.com/Black-And-White-Club/tourney-bot/app/modules/scoring/infrastructure/handlers"
	tournamenthandlers "github.com/Black-And-White-Club/tourney-bot/app/modules/tournament/infrastructure/handlers"
	"github.com/Black-And-White-Club/tourney-bot/app/shared/httpapi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Router builds the HTTP API.
func (app *App) Router() http.Handler {
	var queue assignmenthandlers.Enqueuer
	if app.Queue != nil {
		queue = app.Queue
	}
	tournaments := tournamenthandlers.NewHandlers(app.TournamentService, app.Logger)
	assignments := assignmenthandlers.NewHandlers(app.AssignmentService, queue, app.Logger)
	scoring := scoringhandlers.NewHandlers(app.ScoringService, app.Logger)

	limiter := httpapi.NewIPRateLimiter(rate.Limit(app.Config.HTTP.RateLimit), app.Config.HTTP.RateBurst)

	r := chi.NewRouter()
	r.Use(httpapi.CorrelationMiddleware)
	r.Get("/healthz", app.health)

	r.Route("/api/tournaments", func(r chi.Router) {
		r.Use(httpapi.CORSMiddleware(app.Config.HTTP.AllowedOrigins))
		r.Use(httpapi.RateLimitMiddleware(limiter))
		r.Use(httpapi.CallerMiddleware(app.tokens))

		tournaments.RegisterCollection(r)
		r.Route("/{id}", func(r chi.Router) {
			tournaments.Register(r)
			assignments.Register(r)
			scoring.Register(r)
		})
	})
	return r
}

// MetricsHandler serves the Prometheus registry.
func (app *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{Registry: app.Registry})
}

func (app *App) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if app.db != nil {
		if err := app.db.PingContext(r.Context()); err != nil {
			status["postgres"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if app.Queue != nil {
		if err := app.Queue.HealthCheck(r.Context()); err != nil {
			status["queue"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if code != http.StatusOK {
		status["status"] = "degraded"
	}
	httpapi.WriteJSON(w, code, status)
}
