package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nqu-vtuber/backend/internal/handler/ws"
	middlewarePkg "github.com/nqu-vtuber/backend/internal/middleware"
	"github.com/nqu-vtuber/backend/internal/service/tts"
	"github.com/nqu-vtuber/backend/internal/session"
	"github.com/nqu-vtuber/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(registry *session.Registry, synth *tts.Coordinator) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"message": "VTuber backend is running",
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
			stats := synth.Stats()
			utils.RespondJSON(w, http.StatusOK, map[string]any{
				"sessions": registry.Len(),
				"tts_cache": map[string]any{
					"entries": stats.Entries,
					"hits":    stats.Hits,
					"misses":  stats.Misses,
				},
			})
		})
	})

	wsHandler := ws.New(registry)
	wsHandler.RegisterRoutes(r)

	return r
}
