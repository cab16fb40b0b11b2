package server

import (
	"net/http"

	"github.com/finatlas/finatlas/internal/api"
	"github.com/finatlas/finatlas/internal/api/handlers"
	"github.com/finatlas/finatlas/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	SearchHandler *handlers.SearchHandler
	AdminHandler  *handlers.AdminHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/search", cfg.SearchHandler.Search)
	r.Post("/ask", cfg.SearchHandler.Ask)
	r.Post("/compare", cfg.SearchHandler.Compare)

	r.Route("/entities", func(r chi.Router) {
		r.Get("/{id}", cfg.SearchHandler.GetEntity)
		r.Get("/{id}/similar", cfg.SearchHandler.Similar)
		r.Get("/country/{code}", cfg.SearchHandler.GetByCountry)
		r.Get("/type/{type}", cfg.SearchHandler.GetByType)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/collect", cfg.AdminHandler.Collect)
		r.Get("/collection-status", cfg.AdminHandler.CollectionStatus)
		r.Route("/scheduler", func(r chi.Router) {
			r.Post("/start", cfg.AdminHandler.StartScheduler)
			r.Post("/stop", cfg.AdminHandler.StopScheduler)
			r.Get("/status", cfg.AdminHandler.SchedulerStatus)
		})
		r.Get("/stats", cfg.AdminHandler.Stats)
		r.Post("/reset", cfg.AdminHandler.Reset)
	})

	return r
}
