package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"personal-kb/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Store   handlers.KnowledgeStore
	Watcher handlers.FolderWatcher
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	documents := handlers.NewDocumentsHandler(deps.Store)
	watch := handlers.NewWatchHandler(deps.Watcher)

	r.Route("/api", func(r chi.Router) {
		r.Get("/documents", documents.List)
		r.Delete("/documents/{id}", documents.Delete)
		r.Method(http.MethodGet, "/search", handlers.NewSearchHandler(deps.Store))
		r.Method(http.MethodGet, "/stats", handlers.NewStatsHandler(deps.Store))
		r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.Store, deps.Watcher))

		r.Route("/folder-watch", func(r chi.Router) {
			r.Post("/start", watch.Start)
			r.Post("/stop", watch.Stop)
			r.Get("/status", watch.Status)
			r.Post("/rescan", watch.Rescan)
		})
	})

	return r
}
