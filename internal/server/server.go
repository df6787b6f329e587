// Package server exposes plan editors over HTTP as JSON.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/weekplan/internal/catalog"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	editors *Registry
	catalog catalog.Catalog
	log     *slog.Logger
	router  chi.Router
}

// New creates a new Server with all routes configured.
func New(editors *Registry, cat catalog.Catalog, log *slog.Logger) *Server {
	s := &Server{
		editors: editors,
		catalog: cat,
		log:     log,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/api/v1/catalog", s.handleCatalogSearch)
	s.router.Get("/api/v1/catalog/{ref}", s.handleCatalogGet)

	s.router.Route("/api/v1/plans/{planID}", func(r chi.Router) {
		r.Get("/", s.handleState)
		r.Get("/alerts", s.handleAlerts)
		r.Get("/history", s.handleHistory)
		r.Get("/sync", s.handleSync)
		r.Post("/intents", s.handleIntent)
		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)
		r.Post("/flush", s.handleFlush)
	})
}
