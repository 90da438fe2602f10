// Package server exposes the stowage operations over HTTP. Routing is
// chi, mutating operations are serialized by the store's own locking, and
// every handler is a thin JSON shim over the service layer.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/orbitlogix/stowage/internal/service"
)

// Server is the HTTP front of the stowage service.
type Server struct {
	svc      *service.Service
	log      *zap.Logger
	validate *validator.Validate
}

// New builds a server around the given service.
func New(svc *service.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		svc:      svc,
		log:      logger,
		validate: validator.New(),
	}
}

// Router assembles the route tree. corsOrigins configures the CORS
// middleware; the upstream tooling runs in a browser, so the service has
// always been CORS-open by default.
func (s *Server) Router(corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/placement", s.handlePlacement)
		r.Get("/search", s.handleSearch)
		r.Post("/retrieve", s.handleRetrieve)
		r.Post("/place", s.handlePlace)

		r.Route("/waste", func(r chi.Router) {
			r.Get("/identify", s.handleIdentifyWaste)
			r.Post("/return-plan", s.handleReturnPlan)
			r.Post("/complete-undocking", s.handleCompleteUndocking)
		})

		r.Post("/simulate/day", s.handleSimulate)

		r.Route("/import", func(r chi.Router) {
			r.Post("/items", s.handleImportItems)
			r.Post("/containers", s.handleImportContainers)
		})
		r.Get("/export/arrangement", s.handleExportArrangement)

		r.Get("/logs", s.handleLogs)
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

// requestLogger logs method, path, status and latency for every request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
