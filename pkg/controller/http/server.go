package http

import (
	"context"
	"io/fs"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/frontend"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/service/metrics"
	"github.com/secmon-lab/actiontracker/pkg/usecase"
	"github.com/secmon-lab/actiontracker/pkg/utils/safe"
)

// UseCaseProvider hands out use cases once the datastore is ready
type UseCaseProvider interface {
	UseCases(ctx context.Context) (*usecase.UseCases, error)
}

type Server struct {
	router        *chi.Mux
	provider      UseCaseProvider
	identity      IdentityProvider
	policy        model.Policy
	metrics       *metrics.Metrics
	missingConfig []string
}

type Options func(*Server)

// WithIdentityProvider replaces the header based identity resolution
func WithIdentityProvider(p IdentityProvider) Options {
	return func(s *Server) {
		s.identity = p
	}
}

// WithPolicy sets the policy published by /api/config
func WithPolicy(policy model.Policy) Options {
	return func(s *Server) {
		s.policy = policy
	}
}

// WithMetrics enables request metrics and the /metrics endpoint
func WithMetrics(m *metrics.Metrics) Options {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithMissingConfig lists required settings that are absent. /health reports
// them instead of probing the datastore.
func WithMissingConfig(keys []string) Options {
	return func(s *Server) {
		s.missingConfig = keys
	}
}

func New(provider UseCaseProvider, opts ...Options) (*Server, error) {
	r := chi.NewRouter()

	s := &Server{
		router:   r,
		provider: provider,
		identity: HeaderIdentityProvider{},
		policy:   model.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(identityMiddleware(s.identity))
	r.Use(accessLogger(s.metrics))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.healthHandler)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Get("/api/config", configHandler(s.policy))

	r.Route("/api/actions", func(r chi.Router) {
		r.Use(readinessMiddleware(s.provider))

		r.Get("/", listActionsHandler)
		r.Post("/", createActionHandler)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", getActionHandler)
			r.Patch("/", updateActionHandler)
			r.Delete("/", deleteActionHandler)
			r.Post("/status", changeStatusHandler)
			r.Get("/audit", listAuditHandler)

			r.Get("/evidence", listEvidenceHandler)
			r.Post("/evidence", uploadEvidenceHandler)
			r.Post("/evidence/presign", presignEvidenceHandler)
			r.Post("/evidence/confirm", confirmEvidenceHandler)
		})
	})

	// Static file serving for SPA (catch-all, must be last)
	staticFS, err := fs.Sub(frontend.StaticFiles, "dist")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to bind dist dir for static")
	}

	r.Get("/*", spaHandler(staticFS))

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// spaHandler handles SPA routing by serving static files and falling back to index.html
func spaHandler(staticFS fs.FS) http.HandlerFunc {
	fileServer := http.FileServer(http.FS(staticFS))

	return func(w http.ResponseWriter, r *http.Request) {
		urlPath := strings.TrimPrefix(r.URL.Path, "/")

		if urlPath == "" {
			urlPath = "index.html"
		}

		file, err := staticFS.Open(urlPath)
		if err != nil {
			// Unknown paths fall back to index.html for client-side routing
			if indexFile, err := staticFS.Open("index.html"); err == nil {
				defer safe.Close(r.Context(), indexFile)
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				safe.Copy(r.Context(), w, indexFile)
				return
			}

			http.NotFound(w, r)
			return
		}
		safe.Close(r.Context(), file)

		fileServer.ServeHTTP(w, r)
	}
}
