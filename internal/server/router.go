package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agentstation/fieldmatch/internal/server/handlers"
	"github.com/agentstation/fieldmatch/internal/server/middleware"
	"github.com/agentstation/fieldmatch/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	r := chi.NewRouter()

	for _, mw := range s.middlewares() {
		r.Use(mw)
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Not found", "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r.Method)
	})

	h := handlers.New(s.client, s.catalogue, s.store, s.cache, s.logger)
	s.registerRoutes(r, h)
	return r
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(r chi.Router, h *handlers.Handlers) {
	// 204 keeps browsers from logging a 404
	r.Get("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/health", h.HandleHealth)

	r.Route(s.config.PathPrefix, func(r chi.Router) {
		r.Get("/health", h.HandleHealth)
		r.Get("/ready", h.HandleReady)

		r.Get("/taxonomy", h.HandleTaxonomy)
		r.Get("/taxonomy/self-scores", h.HandleSelfScores)
		r.Post("/taxonomy/diff", h.HandleTaxonomyDiff)

		r.Post("/infer", h.HandleInfer)
		r.Post("/reconcile", h.HandleReconcile)

		r.Get("/scenarios", h.HandleListScenarios)
		r.Post("/scenarios/reconcile", h.HandleReconcileScenarios)
		r.Get("/scenarios/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetScenario(w, r, chi.URLParam(r, "id"))
		})
		r.Post("/scenarios/{id}/reconcile", func(w http.ResponseWriter, r *http.Request) {
			h.HandleReconcileScenario(w, r, chi.URLParam(r, "id"))
		})

		r.Get("/runs", h.HandleListRuns)
		r.Get("/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
			h.HandleGetRun(w, r, chi.URLParam(r, "id"))
		})
		r.Get("/runs/{id}/outcomes", func(w http.ResponseWriter, r *http.Request) {
			h.HandleRunOutcomes(w, r, chi.URLParam(r, "id"))
		})

		r.Get("/openapi.json", h.HandleOpenAPIJSON)
		r.Get("/openapi.yaml", h.HandleOpenAPIYAML)
	})
}

// middlewares returns the chain, outermost first.
func (s *Server) middlewares() []func(http.Handler) http.Handler {
	cfg := s.config
	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		chimw.RealIP,
		middleware.Logger(s.logger),
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		}
		chain = append(chain, middleware.CORS(corsConfig))
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig(cfg.PathPrefix)
		authConfig.Enabled = true
		authConfig.APIKey = cfg.APIKey
		if cfg.AuthHeader != "" {
			authConfig.HeaderName = cfg.AuthHeader
		}
		chain = append(chain, middleware.Auth(authConfig, s.logger))
	}

	if s.limiter != nil {
		chain = append(chain, middleware.RateLimit(s.limiter))
	}
	return chain
}
