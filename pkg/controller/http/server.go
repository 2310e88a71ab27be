package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riskcompass/riskcompass/pkg/usecase"
	"github.com/riskcompass/riskcompass/pkg/utils/logging"
)

type Server struct {
	router  *chi.Mux
	uc      *usecase.UseCases
	authUC  AuthUseCase
	metrics http.Handler
}

type Options func(*Server)

// WithAuth sets the bearer token verifier of protected routes. Without it
// every protected route answers 401.
func WithAuth(authUC AuthUseCase) Options {
	return func(s *Server) {
		s.authUC = authUC
	}
}

// WithMetrics exposes handler on /metrics
func WithMetrics(handler http.Handler) Options {
	return func(s *Server) {
		s.metrics = handler
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
		authUC: uc.Auth,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		// The risk proxy is public
		r.Route("/risk", func(r chi.Router) {
			r.Post("/calculate", s.calculateRisk)
			r.Get("/health", s.riskHealth)
			r.Post("/mitigation-strategy", s.mitigationStrategy)
			r.Post("/recommendation-risk-reduction", s.recommendationRiskReduction)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.authUC))

			r.Post("/auth/register", s.register)
			r.Get("/auth/profile", s.profile)
			r.Get("/auth/init-admin", s.initAdmin)
			r.Post("/auth/promote-admin", s.promoteAdmin)

			r.Route("/projects", func(r chi.Router) {
				r.Post("/", s.createProject)
				r.Get("/", s.listProjects)

				r.Route("/{projectId}", func(r chi.Router) {
					r.Get("/", s.getProject)
					r.Put("/", s.updateProject)
					r.Delete("/", s.deleteProject)

					r.Route("/mitigation", func(r chi.Router) {
						r.Get("/rounds/{round}", s.getRound)
						r.Put("/selected-round", s.selectRound)
						r.Post("/apply", s.recommendationHandler((*usecase.MitigationUseCase).Apply))
						r.Post("/unapply", s.recommendationHandler((*usecase.MitigationUseCase).Unapply))
						r.Post("/lock", s.recommendationHandler((*usecase.MitigationUseCase).ToggleLock))
						r.Post("/apply-all", s.applyAll)
						r.Post("/continue", s.continueToNextRound)
						r.Post("/explain", s.explainRecommendation)
						r.Post("/strategy", s.refreshStrategy)
					})
				})
			})

			r.Route("/organizations/{organizationId}", func(r chi.Router) {
				r.Get("/", s.getOrganization)
				r.Put("/", s.updateOrganization)
				r.Get("/projects", s.organizationProjects)
				r.Get("/stats", s.organizationStats)
				r.Delete("/members/{userId}", s.removeMember)
			})
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.From(r.Context()).With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}
