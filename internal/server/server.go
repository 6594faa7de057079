package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/claude/setlog/internal/metrics"
	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/training"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc    *training.Service
	inst   *metrics.Instrumentation
	log    *slog.Logger
	apiKey string
	router chi.Router

	whois   WhoIsClient
	devUser models.User
	// login -> user id, filled as tailnet users are first seen
	users sync.Map
}

// New creates a new Server with all routes configured. inst may be nil.
func New(svc *training.Service, inst *metrics.Instrumentation, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		inst:   inst,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale identifies callers through the tailnet. Without it every
// request runs as the dev user.
func (s *Server) SetTailscale(wc WhoIsClient) {
	s.whois = wc
}

// SetDevUser sets the identity used when Tailscale is off.
func (s *Server) SetDevUser(u models.User) {
	s.devUser = u
}

// Mount attaches h under pattern behind identity resolution, for example the
// MCP endpoint.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.With(s.identify).Mount(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(RequestMetrics(s.inst))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)
	if s.inst != nil {
		s.router.Method(http.MethodGet, "/metrics", s.inst.Handler())
	}

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identify)

		r.Get("/me", s.handleMe)

		r.Get("/exercises", s.handleListExercises)
		r.Post("/exercises", s.handleCreateExercise)
		r.Get("/exercises/{id}", s.handleGetExercise)
		r.Put("/exercises/{id}", s.handleUpdateExercise)
		r.Get("/exercises/{id}/history", s.handleExerciseHistory)
		r.Get("/submuscles", s.handleListSubMuscles)
		r.Get("/muscles", s.handleListMuscles)
		r.Get("/groups", s.handleListMuscularGroups)

		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleCreateTemplate)
		r.Get("/templates/{id}", s.handleGetTemplate)
		r.Post("/templates/{id}/lines", s.handleAddTemplateLine)
		r.Put("/templates/{id}/lines/{lineID}", s.handleUpdateTemplateLine)
		r.Post("/templates/{id}/materialize", s.handleMaterializeTemplate)

		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Post("/sessions/active", s.handleResolveActiveSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Get("/sessions/{id}/progress", s.handleSessionProgress)
		r.Post("/sessions/{id}/records", s.handleLogSet)
		r.Patch("/records/{id}", s.handleUpdateRecord)

		r.Get("/weights", s.handleListWeights)
		r.Post("/weights", s.handleAddWeight)
		r.Put("/weights/{id}", s.handleUpdateWeight)

		// API key required
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/import", s.handleImport)
			r.Route("/admin", func(r chi.Router) {
				r.Post("/submuscles", s.handleCreateSubMuscle)
				r.Post("/muscles", s.handleCreateMuscle)
				r.Post("/groups", s.handleCreateMuscularGroup)
				r.Post("/templates", s.handleCreateGlobalTemplate)
				r.Post("/templates/{id}/lines", s.handleAdminAddTemplateLine)
				r.Put("/templates/{id}/lines/{lineID}", s.handleAdminUpdateTemplateLine)
			})
		})
	})
}
