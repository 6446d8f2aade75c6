package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftprog/internal/progression"
	"github.com/meltforce/liftprog/internal/tracker"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	tracker *tracker.Service
	unit    progression.Unit
	log     *slog.Logger
	apiKey  string
	whois   whoIsClient
	router  chi.Router
}

// New creates a new Server with all routes configured. unit is the display
// unit used when a request does not name one.
func New(svc *tracker.Service, apiKey string, unit progression.Unit, log *slog.Logger) *Server {
	s := &Server{
		tracker: svc,
		unit:    unit,
		log:     log,
		apiKey:  apiKey,
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
	s.router.Use(s.identify)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/api/v1/me", s.handleMe)
	s.router.Get("/api/v1/phases", s.handlePhases)

	s.router.Route("/api/v1/exercises", func(r chi.Router) {
		r.Get("/", s.handleListExercises)
		r.Get("/{name}", s.handleGetExercise)
		r.Get("/{name}/history", s.handleHistory)

		// Mutations (API key required)
		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/", s.handleCreateExercise)
			r.Delete("/{name}", s.handleDeleteExercise)
			r.Put("/{name}/reps", s.handleSaveReps)
			r.Post("/{name}/sessions", s.handleCompleteSession)
			r.Post("/{name}/phase", s.handleChangePhase)
		})
	})
}

// SetMCP mounts a streamable-HTTP MCP handler at /mcp behind the API key.
func (s *Server) SetMCP(h http.Handler) {
	s.router.With(APIKeyAuth(s.apiKey)).Handle("/mcp", h)
}

// SetTailscale resolves request identities through the tailnet. Without it
// every request is the local dev user.
func (s *Server) SetTailscale(lc whoIsClient) {
	s.whois = lc
}
