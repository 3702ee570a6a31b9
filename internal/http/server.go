package http

import (
	"net/http"

	"github.com/nhatcuongboy/csbadminton-sub001/internal/config"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/metrics"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/notifier"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/pubsub"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/session"
)

func NewServer(store session.SessionStore, metricsSvc metrics.Metrics, counters metrics.MetricsStore, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Store:          store,
		Metrics:        metricsSvc,
		Counters:       counters,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		PubSub:         pubsub,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// This makes it easy to add more middlewares in the future, like an authentication middleware.
	// e.g. Chain(s.MyHandler(), paramsMiddleware, authMiddleware)
	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), paramsMiddleware))
	s.Router.Handle("GET /counters", Chain(s.CountersHandler(), paramsMiddleware))
	s.Router.Handle("POST /events/pubsub", Chain(s.PubSubPushHandler(), paramsMiddleware))

	s.Router.Handle("POST /sessions", Chain(s.CreateSessionHandler(), paramsMiddleware))
	s.Router.Handle("GET /sessions", Chain(s.ListSessionsHandler(), paramsMiddleware))
	s.Router.Handle("GET /sessions/{sessionID}", Chain(s.GetSessionHandler(), paramsMiddleware))
	s.Router.Handle("POST /sessions/{sessionID}/start", Chain(s.StartSessionHandler(), paramsMiddleware))
	s.Router.Handle("POST /sessions/{sessionID}/end", Chain(s.EndSessionHandler(), paramsMiddleware))
	s.Router.Handle("POST /sessions/{sessionID}/players", Chain(s.AddPlayerHandler(), paramsMiddleware))
	s.Router.Handle("GET /sessions/{sessionID}/players", Chain(s.ListPlayersHandler(), paramsMiddleware))
	s.Router.Handle("GET /sessions/{sessionID}/courts", Chain(s.ListCourtsHandler(), paramsMiddleware))
	s.Router.Handle("GET /sessions/{sessionID}/matches", Chain(s.ListMatchesHandler(), paramsMiddleware))
	s.Router.Handle("POST /sessions/{sessionID}/auto-assign", Chain(s.AutoAssignHandler(), paramsMiddleware))
	s.Router.Handle("POST /sessions/{sessionID}/accrue", Chain(s.AccrueWaitTimeHandler(), paramsMiddleware))

	s.Router.Handle("GET /courts/{courtID}", Chain(s.GetCourtHandler(), paramsMiddleware))
	s.Router.Handle("GET /courts/{courtID}/players", Chain(s.CourtPlayersHandler(), paramsMiddleware))
	s.Router.Handle("GET /courts/{courtID}/suggest", Chain(s.SuggestPlayersHandler(), paramsMiddleware))
	s.Router.Handle("POST /courts/{courtID}/select", Chain(s.SelectPlayersHandler(), paramsMiddleware))
	s.Router.Handle("POST /courts/{courtID}/deselect", Chain(s.DeselectPlayersHandler(), paramsMiddleware))
	s.Router.Handle("POST /courts/{courtID}/start", Chain(s.StartMatchHandler(), paramsMiddleware))
	s.Router.Handle("POST /courts/{courtID}/end", Chain(s.EndMatchHandler(), paramsMiddleware))
	s.Router.Handle("POST /courts/{courtID}/pre-select", Chain(s.PreSelectHandler(), paramsMiddleware))
	s.Router.Handle("POST /courts/{courtID}/cancel-pre-select", Chain(s.CancelPreSelectHandler(), paramsMiddleware))

	s.Router.Handle("GET /players/{playerID}", Chain(s.GetPlayerHandler(), paramsMiddleware))
	s.Router.Handle("POST /players/{playerID}/toggle-inactive", Chain(s.ToggleInactiveHandler(), paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
