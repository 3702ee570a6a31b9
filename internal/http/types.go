package http

import (
	"net/http"

	"github.com/nhatcuongboy/csbadminton-sub001/internal/config"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/metrics"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/notifier"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/pubsub"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/session"
)

type Server struct {
	Store          session.SessionStore
	Metrics        metrics.Metrics
	Counters       metrics.MetricsStore
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	PubSub         pubsub.PubSubClient
	Router         *http.ServeMux
}
