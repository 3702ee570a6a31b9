package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		MatchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_matches_started_total",
			Help: "The total number of matches started on a court.",
		}),
		MatchesEnded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_matches_ended_total",
			Help: "The total number of matches ended.",
		}),
		Continuations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_continuation_matches_total",
			Help: "The total number of matches chained from a pre-selection at match end.",
		}),
		AutoAssignRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_auto_assign_runs_total",
			Help: "The total number of auto-assign passes executed.",
		}),
		AccrualRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_wait_accrual_runs_total",
			Help: "The total number of wait-time accrual ticks executed.",
		}),
		PairingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "badminton_pairing_duration_seconds",
			Help:    "The duration of balanced pairing suggestions.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		NotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_notifications_sent_total",
			Help: "The total number of notifications successfully sent.",
		}),
		NotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "badminton_notifications_failed_total",
			Help: "The total number of notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "badminton_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.MatchesStarted,
		s.MatchesEnded,
		s.Continuations,
		s.AutoAssignRuns,
		s.AccrualRuns,
		s.PairingDuration,
		s.NotifSent,
		s.NotifFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncMatchesStarted() {
	s.MatchesStarted.Inc()
}

func (s *Service) IncMatchesEnded() {
	s.MatchesEnded.Inc()
}

func (s *Service) IncContinuations() {
	s.Continuations.Inc()
}

func (s *Service) IncAutoAssignRuns() {
	s.AutoAssignRuns.Inc()
}

func (s *Service) IncAccrualRuns() {
	s.AccrualRuns.Inc()
}

func (s *Service) ObservePairingDuration(duration float64) {
	s.PairingDuration.Observe(duration)
}

func (s *Service) IncNotifSent() {
	s.NotifSent.Inc()
}

func (s *Service) IncNotifFailed() {
	s.NotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
