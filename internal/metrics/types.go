package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	MatchesStarted     prometheus.Counter
	MatchesEnded       prometheus.Counter
	Continuations      prometheus.Counter
	AutoAssignRuns     prometheus.Counter
	AccrualRuns        prometheus.Counter
	PairingDuration    prometheus.Histogram
	NotifSent          prometheus.Counter
	NotifFailed        prometheus.Counter
	StartupTimeSeconds prometheus.Gauge
}
