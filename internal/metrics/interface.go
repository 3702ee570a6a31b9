package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncMatchesStarted()
	IncMatchesEnded()
	IncContinuations()
	IncAutoAssignRuns()
	IncAccrualRuns()
	ObservePairingDuration(duration float64)
	IncNotifSent()
	IncNotifFailed()
	SetStartupTime(duration float64)
}

// MetricsStore persists named counters in the database, so totals survive
// process restarts unlike the in-process Prometheus registry.
type MetricsStore interface {
	Increment(key string)
	GetAll() (map[string]int, error)
}
