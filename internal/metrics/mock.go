package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	matchesStarted   int
	matchesEnded     int
	continuations    int
	autoAssignRuns   int
	accrualRuns      int
	pairingDurations []float64
	notifSent        int
	notifFailed      int
	startupTime      float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		pairingDurations: make([]float64, 0),
	}
}

func (m *Mock) IncMatchesStarted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesStarted++
}

func (m *Mock) IncMatchesEnded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesEnded++
}

func (m *Mock) IncContinuations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.continuations++
}

func (m *Mock) IncAutoAssignRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoAssignRuns++
}

func (m *Mock) IncAccrualRuns() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accrualRuns++
}

func (m *Mock) ObservePairingDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairingDurations = append(m.pairingDurations, duration)
}

func (m *Mock) IncNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifSent++
}

func (m *Mock) IncNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// MatchesStarted returns the number of times IncMatchesStarted was called.
func (m *Mock) MatchesStarted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesStarted
}

// MatchesEnded returns the number of times IncMatchesEnded was called.
func (m *Mock) MatchesEnded() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesEnded
}

// Continuations returns the number of times IncContinuations was called.
func (m *Mock) Continuations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.continuations
}

// AutoAssignRuns returns the number of times IncAutoAssignRuns was called.
func (m *Mock) AutoAssignRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoAssignRuns
}

// AccrualRuns returns the number of times IncAccrualRuns was called.
func (m *Mock) AccrualRuns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.accrualRuns
}

// NotifSent returns the number of times IncNotifSent was called.
func (m *Mock) NotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifSent
}

// NotifFailed returns the number of times IncNotifFailed was called.
func (m *Mock) NotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifFailed
}
