package notifier

import (
	"sync"

	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Call records
	SendMatchStartedCalls []struct {
		Match       *badminton.Match
		CourtNumber int
	}
	SendMatchResultCalls []struct {
		Match       *badminton.Match
		CourtNumber int
	}
	SendSessionSummaryCalls []struct {
		Session *badminton.Session
		Players []badminton.Player
	}

	// Error overrides
	SendMatchStartedErr   error
	SendMatchResultErr    error
	SendSessionSummaryErr error
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchStartedCalls = nil
	m.SendMatchResultCalls = nil
	m.SendSessionSummaryCalls = nil
}

func (m *Mock) SendMatchStarted(match *badminton.Match, courtNumber int, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchStartedCalls = append(m.SendMatchStartedCalls, struct {
		Match       *badminton.Match
		CourtNumber int
	}{match, courtNumber})
	return m.SendMatchStartedErr
}

func (m *Mock) SendMatchResult(match *badminton.Match, courtNumber int, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendMatchResultCalls = append(m.SendMatchResultCalls, struct {
		Match       *badminton.Match
		CourtNumber int
	}{match, courtNumber})
	return m.SendMatchResultErr
}

func (m *Mock) SendSessionSummary(sess *badminton.Session, players []badminton.Player, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendSessionSummaryCalls = append(m.SendSessionSummaryCalls, struct {
		Session *badminton.Session
		Players []badminton.Player
	}{sess, players})
	return m.SendSessionSummaryErr
}

// MatchStartedCount returns the number of SendMatchStarted calls.
func (m *Mock) MatchStartedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendMatchStartedCalls)
}

// MatchResultCount returns the number of SendMatchResult calls.
func (m *Mock) MatchResultCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendMatchResultCalls)
}

// SessionSummaryCount returns the number of SendSessionSummary calls.
func (m *Mock) SessionSummaryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendSessionSummaryCalls)
}
