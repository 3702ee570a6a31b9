package session

import (
	"database/sql"
	"sync"
	"time"

	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
)

// store handles all database operations for the scheduling engine.
type store struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// EndMatchOutcome is the result of ending a match. NextMatch is non-nil when
// a valid pre-selection rolled the court directly into its next match.
type EndMatchOutcome struct {
	EndedMatch *badminton.Match `json:"ended_match"`
	NextMatch  *badminton.Match `json:"next_match,omitempty"`
	Court      *badminton.Court `json:"court"`
}

// AutoAssignResult reports how many matches a batch run actually created.
// A failure on one court does not roll back the courts completed before it.
type AutoAssignResult struct {
	MatchesCreated int               `json:"matches_created"`
	Matches        []badminton.Match `json:"matches"`
}
