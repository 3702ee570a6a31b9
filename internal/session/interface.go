package session

import (
	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/pairing"
)

// SessionStore is the scheduling engine. Every multi-record mutation runs in
// one atomic transaction and re-validates its preconditions inside that
// transaction, so a losing concurrent writer fails with ErrInvalidState or
// ErrPlayersUnavailable instead of corrupting state.
type SessionStore interface {
	// Session lifecycle.
	CreateSession(name string, numberOfCourts, maxPlayersPerCourt, durationMinutes int) (*badminton.Session, error)
	GetSession(sessionID string) (*badminton.Session, error)
	ListSessions() ([]badminton.Session, error)
	StartSession(sessionID string) (*badminton.Session, error)
	EndSession(sessionID string) (*badminton.Session, error)

	// Players.
	AddPlayer(sessionID, name string, level badminton.Level) (*badminton.Player, error)
	GetPlayer(playerID string) (*badminton.Player, error)
	ListPlayers(sessionID string) ([]badminton.Player, error)
	WaitingPlayers(sessionID string) ([]badminton.Player, error)
	ToggleInactive(playerID string) (*badminton.Player, error)
	AccrueWaitTime(sessionID string, minutes int) (int64, error)

	// Courts.
	GetCourt(courtID string) (*badminton.Court, error)
	ListCourts(sessionID string) ([]badminton.Court, error)
	CourtPlayers(courtID string) ([]badminton.Player, error)
	SelectPlayers(courtID string, slots []badminton.PlayerSlot) (*badminton.Court, error)
	DeselectPlayers(courtID string) (*badminton.Court, error)
	PreSelect(courtID string, slots []badminton.PlayerSlot) (*badminton.Court, error)
	CancelPreSelect(courtID string) (*badminton.Court, error)

	// Matches.
	StartMatch(courtID string) (*badminton.Court, *badminton.Match, error)
	EndMatch(courtID string, result *badminton.MatchResult) (*EndMatchOutcome, error)
	ListMatches(sessionID string) ([]badminton.Match, error)

	// Planning layers.
	SuggestPlayers(courtID string, topCount int) (*pairing.Suggestion, error)
	AutoAssign(sessionID string) (*AutoAssignResult, error)
}
