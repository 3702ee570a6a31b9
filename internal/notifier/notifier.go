package notifier

import (
	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// For matches starting on a court.
	SendMatchStarted(match *badminton.Match, courtNumber int, dryRun bool) error
	// For finished matches.
	SendMatchResult(match *badminton.Match, courtNumber int, dryRun bool) error
	// For the end-of-session wrap-up.
	SendSessionSummary(sess *badminton.Session, players []badminton.Player, dryRun bool) error
}
