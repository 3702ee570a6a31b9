package badminton

import "errors"

// Engine error taxonomy. Every failed precondition maps to one of these so
// callers can translate them into a uniform error surface with errors.Is.
var (
	// ErrNotFound means a referenced session, court, player or match does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState means the operation was attempted outside its legal
	// state, including a losing optimistic-concurrency re-validation.
	ErrInvalidState = errors.New("invalid state")

	// ErrPlayersUnavailable means a player count or player status
	// precondition was violated.
	ErrPlayersUnavailable = errors.New("players unavailable")

	// ErrInsufficientPlayers means fewer waiting players exist than the
	// operation needs.
	ErrInsufficientPlayers = errors.New("insufficient players")

	// ErrTransactionTimeout is surfaced when the store could not commit
	// within the transaction budget. Retryable by the caller.
	ErrTransactionTimeout = errors.New("transaction timeout")
)
