package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
)

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
type EventType string

const (
	EventMatchStarted EventType = "match-started"
	EventMatchEnded   EventType = "match-ended"
	EventSessionEnded EventType = "session-ended"
)

// MatchEvent is the payload for match-started and match-ended events.
type MatchEvent struct {
	MatchID     string    `msgpack:"match_id"`
	SessionID   string    `msgpack:"session_id"`
	CourtID     string    `msgpack:"court_id"`
	CourtNumber int       `msgpack:"court_number"`
	PlayerIDs   []string  `msgpack:"player_ids"`
	IsExtra     bool      `msgpack:"is_extra"`
	OccurredAt  time.Time `msgpack:"occurred_at"`
}

// SessionEvent is the payload for session-ended events.
type SessionEvent struct {
	SessionID   string    `msgpack:"session_id"`
	Name        string    `msgpack:"name"`
	PlayerCount int       `msgpack:"player_count"`
	MatchCount  int       `msgpack:"match_count"`
	OccurredAt  time.Time `msgpack:"occurred_at"`
}
