// Package badminton holds the entity types and status enumerations shared by
// the session scheduling engine. Statuses are closed string enums; anything
// unknown is rejected at the boundary by the Parse helpers.
package badminton

import "time"

// SessionStatus is the lifecycle state of a session. It only moves forward.
type SessionStatus string

const (
	SessionPreparing  SessionStatus = "PREPARING"
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionFinished   SessionStatus = "FINISHED"
)

// CourtStatus is the state of a single court.
type CourtStatus string

const (
	CourtEmpty CourtStatus = "EMPTY"
	CourtReady CourtStatus = "READY"
	CourtInUse CourtStatus = "IN_USE"
)

// PlayerStatus is the state of a player within a session.
type PlayerStatus string

const (
	PlayerWaiting  PlayerStatus = "WAITING"
	PlayerReady    PlayerStatus = "READY"
	PlayerPlaying  PlayerStatus = "PLAYING"
	PlayerInactive PlayerStatus = "INACTIVE"
	PlayerFinished PlayerStatus = "FINISHED"
)

// MatchStatus is the state of a match.
type MatchStatus string

const (
	MatchInProgress MatchStatus = "IN_PROGRESS"
	MatchFinished   MatchStatus = "FINISHED"
)

// Session is one run of a badminton gathering with configured courts and
// capacity. Courts and players belong to exactly one session.
type Session struct {
	ID                 string        `json:"id"`
	Name               string        `json:"name"`
	NumberOfCourts     int           `json:"number_of_courts"`
	MaxPlayersPerCourt int           `json:"max_players_per_court"`
	DurationMinutes    int           `json:"duration_minutes"`
	Status             SessionStatus `json:"status"`
	StartTime          *time.Time    `json:"start_time,omitempty"`
	EndTime            *time.Time    `json:"end_time,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
}

// ScheduledEnd returns the configured end of the session, or nil while the
// session has not started. A match beginning after this point is an extra
// match.
func (s *Session) ScheduledEnd() *time.Time {
	if s.StartTime == nil {
		return nil
	}
	end := s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
	return &end
}

// MaxPlayers is the session's player capacity.
func (s *Session) MaxPlayers() int {
	return s.NumberOfCourts * s.MaxPlayersPerCourt
}

// PlayerSlot pins a player to a court position. Positions 0/2 form one pair,
// 1/3 the other.
type PlayerSlot struct {
	PlayerID string `json:"player_id"`
	Position int    `json:"position"`
}

// Court is a physical playing area cycling through EMPTY/READY/IN_USE.
// PreSelected is an advisory overlay describing the next match to start when
// the current one ends; it is re-validated when consumed, never trusted.
type Court struct {
	ID             string       `json:"id"`
	SessionID      string       `json:"session_id"`
	Number         int          `json:"number"`
	Status         CourtStatus  `json:"status"`
	CurrentMatchID *string      `json:"current_match_id,omitempty"`
	PreSelected    []PlayerSlot `json:"pre_selected,omitempty"`
}

// Player is a participant in a session. CurrentWaitTime counts minutes since
// the player last started playing; TotalWaitTime is monotonic across the
// session and absorbs CurrentWaitTime whenever play starts or the session
// ends.
type Player struct {
	ID              string       `json:"id"`
	SessionID       string       `json:"session_id"`
	Name            string       `json:"name"`
	Level           Level        `json:"level"`
	Status          PlayerStatus `json:"status"`
	CurrentWaitTime int          `json:"current_wait_time"`
	TotalWaitTime   int          `json:"total_wait_time"`
	MatchesPlayed   int          `json:"matches_played"`
	CurrentCourtID  *string      `json:"current_court_id,omitempty"`
	CourtPosition   *int         `json:"court_position,omitempty"`
}

// MatchPlayer links a player to a match at a fixed position.
type MatchPlayer struct {
	MatchID    string `json:"match_id"`
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Position   int    `json:"position"`
}

// Match is one game occupying a court from start to end. IsExtra marks a
// match that began after the session's configured end time.
type Match struct {
	ID        string        `json:"id"`
	SessionID string        `json:"session_id"`
	CourtID   string        `json:"court_id"`
	Status    MatchStatus   `json:"status"`
	StartTime time.Time     `json:"start_time"`
	EndTime   *time.Time    `json:"end_time,omitempty"`
	IsExtra   bool          `json:"is_extra"`
	Score     *string       `json:"score,omitempty"`
	WinnerIDs []string      `json:"winner_ids,omitempty"`
	Players   []MatchPlayer `json:"players,omitempty"`
}

// MatchResult carries the optional outcome recorded when a match ends.
type MatchResult struct {
	Score     string   `json:"score"`
	WinnerIDs []string `json:"winner_ids"`
}
