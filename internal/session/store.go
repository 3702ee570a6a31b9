package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
)

// txTimeout bounds every engine transaction. A transaction that cannot
// commit within this budget is surfaced as ErrTransactionTimeout.
const txTimeout = 15 * time.Second

// New creates a new SessionStore backed by db.
func New(db *sql.DB) SessionStore {
	return &store{db: db, now: time.Now}
}

// NewWithClock creates a SessionStore with an injected clock, for tests that
// need control over start/end timestamps and extra-match detection.
func NewWithClock(db *sql.DB, now func() time.Time) SessionStore {
	return &store{db: db, now: now}
}

// querier is satisfied by both *sql.DB and *sql.Tx so the scan helpers work
// inside and outside transactions.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func isNotFound(err error) bool {
	return errors.Is(err, badminton.ErrNotFound)
}

// wrapTxErr maps a store-level failure onto the engine taxonomy.
func wrapTxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", badminton.ErrTransactionTimeout, err)
	}
	return err
}

func (s *store) beginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to begin transaction: %w", err))
	}
	return tx, nil
}

func commit(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return wrapTxErr(fmt.Errorf("failed to commit transaction: %w", err))
	}
	return nil
}

const sessionColumns = `id, name, number_of_courts, max_players_per_court, duration_minutes, status, start_time, end_time, created_at`

func scanSession(scanner interface{ Scan(...any) error }) (*badminton.Session, error) {
	var sess badminton.Session
	var start, end sql.NullInt64
	var createdAt int64
	err := scanner.Scan(
		&sess.ID, &sess.Name, &sess.NumberOfCourts, &sess.MaxPlayersPerCourt,
		&sess.DurationMinutes, &sess.Status, &start, &end, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if start.Valid {
		t := time.Unix(start.Int64, 0)
		sess.StartTime = &t
	}
	if end.Valid {
		t := time.Unix(end.Int64, 0)
		sess.EndTime = &t
	}
	sess.CreatedAt = time.Unix(createdAt, 0)
	return &sess, nil
}

func (s *store) getSession(ctx context.Context, q querier, sessionID string) (*badminton.Session, error) {
	row := q.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, sessionID)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", sessionID, badminton.ErrNotFound)
		}
		return nil, wrapTxErr(fmt.Errorf("failed to get session: %w", err))
	}
	return sess, nil
}

// requireInProgress re-validates the session gate inside the caller's
// transaction. Every mutating engine op except session creation goes
// through here.
func (s *store) requireInProgress(ctx context.Context, q querier, sessionID string) (*badminton.Session, error) {
	sess, err := s.getSession(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != badminton.SessionInProgress {
		return nil, fmt.Errorf("session %s is %s: %w", sessionID, sess.Status, badminton.ErrInvalidState)
	}
	return sess, nil
}

const courtColumns = `id, session_id, court_number, status, current_match_id, pre_selected_json`

func scanCourt(scanner interface{ Scan(...any) error }) (*badminton.Court, error) {
	var court badminton.Court
	var matchID, preSelected sql.NullString
	err := scanner.Scan(&court.ID, &court.SessionID, &court.Number, &court.Status, &matchID, &preSelected)
	if err != nil {
		return nil, err
	}
	if matchID.Valid {
		court.CurrentMatchID = &matchID.String
	}
	if preSelected.Valid && preSelected.String != "" {
		if err := json.Unmarshal([]byte(preSelected.String), &court.PreSelected); err != nil {
			log.Error("Failed to unmarshal pre_selected_json", "error", err, "courtID", court.ID)
		}
	}
	return &court, nil
}

func (s *store) getCourt(ctx context.Context, q querier, courtID string) (*badminton.Court, error) {
	row := q.QueryRowContext(ctx, `SELECT `+courtColumns+` FROM courts WHERE id = ?`, courtID)
	court, err := scanCourt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("court %s: %w", courtID, badminton.ErrNotFound)
		}
		return nil, wrapTxErr(fmt.Errorf("failed to get court: %w", err))
	}
	return court, nil
}

const playerColumns = `id, session_id, name, level, status, current_wait_time, total_wait_time, matches_played, current_court_id, court_position`

func scanPlayer(scanner interface{ Scan(...any) error }) (*badminton.Player, error) {
	var player badminton.Player
	var courtID sql.NullString
	var position sql.NullInt64
	err := scanner.Scan(
		&player.ID, &player.SessionID, &player.Name, &player.Level, &player.Status,
		&player.CurrentWaitTime, &player.TotalWaitTime, &player.MatchesPlayed,
		&courtID, &position,
	)
	if err != nil {
		return nil, err
	}
	if courtID.Valid {
		player.CurrentCourtID = &courtID.String
	}
	if position.Valid {
		p := int(position.Int64)
		player.CourtPosition = &p
	}
	return &player, nil
}

func (s *store) getPlayer(ctx context.Context, q querier, playerID string) (*badminton.Player, error) {
	row := q.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, playerID)
	player, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("player %s: %w", playerID, badminton.ErrNotFound)
		}
		return nil, wrapTxErr(fmt.Errorf("failed to get player: %w", err))
	}
	return player, nil
}

func (s *store) queryPlayers(ctx context.Context, q querier, query string, args ...any) ([]badminton.Player, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to query players: %w", err))
	}
	defer rows.Close()

	var players []badminton.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			log.Error("Failed to scan player row", "error", err)
			continue
		}
		players = append(players, *player)
	}
	return players, rows.Err()
}

// courtPlayers returns the players currently attached to a court, ordered by
// their court position.
func (s *store) courtPlayers(ctx context.Context, q querier, courtID string) ([]badminton.Player, error) {
	return s.queryPlayers(ctx, q,
		`SELECT `+playerColumns+` FROM players WHERE current_court_id = ? ORDER BY court_position`, courtID)
}

func (s *store) waitingCount(ctx context.Context, q querier, sessionID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM players WHERE session_id = ? AND status = ?`,
		sessionID, badminton.PlayerWaiting).Scan(&n)
	if err != nil {
		return 0, wrapTxErr(fmt.Errorf("failed to count waiting players: %w", err))
	}
	return n, nil
}

const matchColumns = `id, session_id, court_id, status, start_time, end_time, is_extra, score, winner_ids_json`

func scanMatch(scanner interface{ Scan(...any) error }) (*badminton.Match, error) {
	var match badminton.Match
	var start int64
	var end sql.NullInt64
	var score, winners sql.NullString
	err := scanner.Scan(
		&match.ID, &match.SessionID, &match.CourtID, &match.Status,
		&start, &end, &match.IsExtra, &score, &winners,
	)
	if err != nil {
		return nil, err
	}
	match.StartTime = time.Unix(start, 0)
	if end.Valid {
		t := time.Unix(end.Int64, 0)
		match.EndTime = &t
	}
	if score.Valid {
		match.Score = &score.String
	}
	if winners.Valid && winners.String != "" {
		if err := json.Unmarshal([]byte(winners.String), &match.WinnerIDs); err != nil {
			log.Error("Failed to unmarshal winner_ids_json", "error", err, "matchID", match.ID)
		}
	}
	return &match, nil
}

func (s *store) getMatch(ctx context.Context, q querier, matchID string) (*badminton.Match, error) {
	row := q.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, matchID)
	match, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("match %s: %w", matchID, badminton.ErrNotFound)
		}
		return nil, wrapTxErr(fmt.Errorf("failed to get match: %w", err))
	}
	if err := s.loadMatchPlayers(ctx, q, match); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *store) loadMatchPlayers(ctx context.Context, q querier, match *badminton.Match) error {
	rows, err := q.QueryContext(ctx, `
		SELECT mp.match_id, mp.player_id, p.name, mp.position
		FROM match_players mp
		JOIN players p ON p.id = mp.player_id
		WHERE mp.match_id = ?
		ORDER BY mp.position`, match.ID)
	if err != nil {
		return wrapTxErr(fmt.Errorf("failed to query match players: %w", err))
	}
	defer rows.Close()

	match.Players = nil
	for rows.Next() {
		var mp badminton.MatchPlayer
		if err := rows.Scan(&mp.MatchID, &mp.PlayerID, &mp.PlayerName, &mp.Position); err != nil {
			log.Error("Failed to scan match player row", "error", err)
			continue
		}
		match.Players = append(match.Players, mp)
	}
	return rows.Err()
}
