package session

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
)

// CreateSession creates a session in PREPARING together with its numbered
// courts, all in one transaction.
func (s *store) CreateSession(name string, numberOfCourts, maxPlayersPerCourt, durationMinutes int) (*badminton.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if numberOfCourts < 1 || maxPlayersPerCourt < 4 || durationMinutes < 1 {
		return nil, fmt.Errorf("invalid session configuration: %w", badminton.ErrInvalidState)
	}

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := s.now()
	sess := &badminton.Session{
		ID:                 uuid.New().String(),
		Name:               name,
		NumberOfCourts:     numberOfCourts,
		MaxPlayersPerCourt: maxPlayersPerCourt,
		DurationMinutes:    durationMinutes,
		Status:             badminton.SessionPreparing,
		CreatedAt:          now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, name, number_of_courts, max_players_per_court, duration_minutes, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Name, sess.NumberOfCourts, sess.MaxPlayersPerCourt,
		sess.DurationMinutes, sess.Status, now.Unix(),
	)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to insert session: %w", err))
	}

	for n := 1; n <= numberOfCourts; n++ {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO courts (id, session_id, court_number, status)
			VALUES (?, ?, ?, ?)`,
			uuid.New().String(), sess.ID, n, badminton.CourtEmpty,
		)
		if err != nil {
			return nil, wrapTxErr(fmt.Errorf("failed to insert court %d: %w", n, err))
		}
	}

	if err := commit(tx); err != nil {
		return nil, err
	}
	log.Info("Created session", "sessionID", sess.ID, "name", name, "courts", numberOfCourts)
	return sess, nil
}

func (s *store) GetSession(sessionID string) (*badminton.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()
	return s.getSession(ctx, s.db, sessionID)
}

func (s *store) ListSessions() ([]badminton.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to query sessions: %w", err))
	}
	defer rows.Close()

	var sessions []badminton.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			log.Error("Failed to scan session row", "error", err)
			continue
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// StartSession moves a PREPARING session with at least one player to
// IN_PROGRESS and stamps its start time.
func (s *store) StartSession(sessionID string) (*badminton.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	sess, err := s.getSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status != badminton.SessionPreparing {
		return nil, fmt.Errorf("session %s is %s, expected PREPARING: %w", sessionID, sess.Status, badminton.ErrInvalidState)
	}

	var playerCount int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM players WHERE session_id = ?`, sessionID).Scan(&playerCount); err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to count players: %w", err))
	}
	if playerCount == 0 {
		return nil, fmt.Errorf("session %s has no players: %w", sessionID, badminton.ErrInvalidState)
	}

	now := s.now()
	_, err = tx.ExecContext(ctx, `UPDATE sessions SET status = ?, start_time = ? WHERE id = ?`,
		badminton.SessionInProgress, now.Unix(), sessionID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to start session: %w", err))
	}

	if err := commit(tx); err != nil {
		return nil, err
	}

	sess.Status = badminton.SessionInProgress
	sess.StartTime = &now
	log.Info("Session started", "sessionID", sessionID, "players", playerCount)
	return sess, nil
}

// EndSession finishes an IN_PROGRESS session: force-ends running matches,
// folds pending wait time, finishes active players and empties every court,
// atomically.
func (s *store) EndSession(sessionID string) (*badminton.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	sess, err := s.requireInProgress(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()

	_, err = tx.ExecContext(ctx, `UPDATE matches SET status = ?, end_time = ? WHERE session_id = ? AND status = ?`,
		badminton.MatchFinished, now.Unix(), sessionID, badminton.MatchInProgress)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to end running matches: %w", err))
	}

	// READY players are on a court that is about to be emptied, so they are
	// finished along with the waiting and playing ones.
	_, err = tx.ExecContext(ctx, `
		UPDATE players
		SET total_wait_time = total_wait_time + current_wait_time,
		    current_wait_time = 0,
		    status = ?,
		    current_court_id = NULL,
		    court_position = NULL
		WHERE session_id = ? AND status IN (?, ?, ?)`,
		badminton.PlayerFinished, sessionID,
		badminton.PlayerWaiting, badminton.PlayerReady, badminton.PlayerPlaying)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to finish players: %w", err))
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE courts SET status = ?, current_match_id = NULL, pre_selected_json = NULL WHERE session_id = ?`,
		badminton.CourtEmpty, sessionID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to empty courts: %w", err))
	}

	_, err = tx.ExecContext(ctx, `UPDATE sessions SET status = ?, end_time = ? WHERE id = ?`,
		badminton.SessionFinished, now.Unix(), sessionID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to finish session: %w", err))
	}

	if err := commit(tx); err != nil {
		return nil, err
	}

	sess.Status = badminton.SessionFinished
	sess.EndTime = &now
	log.Info("Session ended", "sessionID", sessionID)
	return sess, nil
}
