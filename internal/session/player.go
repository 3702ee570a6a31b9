package session

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
)

// AddPlayer registers a player in a session. Players may join while the
// session is PREPARING or already IN_PROGRESS, up to the session's capacity.
func (s *store) AddPlayer(sessionID, name string, level badminton.Level) (*badminton.Player, error) {
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
	if sess.Status == badminton.SessionFinished {
		return nil, fmt.Errorf("session %s is finished: %w", sessionID, badminton.ErrInvalidState)
	}

	var playerCount int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM players WHERE session_id = ?`, sessionID).Scan(&playerCount); err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to count players: %w", err))
	}
	if playerCount >= sess.MaxPlayers() {
		return nil, fmt.Errorf("session %s is full (%d players): %w", sessionID, playerCount, badminton.ErrPlayersUnavailable)
	}

	player := &badminton.Player{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Name:      name,
		Level:     level,
		Status:    badminton.PlayerWaiting,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO players (id, session_id, name, level, status)
		VALUES (?, ?, ?, ?, ?)`,
		player.ID, player.SessionID, player.Name, player.Level, player.Status)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to insert player: %w", err))
	}

	if err := commit(tx); err != nil {
		return nil, err
	}
	log.Info("Added player", "sessionID", sessionID, "playerID", player.ID, "name", name, "level", level)
	return player, nil
}

func (s *store) GetPlayer(playerID string) (*badminton.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()
	return s.getPlayer(ctx, s.db, playerID)
}

func (s *store) ListPlayers(sessionID string) ([]badminton.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()
	return s.queryPlayers(ctx, s.db,
		`SELECT `+playerColumns+` FROM players WHERE session_id = ? ORDER BY name`, sessionID)
}

// WaitingPlayers returns a session's WAITING players, longest-waiting first.
// This is the candidate pool ordering both planning layers rely on.
func (s *store) WaitingPlayers(sessionID string) ([]badminton.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()
	return s.waitingPlayers(ctx, s.db, sessionID)
}

func (s *store) waitingPlayers(ctx context.Context, q querier, sessionID string) ([]badminton.Player, error) {
	return s.queryPlayers(ctx, q, `
		SELECT `+playerColumns+` FROM players
		WHERE session_id = ? AND status = ?
		ORDER BY current_wait_time DESC, name`, sessionID, badminton.PlayerWaiting)
}

// ToggleInactive flips a player between WAITING and INACTIVE, resetting the
// since-last-play counter. Any other status is rejected.
func (s *store) ToggleInactive(playerID string) (*badminton.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	player, err := s.getPlayer(ctx, tx, playerID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireInProgress(ctx, tx, player.SessionID); err != nil {
		return nil, err
	}

	var next badminton.PlayerStatus
	switch player.Status {
	case badminton.PlayerWaiting:
		next = badminton.PlayerInactive
	case badminton.PlayerInactive:
		next = badminton.PlayerWaiting
	default:
		return nil, fmt.Errorf("player %s is %s: %w", playerID, player.Status, badminton.ErrInvalidState)
	}

	_, err = tx.ExecContext(ctx, `UPDATE players SET status = ?, current_wait_time = 0 WHERE id = ?`, next, playerID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to toggle player: %w", err))
	}

	if err := commit(tx); err != nil {
		return nil, err
	}

	player.Status = next
	player.CurrentWaitTime = 0
	log.Info("Toggled player", "playerID", playerID, "status", next)
	return player, nil
}

// AccrueWaitTime adds minutes to every WAITING player's since-last-play
// counter with a single atomic increment. Safe to run concurrently with
// match transitions because it never touches players in any other status.
func (s *store) AccrueWaitTime(sessionID string, minutes int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if minutes <= 0 {
		return 0, fmt.Errorf("minutes must be positive: %w", badminton.ErrInvalidState)
	}

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	if _, err := s.requireInProgress(ctx, s.db, sessionID); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE players SET current_wait_time = current_wait_time + ?
		WHERE session_id = ? AND status = ?`,
		minutes, sessionID, badminton.PlayerWaiting)
	if err != nil {
		return 0, wrapTxErr(fmt.Errorf("failed to accrue wait time: %w", err))
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return 0, wrapTxErr(fmt.Errorf("failed to read accrual row count: %w", err))
	}
	log.Debug("Accrued wait time", "sessionID", sessionID, "minutes", minutes, "players", updated)
	return updated, nil
}
