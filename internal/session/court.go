package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
)

func (s *store) GetCourt(courtID string) (*badminton.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()
	return s.getCourt(ctx, s.db, courtID)
}

func (s *store) ListCourts(sessionID string) ([]badminton.Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()
	return s.listCourts(ctx, s.db, sessionID)
}

func (s *store) listCourts(ctx context.Context, q querier, sessionID string) ([]badminton.Court, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+courtColumns+` FROM courts WHERE session_id = ? ORDER BY court_number`, sessionID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to query courts: %w", err))
	}
	defer rows.Close()

	var courts []badminton.Court
	for rows.Next() {
		court, err := scanCourt(rows)
		if err != nil {
			log.Error("Failed to scan court row", "error", err)
			continue
		}
		courts = append(courts, *court)
	}
	return courts, rows.Err()
}

func (s *store) CourtPlayers(courtID string) ([]badminton.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	if _, err := s.getCourt(ctx, s.db, courtID); err != nil {
		return nil, err
	}
	return s.courtPlayers(ctx, s.db, courtID)
}

// validateSlots checks the shape of a 4-player selection: 4 slots, distinct
// players, distinct positions 0-3.
func validateSlots(slots []badminton.PlayerSlot) error {
	if len(slots) != 4 {
		return fmt.Errorf("exactly 4 players required, got %d: %w", len(slots), badminton.ErrPlayersUnavailable)
	}
	seenPlayers := make(map[string]bool, 4)
	seenPositions := make(map[int]bool, 4)
	for _, slot := range slots {
		if slot.Position < 0 || slot.Position > 3 {
			return fmt.Errorf("position %d out of range: %w", slot.Position, badminton.ErrInvalidState)
		}
		if seenPlayers[slot.PlayerID] {
			return fmt.Errorf("player %s listed twice: %w", slot.PlayerID, badminton.ErrPlayersUnavailable)
		}
		if seenPositions[slot.Position] {
			return fmt.Errorf("position %d listed twice: %w", slot.Position, badminton.ErrInvalidState)
		}
		seenPlayers[slot.PlayerID] = true
		seenPositions[slot.Position] = true
	}
	return nil
}

// requireSelectable verifies a court can take a fresh 4-player selection:
// EMPTY, or READY out of a finished match with nobody attached yet.
func (s *store) requireSelectable(ctx context.Context, q querier, court *badminton.Court) error {
	switch court.Status {
	case badminton.CourtEmpty:
		return nil
	case badminton.CourtReady:
		attached, err := s.courtPlayers(ctx, q, court.ID)
		if err != nil {
			return err
		}
		if len(attached) > 0 {
			return fmt.Errorf("court %d already has %d attached players: %w", court.Number, len(attached), badminton.ErrInvalidState)
		}
		return nil
	default:
		return fmt.Errorf("court %d is %s, expected EMPTY or READY: %w", court.Number, court.Status, badminton.ErrInvalidState)
	}
}

// requireWaiting re-reads each slotted player inside the transaction and
// checks they all belong to the court's session and are still WAITING.
func (s *store) requireWaiting(ctx context.Context, q querier, sessionID string, slots []badminton.PlayerSlot) ([]badminton.Player, error) {
	players := make([]badminton.Player, 0, len(slots))
	for _, slot := range slots {
		player, err := s.getPlayer(ctx, q, slot.PlayerID)
		if err != nil {
			return nil, err
		}
		if player.SessionID != sessionID {
			return nil, fmt.Errorf("player %s belongs to another session: %w", slot.PlayerID, badminton.ErrPlayersUnavailable)
		}
		if player.Status != badminton.PlayerWaiting {
			return nil, fmt.Errorf("player %s is %s, expected WAITING: %w", slot.PlayerID, player.Status, badminton.ErrPlayersUnavailable)
		}
		players = append(players, *player)
	}
	return players, nil
}

// SelectPlayers attaches 4 waiting players at fixed positions to a court that
// is open for selection (EMPTY, or READY with no players after a finished
// match), moving it to READY.
func (s *store) SelectPlayers(courtID string, slots []badminton.PlayerSlot) (*badminton.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateSlots(slots); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	court, err := s.getCourt(ctx, tx, courtID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireInProgress(ctx, tx, court.SessionID); err != nil {
		return nil, err
	}
	if err := s.requireSelectable(ctx, tx, court); err != nil {
		return nil, err
	}

	if _, err := s.requireWaiting(ctx, tx, court.SessionID, slots); err != nil {
		return nil, err
	}

	for _, slot := range slots {
		_, err = tx.ExecContext(ctx, `
			UPDATE players SET status = ?, current_court_id = ?, court_position = ? WHERE id = ?`,
			badminton.PlayerReady, courtID, slot.Position, slot.PlayerID)
		if err != nil {
			return nil, wrapTxErr(fmt.Errorf("failed to attach player %s: %w", slot.PlayerID, err))
		}
	}

	_, err = tx.ExecContext(ctx, `UPDATE courts SET status = ? WHERE id = ?`, badminton.CourtReady, courtID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to mark court ready: %w", err))
	}

	if err := commit(tx); err != nil {
		return nil, err
	}

	court.Status = badminton.CourtReady
	log.Info("Selected players", "courtID", courtID, "court", court.Number)
	return court, nil
}

// DeselectPlayers returns a READY court and its attached players to their
// pre-selection state.
func (s *store) DeselectPlayers(courtID string) (*badminton.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	court, err := s.getCourt(ctx, tx, courtID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireInProgress(ctx, tx, court.SessionID); err != nil {
		return nil, err
	}
	if court.Status != badminton.CourtReady {
		return nil, fmt.Errorf("court %d is %s, expected READY: %w", court.Number, court.Status, badminton.ErrInvalidState)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE players SET status = ?, current_court_id = NULL, court_position = NULL
		WHERE current_court_id = ?`,
		badminton.PlayerWaiting, courtID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to release players: %w", err))
	}
	released, err := res.RowsAffected()
	if err != nil {
		return nil, wrapTxErr(err)
	}
	if released == 0 {
		return nil, fmt.Errorf("court %d has no attached players: %w", court.Number, badminton.ErrInvalidState)
	}

	_, err = tx.ExecContext(ctx, `UPDATE courts SET status = ? WHERE id = ?`, badminton.CourtEmpty, courtID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to empty court: %w", err))
	}

	if err := commit(tx); err != nil {
		return nil, err
	}

	court.Status = badminton.CourtEmpty
	log.Info("Deselected players", "courtID", courtID, "court", court.Number, "released", released)
	return court, nil
}

// PreSelect stores the next-match overlay on an IN_USE court. The referenced
// players stay WAITING; their availability is re-validated when the overlay
// is consumed, not here.
func (s *store) PreSelect(courtID string, slots []badminton.PlayerSlot) (*badminton.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateSlots(slots); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	court, err := s.getCourt(ctx, tx, courtID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireInProgress(ctx, tx, court.SessionID); err != nil {
		return nil, err
	}
	if court.Status != badminton.CourtInUse {
		return nil, fmt.Errorf("court %d is %s, expected IN_USE: %w", court.Number, court.Status, badminton.ErrInvalidState)
	}

	if _, err := s.requireWaiting(ctx, tx, court.SessionID, slots); err != nil {
		return nil, err
	}

	blob, err := json.Marshal(slots)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pre-selection: %w", err)
	}
	_, err = tx.ExecContext(ctx, `UPDATE courts SET pre_selected_json = ? WHERE id = ?`, string(blob), courtID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to store pre-selection: %w", err))
	}

	if err := commit(tx); err != nil {
		return nil, err
	}

	court.PreSelected = slots
	log.Info("Pre-selected players", "courtID", courtID, "court", court.Number)
	return court, nil
}

// CancelPreSelect clears the overlay. Calling it on a court without one is a
// no-op, so the operation is idempotent.
func (s *store) CancelPreSelect(courtID string) (*badminton.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	court, err := s.getCourt(ctx, s.db, courtID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireInProgress(ctx, s.db, court.SessionID); err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `UPDATE courts SET pre_selected_json = NULL WHERE id = ?`, courtID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to clear pre-selection: %w", err))
	}

	court.PreSelected = nil
	log.Info("Cancelled pre-selection", "courtID", courtID, "court", court.Number)
	return court, nil
}
