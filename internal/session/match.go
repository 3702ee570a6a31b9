package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
)

// createMatch inserts an IN_PROGRESS match on a court and flips the slotted
// players to PLAYING in the caller's transaction. Play starting is the point
// where a player's pending wait time folds into the session total and their
// match counter increments.
func (s *store) createMatch(ctx context.Context, tx *sql.Tx, sess *badminton.Session, courtID string, slots []badminton.PlayerSlot, names map[string]string) (*badminton.Match, error) {
	now := s.now()
	isExtra := false
	if end := sess.ScheduledEnd(); end != nil && now.After(*end) {
		isExtra = true
	}

	match := &badminton.Match{
		ID:        uuid.New().String(),
		SessionID: sess.ID,
		CourtID:   courtID,
		Status:    badminton.MatchInProgress,
		StartTime: now,
		IsExtra:   isExtra,
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO matches (id, session_id, court_id, status, start_time, is_extra)
		VALUES (?, ?, ?, ?, ?, ?)`,
		match.ID, match.SessionID, match.CourtID, match.Status, now.Unix(), isExtra)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to insert match: %w", err))
	}

	for _, slot := range slots {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO match_players (match_id, player_id, position) VALUES (?, ?, ?)`,
			match.ID, slot.PlayerID, slot.Position)
		if err != nil {
			return nil, wrapTxErr(fmt.Errorf("failed to insert match player %s: %w", slot.PlayerID, err))
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE players
			SET status = ?,
			    current_court_id = ?,
			    court_position = ?,
			    matches_played = matches_played + 1,
			    total_wait_time = total_wait_time + current_wait_time,
			    current_wait_time = 0
			WHERE id = ?`,
			badminton.PlayerPlaying, courtID, slot.Position, slot.PlayerID)
		if err != nil {
			return nil, wrapTxErr(fmt.Errorf("failed to start player %s: %w", slot.PlayerID, err))
		}
		match.Players = append(match.Players, badminton.MatchPlayer{
			MatchID:    match.ID,
			PlayerID:   slot.PlayerID,
			PlayerName: names[slot.PlayerID],
			Position:   slot.Position,
		})
	}

	return match, nil
}

// StartMatch moves a READY court with exactly 4 attached players to IN_USE,
// creating the match record.
func (s *store) StartMatch(courtID string) (*badminton.Court, *badminton.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	court, err := s.getCourt(ctx, tx, courtID)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.requireInProgress(ctx, tx, court.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if court.Status != badminton.CourtReady {
		return nil, nil, fmt.Errorf("court %d is %s, expected READY: %w", court.Number, court.Status, badminton.ErrInvalidState)
	}

	players, err := s.courtPlayers(ctx, tx, courtID)
	if err != nil {
		return nil, nil, err
	}
	if len(players) != 4 {
		return nil, nil, fmt.Errorf("court %d has %d attached players, expected 4: %w", court.Number, len(players), badminton.ErrInvalidState)
	}

	slots := make([]badminton.PlayerSlot, len(players))
	names := make(map[string]string, len(players))
	for i, player := range players {
		position := i
		if player.CourtPosition != nil {
			position = *player.CourtPosition
		}
		slots[i] = badminton.PlayerSlot{PlayerID: player.ID, Position: position}
		names[player.ID] = player.Name
	}

	match, err := s.createMatch(ctx, tx, sess, courtID, slots, names)
	if err != nil {
		return nil, nil, err
	}

	_, err = tx.ExecContext(ctx, `UPDATE courts SET status = ?, current_match_id = ? WHERE id = ?`,
		badminton.CourtInUse, match.ID, courtID)
	if err != nil {
		return nil, nil, wrapTxErr(fmt.Errorf("failed to occupy court: %w", err))
	}

	if err := commit(tx); err != nil {
		return nil, nil, err
	}

	court.Status = badminton.CourtInUse
	court.CurrentMatchID = &match.ID
	log.Info("Match started", "courtID", courtID, "court", court.Number, "matchID", match.ID, "extra", match.IsExtra)
	return court, match, nil
}

// EndMatch finishes the court's current match. If a pre-selection overlay is
// present and all 4 referenced players are still WAITING, the court rolls
// straight into the next match; otherwise the overlay is cleared and the
// court drops back to READY or EMPTY depending on how many players are
// waiting session-wide. Continuation is evaluated before the ended match's
// players are released, so overlay players are never counted through both
// paths.
func (s *store) EndMatch(courtID string, result *badminton.MatchResult) (*EndMatchOutcome, error) {
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
	sess, err := s.requireInProgress(ctx, tx, court.SessionID)
	if err != nil {
		return nil, err
	}
	if court.Status != badminton.CourtInUse || court.CurrentMatchID == nil {
		return nil, fmt.Errorf("court %d is %s with no running match: %w", court.Number, court.Status, badminton.ErrInvalidState)
	}

	match, err := s.getMatch(ctx, tx, *court.CurrentMatchID)
	if err != nil {
		return nil, err
	}
	if match.Status != badminton.MatchInProgress {
		return nil, fmt.Errorf("match %s is %s: %w", match.ID, match.Status, badminton.ErrInvalidState)
	}

	now := s.now()
	endTime := now
	match.Status = badminton.MatchFinished
	match.EndTime = &endTime
	var scoreArg, winnersArg any
	if result != nil {
		match.Score = &result.Score
		match.WinnerIDs = result.WinnerIDs
		scoreArg = result.Score
		if len(result.WinnerIDs) > 0 {
			blob, err := json.Marshal(result.WinnerIDs)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal winner ids: %w", err)
			}
			winnersArg = string(blob)
		}
	}
	_, err = tx.ExecContext(ctx, `UPDATE matches SET status = ?, end_time = ?, score = ?, winner_ids_json = ? WHERE id = ?`,
		badminton.MatchFinished, now.Unix(), scoreArg, winnersArg, match.ID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to finish match: %w", err))
	}

	// Continuation is decided against the overlay BEFORE the ended match's
	// players go back to WAITING.
	nextMatch, err := s.tryContinuation(ctx, tx, sess, court)
	if err != nil {
		return nil, err
	}

	// Release the ended match's players, skipping anyone carried into the
	// continuation so they are never counted through both paths.
	continuing := map[string]bool{}
	if nextMatch != nil {
		for _, mp := range nextMatch.Players {
			continuing[mp.PlayerID] = true
		}
	}
	for _, mp := range match.Players {
		if continuing[mp.PlayerID] {
			continue
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE players SET status = ?, current_court_id = NULL, court_position = NULL WHERE id = ?`,
			badminton.PlayerWaiting, mp.PlayerID)
		if err != nil {
			return nil, wrapTxErr(fmt.Errorf("failed to release player %s: %w", mp.PlayerID, err))
		}
	}

	if nextMatch != nil {
		_, err = tx.ExecContext(ctx, `UPDATE courts SET current_match_id = ?, pre_selected_json = NULL WHERE id = ?`,
			nextMatch.ID, courtID)
		if err != nil {
			return nil, wrapTxErr(fmt.Errorf("failed to roll court into next match: %w", err))
		}
		court.CurrentMatchID = &nextMatch.ID
		court.PreSelected = nil
	} else {
		waiting, err := s.waitingCount(ctx, tx, sess.ID)
		if err != nil {
			return nil, err
		}
		next := badminton.CourtEmpty
		if waiting >= 4 {
			next = badminton.CourtReady
		}
		_, err = tx.ExecContext(ctx, `UPDATE courts SET status = ?, current_match_id = NULL, pre_selected_json = NULL WHERE id = ?`,
			next, courtID)
		if err != nil {
			return nil, wrapTxErr(fmt.Errorf("failed to vacate court: %w", err))
		}
		court.Status = next
		court.CurrentMatchID = nil
		court.PreSelected = nil
	}

	if err := commit(tx); err != nil {
		return nil, err
	}

	log.Info("Match ended", "courtID", courtID, "court", court.Number, "matchID", match.ID, "continued", nextMatch != nil)
	return &EndMatchOutcome{EndedMatch: match, NextMatch: nextMatch, Court: court}, nil
}

// tryContinuation consumes the pre-selection overlay if every referenced
// player is still WAITING. A stale overlay (any player gone or busy) aborts
// the continuation; the caller clears it.
func (s *store) tryContinuation(ctx context.Context, tx *sql.Tx, sess *badminton.Session, court *badminton.Court) (*badminton.Match, error) {
	if len(court.PreSelected) != 4 {
		return nil, nil
	}

	names := make(map[string]string, 4)
	for _, slot := range court.PreSelected {
		player, err := s.getPlayer(ctx, tx, slot.PlayerID)
		if err != nil {
			if isNotFound(err) {
				log.Warn("Pre-selected player disappeared, aborting continuation", "courtID", court.ID, "playerID", slot.PlayerID)
				return nil, nil
			}
			return nil, err
		}
		if player.SessionID != sess.ID || player.Status != badminton.PlayerWaiting {
			log.Warn("Pre-selected player no longer available, aborting continuation",
				"courtID", court.ID, "playerID", slot.PlayerID, "status", player.Status)
			return nil, nil
		}
		names[player.ID] = player.Name
	}

	return s.createMatch(ctx, tx, sess, court.ID, court.PreSelected, names)
}

func (s *store) ListMatches(sessionID string) ([]badminton.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE session_id = ? ORDER BY start_time DESC`, sessionID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to query matches: %w", err))
	}
	defer rows.Close()

	var matches []badminton.Match
	for rows.Next() {
		match, err := scanMatch(rows)
		if err != nil {
			log.Error("Failed to scan match row", "error", err)
			continue
		}
		matches = append(matches, *match)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range matches {
		if err := s.loadMatchPlayers(ctx, s.db, &matches[i]); err != nil {
			return nil, err
		}
	}
	return matches, nil
}
