package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/pairing"
)

// defaultSuggestPool caps the candidate pool when the caller does not supply
// one. C(8,4)x3 = 210 split evaluations.
const defaultSuggestPool = 8

// SuggestPlayers runs the balanced pairing engine over the longest-waiting
// players for a court open for selection. The result is advisory; nothing is
// mutated.
func (s *store) SuggestPlayers(courtID string, topCount int) (*pairing.Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topCount <= 0 {
		topCount = defaultSuggestPool
	}

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	court, err := s.getCourt(ctx, s.db, courtID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireInProgress(ctx, s.db, court.SessionID); err != nil {
		return nil, err
	}
	if err := s.requireSelectable(ctx, s.db, court); err != nil {
		return nil, err
	}

	waiting, err := s.waitingPlayers(ctx, s.db, court.SessionID)
	if err != nil {
		return nil, err
	}
	if len(waiting) < 4 {
		return nil, fmt.Errorf("need 4 waiting players, have %d: %w", len(waiting), badminton.ErrInsufficientPlayers)
	}
	if len(waiting) > topCount {
		waiting = waiting[:topCount]
	}

	pool := make([]pairing.Candidate, len(waiting))
	for i, player := range waiting {
		pool[i] = pairing.Candidate{ID: player.ID, Name: player.Name, Score: player.Level.Score()}
	}
	return pairing.BestSplit(pool)
}

// AutoAssign fills every court open for selection from the waiting pool in
// one pass, batching players in descending wait-time order. Fairness by wait
// time, not skill balance. Each court's batch is its own transaction; a
// failed court does not undo the ones before it.
func (s *store) AutoAssign(sessionID string) (*AutoAssignResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), txTimeout)
	defer cancel()

	if _, err := s.requireInProgress(ctx, s.db, sessionID); err != nil {
		return nil, err
	}

	courts, err := s.listCourts(ctx, s.db, sessionID)
	if err != nil {
		return nil, err
	}
	var open []badminton.Court
	for i := range courts {
		err := s.requireSelectable(ctx, s.db, &courts[i])
		if errors.Is(err, badminton.ErrInvalidState) {
			continue
		}
		if err != nil {
			return nil, err
		}
		open = append(open, courts[i])
	}

	waiting, err := s.waitingPlayers(ctx, s.db, sessionID)
	if err != nil {
		return nil, err
	}

	k := len(waiting) / 4
	if len(open) < k {
		k = len(open)
	}
	if k == 0 {
		return nil, fmt.Errorf("%d open courts, %d waiting players: %w",
			len(open), len(waiting), badminton.ErrInsufficientPlayers)
	}

	result := &AutoAssignResult{}
	for i := 0; i < k; i++ {
		batch := waiting[i*4 : i*4+4]
		match, err := s.assignBatch(ctx, open[i].ID, batch)
		if err != nil {
			log.Warn("Auto-assign batch failed, skipping court",
				"courtID", open[i].ID, "court", open[i].Number, "error", err)
			continue
		}
		result.MatchesCreated++
		result.Matches = append(result.Matches, *match)
	}

	log.Info("Auto-assign finished", "sessionID", sessionID, "created", result.MatchesCreated, "planned", k)
	return result, nil
}

// assignBatch performs the equivalent of select+start for one court in a
// single transaction, re-validating that the court is still open for
// selection and the batch players are still WAITING.
func (s *store) assignBatch(ctx context.Context, courtID string, batch []badminton.Player) (*badminton.Match, error) {
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
	if err := s.requireSelectable(ctx, tx, court); err != nil {
		return nil, err
	}

	slots := make([]badminton.PlayerSlot, len(batch))
	for i, player := range batch {
		slots[i] = badminton.PlayerSlot{PlayerID: player.ID, Position: i}
	}
	names := make(map[string]string, len(batch))
	players, err := s.requireWaiting(ctx, tx, court.SessionID, slots)
	if err != nil {
		return nil, err
	}
	for _, player := range players {
		names[player.ID] = player.Name
	}

	match, err := s.createMatch(ctx, tx, sess, courtID, slots, names)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `UPDATE courts SET status = ?, current_match_id = ? WHERE id = ?`,
		badminton.CourtInUse, match.ID, courtID)
	if err != nil {
		return nil, wrapTxErr(fmt.Errorf("failed to occupy court: %w", err))
	}

	if err := commit(tx); err != nil {
		return nil, err
	}
	return match, nil
}
