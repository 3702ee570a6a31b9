package session_test

import (
	"testing"

	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestPlayers_BalancedSplit(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	// startedSession cycles through the full level scale, so 8 players
	// carry scores [1, 1.5, 2, 3, 4, 4.5, 5, 6]. A perfect split exists.
	_, _, courts := startedSession(t, store, 8)

	suggestion, err := store.SuggestPlayers(courts[0].ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, suggestion.ScoreDifference)

	// Two disjoint pairs of distinct players.
	seen := map[string]bool{}
	for _, c := range []string{suggestion.Pair1[0].ID, suggestion.Pair1[1].ID, suggestion.Pair2[0].ID, suggestion.Pair2[1].ID} {
		assert.False(t, seen[c])
		seen[c] = true
	}
}

func TestSuggestPlayers_TopCountBoundsThePool(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	sess, players, courts := startedSession(t, store, 8)

	// Give the first four players the highest wait times so they form the
	// entire bounded pool.
	_, err := store.AccrueWaitTime(sess.ID, 10)
	require.NoError(t, err)
	for _, p := range players[4:] {
		_, err := store.ToggleInactive(p.ID)
		require.NoError(t, err)
		_, err = store.ToggleInactive(p.ID)
		require.NoError(t, err)
	}

	suggestion, err := store.SuggestPlayers(courts[0].ID, 4)
	require.NoError(t, err)

	pool := map[string]bool{}
	for _, p := range players[:4] {
		pool[p.ID] = true
	}
	for _, c := range []string{suggestion.Pair1[0].ID, suggestion.Pair1[1].ID, suggestion.Pair2[0].ID, suggestion.Pair2[1].ID} {
		assert.True(t, pool[c], "suggestion must only use the top 4 by wait time")
	}
}

func TestSuggestPlayers_Failures(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	_, players, courts := startedSession(t, store, 7)

	t.Run("insufficient waiting players", func(t *testing.T) {
		_, err := store.SelectPlayers(courts[0].ID, slotsFor(players[:4]))
		require.NoError(t, err)
		_, _, err = store.StartMatch(courts[0].ID)
		require.NoError(t, err)

		_, err = store.SuggestPlayers(courts[1].ID, 0)
		assert.ErrorIs(t, err, badminton.ErrInsufficientPlayers)
	})

	t.Run("court not empty", func(t *testing.T) {
		_, err := store.SuggestPlayers(courts[0].ID, 0)
		assert.ErrorIs(t, err, badminton.ErrInvalidState)
	})

	t.Run("court not found", func(t *testing.T) {
		_, err := store.SuggestPlayers("nope", 0)
		assert.ErrorIs(t, err, badminton.ErrNotFound)
	})
}

func TestAutoAssign_FillsEmptyCourts(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	sess, players, courts := startedSession(t, store, 9)

	// 2 empty courts, 9 waiting players: k = min(2, floor(9/4)) = 2,
	// consuming 8 players and leaving 1 untouched.
	result, err := store.AutoAssign(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.MatchesCreated)
	require.Len(t, result.Matches, 2)

	for _, court := range courts {
		got, err := store.GetCourt(court.ID)
		require.NoError(t, err)
		assert.Equal(t, badminton.CourtInUse, got.Status)
		require.NotNil(t, got.CurrentMatchID)
	}

	waiting, err := store.WaitingPlayers(sess.ID)
	require.NoError(t, err)
	require.Len(t, waiting, 1)

	playing := 0
	for _, p := range players {
		got, err := store.GetPlayer(p.ID)
		require.NoError(t, err)
		if got.Status == badminton.PlayerPlaying {
			playing++
		}
	}
	assert.Equal(t, 8, playing)
}

func TestAutoAssign_PrefersLongestWaiting(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	sess, players, _ := startedSession(t, store, 6)

	// Bump everyone, then reset two players so they are at the back of the
	// queue.
	_, err := store.AccrueWaitTime(sess.ID, 10)
	require.NoError(t, err)
	for _, p := range players[4:] {
		_, err := store.ToggleInactive(p.ID)
		require.NoError(t, err)
		_, err = store.ToggleInactive(p.ID)
		require.NoError(t, err)
	}

	result, err := store.AutoAssign(sess.ID)
	require.NoError(t, err)
	require.Equal(t, 1, result.MatchesCreated)

	batch := map[string]bool{}
	for _, mp := range result.Matches[0].Players {
		batch[mp.PlayerID] = true
	}
	for _, p := range players[:4] {
		assert.True(t, batch[p.ID], "the four longest-waiting players fill the court")
	}
}

func TestAutoAssign_InsufficientPlayers(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	sess, _, _ := startedSession(t, store, 3)

	_, err := store.AutoAssign(sess.ID)
	assert.ErrorIs(t, err, badminton.ErrInsufficientPlayers)
}

func TestAutoAssign_SkipsOccupiedCourts(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	sess, players, courts := startedSession(t, store, 8)

	_, err := store.SelectPlayers(courts[0].ID, slotsFor(players[:4]))
	require.NoError(t, err)
	_, _, err = store.StartMatch(courts[0].ID)
	require.NoError(t, err)

	// Only court 2 is empty; only one match can be created.
	result, err := store.AutoAssign(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.MatchesCreated)
	assert.Equal(t, courts[1].ID, result.Matches[0].CourtID)
}

func TestAutoAssign_RefillsReadyCourtAfterMatch(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	sess, players, courts := startedSession(t, store, 8)
	courtID := courts[0].ID

	_, err := store.SelectPlayers(courtID, slotsFor(players[:4]))
	require.NoError(t, err)
	_, _, err = store.StartMatch(courtID)
	require.NoError(t, err)
	outcome, err := store.EndMatch(courtID, nil)
	require.NoError(t, err)
	require.Equal(t, badminton.CourtReady, outcome.Court.Status)

	// One READY court from the finished match, one still EMPTY; both take a
	// batch.
	result, err := store.AutoAssign(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.MatchesCreated)

	for _, court := range courts {
		got, err := store.GetCourt(court.ID)
		require.NoError(t, err)
		assert.Equal(t, badminton.CourtInUse, got.Status)
	}
}
