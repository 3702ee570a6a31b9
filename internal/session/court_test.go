package session_test

import (
	"testing"

	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectDeselect_RoundTrip(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	_, players, courts := startedSession(t, store, 6)
	courtID := courts[0].ID

	court, err := store.SelectPlayers(courtID, slotsFor(players[:4]))
	require.NoError(t, err)
	assert.Equal(t, badminton.CourtReady, court.Status)

	for i, p := range players[:4] {
		got, err := store.GetPlayer(p.ID)
		require.NoError(t, err)
		assert.Equal(t, badminton.PlayerReady, got.Status)
		require.NotNil(t, got.CurrentCourtID)
		assert.Equal(t, courtID, *got.CurrentCourtID)
		require.NotNil(t, got.CourtPosition)
		assert.Equal(t, i, *got.CourtPosition)
	}

	court, err = store.DeselectPlayers(courtID)
	require.NoError(t, err)
	assert.Equal(t, badminton.CourtEmpty, court.Status)

	// Identical to the pre-selection state.
	for _, p := range players[:4] {
		got, err := store.GetPlayer(p.ID)
		require.NoError(t, err)
		assert.Equal(t, badminton.PlayerWaiting, got.Status)
		assert.Nil(t, got.CurrentCourtID)
		assert.Nil(t, got.CourtPosition)
	}
}

func TestSelectPlayers_Preconditions(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	_, players, courts := startedSession(t, store, 6)
	courtID := courts[0].ID

	t.Run("rejects wrong player count", func(t *testing.T) {
		_, err := store.SelectPlayers(courtID, slotsFor(players[:3]))
		assert.ErrorIs(t, err, badminton.ErrPlayersUnavailable)
	})

	t.Run("rejects duplicate player", func(t *testing.T) {
		slots := slotsFor(players[:4])
		slots[3].PlayerID = slots[0].PlayerID
		_, err := store.SelectPlayers(courtID, slots)
		assert.ErrorIs(t, err, badminton.ErrPlayersUnavailable)
	})

	t.Run("rejects duplicate position", func(t *testing.T) {
		slots := slotsFor(players[:4])
		slots[3].Position = 0
		_, err := store.SelectPlayers(courtID, slots)
		assert.ErrorIs(t, err, badminton.ErrInvalidState)
	})

	t.Run("rejects unknown player", func(t *testing.T) {
		slots := slotsFor(players[:4])
		slots[0].PlayerID = "ghost"
		_, err := store.SelectPlayers(courtID, slots)
		assert.ErrorIs(t, err, badminton.ErrNotFound)
	})

	t.Run("rejects unknown court", func(t *testing.T) {
		_, err := store.SelectPlayers("nope", slotsFor(players[:4]))
		assert.ErrorIs(t, err, badminton.ErrNotFound)
	})

	t.Run("rejects non-waiting player", func(t *testing.T) {
		_, err := store.ToggleInactive(players[4].ID)
		require.NoError(t, err)
		slots := slotsFor([]badminton.Player{players[0], players[1], players[2], players[4]})
		_, err = store.SelectPlayers(courtID, slots)
		assert.ErrorIs(t, err, badminton.ErrPlayersUnavailable)
	})

	t.Run("rejects court with players attached", func(t *testing.T) {
		_, err := store.SelectPlayers(courtID, slotsFor(players[:4]))
		require.NoError(t, err)
		_, err = store.SelectPlayers(courtID, slotsFor(players[:4]))
		assert.ErrorIs(t, err, badminton.ErrInvalidState)
	})
}

func TestDeselectPlayers_RequiresReadyCourt(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	_, _, courts := startedSession(t, store, 5)

	_, err := store.DeselectPlayers(courts[0].ID)
	assert.ErrorIs(t, err, badminton.ErrInvalidState)
}

func TestPreSelect_RequiresCourtInUse(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	_, players, courts := startedSession(t, store, 8)
	courtID := courts[0].ID

	_, err := store.PreSelect(courtID, slotsFor(players[4:8]))
	assert.ErrorIs(t, err, badminton.ErrInvalidState)

	_, err = store.SelectPlayers(courtID, slotsFor(players[:4]))
	require.NoError(t, err)
	_, _, err = store.StartMatch(courtID)
	require.NoError(t, err)

	court, err := store.PreSelect(courtID, slotsFor(players[4:8]))
	require.NoError(t, err)
	require.Len(t, court.PreSelected, 4)

	// Pre-selection is an overlay: the referenced players stay WAITING.
	for _, p := range players[4:8] {
		got, err := store.GetPlayer(p.ID)
		require.NoError(t, err)
		assert.Equal(t, badminton.PlayerWaiting, got.Status)
		assert.Nil(t, got.CurrentCourtID)
	}
}

func TestPreSelect_RejectsBusyPlayers(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	_, players, courts := startedSession(t, store, 8)

	_, err := store.SelectPlayers(courts[0].ID, slotsFor(players[:4]))
	require.NoError(t, err)
	_, _, err = store.StartMatch(courts[0].ID)
	require.NoError(t, err)

	// One of the proposed players is already playing.
	slots := slotsFor([]badminton.Player{players[4], players[5], players[6], players[0]})
	_, err = store.PreSelect(courts[0].ID, slots)
	assert.ErrorIs(t, err, badminton.ErrPlayersUnavailable)
}

func TestCancelPreSelect_Idempotent(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	_, players, courts := startedSession(t, store, 8)
	courtID := courts[0].ID

	_, err := store.SelectPlayers(courtID, slotsFor(players[:4]))
	require.NoError(t, err)
	_, _, err = store.StartMatch(courtID)
	require.NoError(t, err)
	_, err = store.PreSelect(courtID, slotsFor(players[4:8]))
	require.NoError(t, err)

	court, err := store.CancelPreSelect(courtID)
	require.NoError(t, err)
	assert.Empty(t, court.PreSelected)

	// A second cancel leaves the court unchanged.
	again, err := store.CancelPreSelect(courtID)
	require.NoError(t, err)
	assert.Equal(t, court.Status, again.Status)
	assert.Empty(t, again.PreSelected)
}

func TestCourtPlayers_OrderedByPosition(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	_, players, courts := startedSession(t, store, 6)

	slots := slotsFor(players[:4])
	// Scramble positions to prove the ordering comes from court_position.
	slots[0].Position = 3
	slots[3].Position = 0
	_, err := store.SelectPlayers(courts[0].ID, slots)
	require.NoError(t, err)

	attached, err := store.CourtPlayers(courts[0].ID)
	require.NoError(t, err)
	require.Len(t, attached, 4)
	assert.Equal(t, players[3].ID, attached[0].ID)
	assert.Equal(t, players[0].ID, attached[3].ID)
}

func TestCancelPreSelect_RequiresRunningSession(t *testing.T) {
	store, _, teardown := setupTestStore(t)
	defer teardown()

	sess, _, courts := startedSession(t, store, 4)

	_, err := store.EndSession(sess.ID)
	require.NoError(t, err)

	_, err = store.CancelPreSelect(courts[0].ID)
	assert.ErrorIs(t, err, badminton.ErrInvalidState)
}
