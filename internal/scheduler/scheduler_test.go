package scheduler

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/database"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/metrics"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/session"
)

func setupScheduler(t *testing.T) (*Scheduler, session.SessionStore, *metrics.Mock, func()) {
	t.Helper()

	db, teardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	store := session.New(db)
	mock := metrics.NewMock()
	sched := New(store, mock, metrics.New(db))
	return sched, store, mock, teardown
}

func TestRunAccrual_TouchesOnlyRunningSessions(t *testing.T) {
	sched, store, mock, teardown := setupScheduler(t)
	defer teardown()

	running, err := store.CreateSession("Running", 1, 8, 60)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err := store.AddPlayer(running.ID, fmt.Sprintf("Player %d", i+1), badminton.LevelTB)
		require.NoError(t, err)
	}
	_, err = store.StartSession(running.ID)
	require.NoError(t, err)

	preparing, err := store.CreateSession("Preparing", 1, 8, 60)
	require.NoError(t, err)
	idle, err := store.AddPlayer(preparing.ID, "Idle", badminton.LevelTB)
	require.NoError(t, err)

	sched.runAccrual()

	waiting, err := store.ListPlayers(running.ID)
	require.NoError(t, err)
	for _, p := range waiting {
		assert.Equal(t, 1, p.CurrentWaitTime)
	}

	got, err := store.GetPlayer(idle.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentWaitTime, "players of a session that has not started accrue nothing")

	assert.Equal(t, 1, mock.AccrualRuns())
}

func TestStartStop(t *testing.T) {
	sched, _, _, teardown := setupScheduler(t)
	defer teardown()

	require.NoError(t, sched.Start())
	sched.Stop()
}
