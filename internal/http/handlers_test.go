package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/config"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/database"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/metrics"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/notifier"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/pubsub"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

// setupTestServer initializes a new server with a test database and mock clients.
func setupTestServer(t *testing.T) (*Server, *notifier.Mock, *pubsub.MockPubSubClient, func()) {
	t.Helper()

	db, dbTeardown, err := database.InitDB(":memory:", "", "", "../../migrations")
	require.NoError(t, err)

	store := session.New(db)
	cfg := config.Config{}

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)
	counters := metrics.New(db)
	notifierMock := notifier.NewMock()
	pubsubMock := pubsub.NewMock("TEST")

	server := NewServer(store, metricsSvc, counters, metricsHandler, cfg, notifierMock, pubsubMock)

	return server, notifierMock, pubsubMock, dbTeardown
}

func doJSON(t *testing.T, server *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	return rr
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), dst))
}

// runningSession drives the API through session creation, registration and
// start, returning the session with its courts and players.
func runningSession(t *testing.T, server *Server, playerCount int) (badminton.Session, []badminton.Court, []badminton.Player) {
	t.Helper()

	rr := doJSON(t, server, "POST", "/sessions", map[string]any{
		"name":                  "Test Night",
		"number_of_courts":      2,
		"max_players_per_court": 8,
		"duration_minutes":      120,
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var sess badminton.Session
	decodeInto(t, rr, &sess)

	levels := []string{"Y", "Y_PLUS", "TBY", "TB_MINUS", "TB", "TB_PLUS", "K", "G"}
	players := make([]badminton.Player, 0, playerCount)
	for i := 0; i < playerCount; i++ {
		rr := doJSON(t, server, "POST", "/sessions/"+sess.ID+"/players", map[string]any{
			"name":  fmt.Sprintf("Player %d", i+1),
			"level": levels[i%len(levels)],
		})
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		var p badminton.Player
		decodeInto(t, rr, &p)
		players = append(players, p)
	}

	rr = doJSON(t, server, "POST", "/sessions/"+sess.ID+"/start", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doJSON(t, server, "GET", "/sessions/"+sess.ID+"/courts", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var courts []badminton.Court
	decodeInto(t, rr, &courts)
	require.Len(t, courts, 2)

	return sess, courts, players
}

func slotsBody(players []badminton.Player) map[string]any {
	slots := make([]map[string]any, len(players))
	for i, p := range players {
		slots[i] = map[string]any{"player_id": p.ID, "position": i}
	}
	return map[string]any{"slots": slots}
}

func TestHealthCheckHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doJSON(t, server, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestCreateSessionHandler_RejectsBadJSON(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	req := httptest.NewRequest("POST", "/sessions", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetSessionHandler_NotFound(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doJSON(t, server, "GET", "/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStartSessionHandler_ConflictWithoutPlayers(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doJSON(t, server, "POST", "/sessions", map[string]any{
		"name": "Empty", "number_of_courts": 1, "max_players_per_court": 8, "duration_minutes": 60,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var sess badminton.Session
	decodeInto(t, rr, &sess)

	rr = doJSON(t, server, "POST", "/sessions/"+sess.ID+"/start", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAddPlayerHandler_RejectsUnknownLevel(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	rr := doJSON(t, server, "POST", "/sessions", map[string]any{
		"name": "S", "number_of_courts": 1, "max_players_per_court": 8, "duration_minutes": 60,
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	var sess badminton.Session
	decodeInto(t, rr, &sess)

	rr = doJSON(t, server, "POST", "/sessions/"+sess.ID+"/players", map[string]any{
		"name": "X", "level": "LEGEND",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMatchLifecycleHandlers(t *testing.T) {
	server, notifierMock, pubsubMock, teardown := setupTestServer(t)
	defer teardown()

	_, courts, players := runningSession(t, server, 8)
	courtID := courts[0].ID

	rr := doJSON(t, server, "POST", "/courts/"+courtID+"/select", slotsBody(players[:4]))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var court badminton.Court
	decodeInto(t, rr, &court)
	assert.Equal(t, badminton.CourtReady, court.Status)

	rr = doJSON(t, server, "POST", "/courts/"+courtID+"/start", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1, notifierMock.MatchStartedCount())
	require.Len(t, pubsubMock.SendMessageCalls, 1)
	assert.Equal(t, string(pubsub.EventMatchStarted), pubsubMock.SendMessageCalls[0].Topic)

	rr = doJSON(t, server, "POST", "/courts/"+courtID+"/end", map[string]any{
		"score":      "21-15",
		"winner_ids": []string{players[0].ID, players[2].ID},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var outcome session.EndMatchOutcome
	decodeInto(t, rr, &outcome)
	require.NotNil(t, outcome.EndedMatch)
	assert.Equal(t, badminton.MatchFinished, outcome.EndedMatch.Status)
	assert.Nil(t, outcome.NextMatch)
	assert.Equal(t, 1, notifierMock.MatchResultCount())
}

func TestStartMatchHandler_ConflictOnEmptyCourt(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	_, courts, _ := runningSession(t, server, 8)

	rr := doJSON(t, server, "POST", "/courts/"+courts[0].ID+"/start", nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestSelectPlayersHandler_UnprocessableOnBusyPlayers(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	_, courts, players := runningSession(t, server, 8)

	rr := doJSON(t, server, "POST", "/courts/"+courts[0].ID+"/select", slotsBody(players[:4]))
	require.Equal(t, http.StatusOK, rr.Code)

	// The same four players are READY now, so a second court cannot take them.
	rr = doJSON(t, server, "POST", "/courts/"+courts[1].ID+"/select", slotsBody(players[:4]))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestSuggestPlayersHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	_, courts, _ := runningSession(t, server, 8)

	rr := doJSON(t, server, "GET", "/courts/"+courts[0].ID+"/suggest", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var suggestion struct {
		ScoreDifference float64 `json:"score_difference"`
	}
	decodeInto(t, rr, &suggestion)
	assert.Equal(t, 0.0, suggestion.ScoreDifference)

	rr = doJSON(t, server, "GET", "/courts/"+courts[0].ID+"/suggest?top=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAutoAssignHandler(t *testing.T) {
	server, notifierMock, _, teardown := setupTestServer(t)
	defer teardown()

	sess, _, _ := runningSession(t, server, 9)

	rr := doJSON(t, server, "POST", "/sessions/"+sess.ID+"/auto-assign", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result session.AutoAssignResult
	decodeInto(t, rr, &result)
	assert.Equal(t, 2, result.MatchesCreated)
	assert.Equal(t, 2, notifierMock.MatchStartedCount())
}

func TestAutoAssignHandler_UnprocessableWithoutPlayers(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	sess, _, _ := runningSession(t, server, 3)

	rr := doJSON(t, server, "POST", "/sessions/"+sess.ID+"/auto-assign", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestToggleInactiveHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	_, _, players := runningSession(t, server, 5)

	rr := doJSON(t, server, "POST", "/players/"+players[4].ID+"/toggle-inactive", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var player badminton.Player
	decodeInto(t, rr, &player)
	assert.Equal(t, badminton.PlayerInactive, player.Status)
}

func TestEndSessionHandler_SendsSummary(t *testing.T) {
	server, notifierMock, pubsubMock, teardown := setupTestServer(t)
	defer teardown()

	sess, _, _ := runningSession(t, server, 5)

	rr := doJSON(t, server, "POST", "/sessions/"+sess.ID+"/end", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var ended badminton.Session
	decodeInto(t, rr, &ended)
	assert.Equal(t, badminton.SessionFinished, ended.Status)
	assert.Equal(t, 1, notifierMock.SessionSummaryCount())

	topics := make([]string, 0, len(pubsubMock.SendMessageCalls))
	for _, call := range pubsubMock.SendMessageCalls {
		topics = append(topics, call.Topic)
	}
	assert.Contains(t, topics, string(pubsub.EventSessionEnded))
}

func TestAccrueWaitTimeHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	sess, _, players := runningSession(t, server, 5)

	rr := doJSON(t, server, "POST", "/sessions/"+sess.ID+"/accrue", map[string]any{"minutes": 3})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		PlayersUpdated int64 `json:"players_updated"`
	}
	decodeInto(t, rr, &resp)
	assert.Equal(t, int64(5), resp.PlayersUpdated)

	rr = doJSON(t, server, "GET", "/players/"+players[0].ID, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var player badminton.Player
	decodeInto(t, rr, &player)
	assert.Equal(t, 3, player.CurrentWaitTime)
}

func TestPubSubPushHandler(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	payload, err := msgpack.Marshal(pubsub.MatchEvent{
		MatchID:     "match-1",
		SessionID:   "session-1",
		CourtNumber: 2,
		IsExtra:     true,
	})
	require.NoError(t, err)

	envelope := map[string]any{
		"message": map[string]any{
			"data":       payload,
			"attributes": map[string]string{"event": string(pubsub.EventMatchEnded)},
			"messageId":  "1",
		},
		"subscription": "projects/test/subscriptions/engine-events",
	}
	rr := doJSON(t, server, http.MethodPost, "/events/pubsub", envelope)
	require.Equal(t, http.StatusNoContent, rr.Code)

	counters, err := server.Counters.GetAll()
	require.NoError(t, err)
	assert.Equal(t, 1, counters[metrics.KeyEventsReceived])
}

func TestPubSubPushHandler_DropsUnknownEvent(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	envelope := map[string]any{
		"message": map[string]any{
			"data":       []byte("junk"),
			"attributes": map[string]string{"event": "court-painted"},
			"messageId":  "2",
		},
	}
	rr := doJSON(t, server, http.MethodPost, "/events/pubsub", envelope)
	require.Equal(t, http.StatusNoContent, rr.Code)

	counters, err := server.Counters.GetAll()
	require.NoError(t, err)
	assert.Zero(t, counters[metrics.KeyEventsReceived])
}

func TestPubSubPushHandler_RejectsBadEnvelope(t *testing.T) {
	server, _, _, teardown := setupTestServer(t)
	defer teardown()

	req := httptest.NewRequest(http.MethodPost, "/events/pubsub", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	server.Router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
