package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/metrics"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/pubsub"
)

// writeJSON renders v as a JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps engine errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, badminton.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, badminton.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, badminton.ErrPlayersUnavailable), errors.Is(err, badminton.ErrInsufficientPlayers):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, badminton.ErrTransactionTimeout):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeBody parses a JSON request body into dst. An empty body is allowed
// only when allowEmpty is set.
func decodeBody(r *http.Request, dst any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return nil
	}
	return fmt.Errorf("invalid request body: %w", err)
}

func (s *Server) dryRun(r *http.Request) bool {
	return s.Cfg.DryRun || isDryRunFromContext(r)
}

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) CountersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counters, err := s.Counters.GetAll()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, counters)
	}
}

// PubSubPushHandler receives engine events delivered by a push subscription.
// Undecodable or unknown messages are acked and dropped; a non-2xx answer
// would just make the broker redeliver them forever.
func (s *Server) PubSubPushHandler() http.HandlerFunc {
	type pushMessage struct {
		Data       []byte            `json:"data"`
		Attributes map[string]string `json:"attributes"`
		MessageID  string            `json:"messageId"`
	}
	type pushEnvelope struct {
		Message      pushMessage `json:"message"`
		Subscription string      `json:"subscription"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var env pushEnvelope
		if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid push envelope"})
			return
		}

		event := pubsub.EventType(env.Message.Attributes["event"])
		switch event {
		case pubsub.EventMatchStarted, pubsub.EventMatchEnded:
			var ev pubsub.MatchEvent
			if err := s.PubSub.ProcessMessage(env.Message.Data, &ev); err != nil {
				log.Error("Failed to decode match event, dropping", "messageID", env.Message.MessageID, "error", err)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			log.Info("Match event received", "event", event, "matchID", ev.MatchID, "court", ev.CourtNumber, "extra", ev.IsExtra)
		case pubsub.EventSessionEnded:
			var ev pubsub.SessionEvent
			if err := s.PubSub.ProcessMessage(env.Message.Data, &ev); err != nil {
				log.Error("Failed to decode session event, dropping", "messageID", env.Message.MessageID, "error", err)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			log.Info("Session event received", "event", event, "sessionID", ev.SessionID, "players", ev.PlayerCount, "matches", ev.MatchCount)
		default:
			log.Warn("Unknown push event, dropping", "event", event, "messageID", env.Message.MessageID)
			w.WriteHeader(http.StatusNoContent)
			return
		}

		s.Counters.Increment(metrics.KeyEventsReceived)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) CreateSessionHandler() http.HandlerFunc {
	type request struct {
		Name               string `json:"name"`
		NumberOfCourts     int    `json:"number_of_courts"`
		MaxPlayersPerCourt int    `json:"max_players_per_court"`
		DurationMinutes    int    `json:"duration_minutes"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeBody(r, &req, false); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		sess, err := s.Store.CreateSession(req.Name, req.NumberOfCourts, req.MaxPlayersPerCourt, req.DurationMinutes)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, sess)
	}
}

func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions, err := s.Store.ListSessions()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessions)
	}
}

func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Store.GetSession(r.PathValue("sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func (s *Server) StartSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.Store.StartSession(r.PathValue("sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sess)
	}
}

func (s *Server) EndSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("sessionID")
		sess, err := s.Store.EndSession(sessionID)
		if err != nil {
			writeError(w, err)
			return
		}

		players, perr := s.Store.ListPlayers(sessionID)
		if perr != nil {
			log.Error("Failed to load players for session summary", "sessionID", sessionID, "error", perr)
		} else if err := s.Notifier.SendSessionSummary(sess, players, s.dryRun(r)); err != nil {
			log.Error("Failed to send session summary", "sessionID", sessionID, "error", err)
		}

		matches, merr := s.Store.ListMatches(sessionID)
		if merr != nil {
			log.Error("Failed to load matches for session event", "sessionID", sessionID, "error", merr)
		}
		event := pubsub.SessionEvent{
			SessionID:   sess.ID,
			Name:        sess.Name,
			PlayerCount: len(players),
			MatchCount:  len(matches),
			OccurredAt:  time.Now(),
		}
		if err := s.PubSub.SendMessage(pubsub.EventSessionEnded, event); err != nil {
			log.Error("Failed to publish session-ended event", "sessionID", sessionID, "error", err)
		}

		writeJSON(w, http.StatusOK, sess)
	}
}

func (s *Server) AddPlayerHandler() http.HandlerFunc {
	type request struct {
		Name  string `json:"name"`
		Level string `json:"level"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := decodeBody(r, &req, false); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		level, err := badminton.ParseLevel(req.Level)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		player, err := s.Store.AddPlayer(r.PathValue("sessionID"), req.Name, level)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, player)
	}
}

func (s *Server) ListPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			players []badminton.Player
			err     error
		)
		if r.URL.Query().Get("status") == "WAITING" {
			players, err = s.Store.WaitingPlayers(r.PathValue("sessionID"))
		} else {
			players, err = s.Store.ListPlayers(r.PathValue("sessionID"))
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

func (s *Server) ListCourtsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courts, err := s.Store.ListCourts(r.PathValue("sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, courts)
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := s.Store.ListMatches(r.PathValue("sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func (s *Server) AutoAssignHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.PathValue("sessionID")
		s.Metrics.IncAutoAssignRuns()
		s.Counters.Increment(metrics.KeyAutoAssignRuns)

		result, err := s.Store.AutoAssign(sessionID)
		if err != nil {
			writeError(w, err)
			return
		}
		for i := range result.Matches {
			s.recordMatchStarted(r, &result.Matches[i])
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) AccrueWaitTimeHandler() http.HandlerFunc {
	type request struct {
		Minutes int `json:"minutes"`
	}
	type response struct {
		PlayersUpdated int64 `json:"players_updated"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{Minutes: 1}
		if err := decodeBody(r, &req, true); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		updated, err := s.Store.AccrueWaitTime(r.PathValue("sessionID"), req.Minutes)
		if err != nil {
			writeError(w, err)
			return
		}
		s.Metrics.IncAccrualRuns()
		s.Counters.Increment(metrics.KeyAccrualRuns)
		writeJSON(w, http.StatusOK, response{PlayersUpdated: updated})
	}
}

func (s *Server) GetCourtHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		court, err := s.Store.GetCourt(r.PathValue("courtID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, court)
	}
}

func (s *Server) CourtPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Store.CourtPlayers(r.PathValue("courtID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

func (s *Server) SuggestPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topCount := 0
		if topStr := r.URL.Query().Get("top"); topStr != "" {
			parsed, err := strconv.Atoi(topStr)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid 'top' parameter"})
				return
			}
			topCount = parsed
		}

		started := time.Now()
		suggestion, err := s.Store.SuggestPlayers(r.PathValue("courtID"), topCount)
		s.Metrics.ObservePairingDuration(time.Since(started).Seconds())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, suggestion)
	}
}

type slotsRequest struct {
	Slots []badminton.PlayerSlot `json:"slots"`
}

func (s *Server) SelectPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req slotsRequest
		if err := decodeBody(r, &req, false); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		court, err := s.Store.SelectPlayers(r.PathValue("courtID"), req.Slots)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, court)
	}
}

func (s *Server) DeselectPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		court, err := s.Store.DeselectPlayers(r.PathValue("courtID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, court)
	}
}

func (s *Server) PreSelectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req slotsRequest
		if err := decodeBody(r, &req, false); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		court, err := s.Store.PreSelect(r.PathValue("courtID"), req.Slots)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, court)
	}
}

func (s *Server) CancelPreSelectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		court, err := s.Store.CancelPreSelect(r.PathValue("courtID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, court)
	}
}

func (s *Server) StartMatchHandler() http.HandlerFunc {
	type response struct {
		Court *badminton.Court `json:"court"`
		Match *badminton.Match `json:"match"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		court, match, err := s.Store.StartMatch(r.PathValue("courtID"))
		if err != nil {
			writeError(w, err)
			return
		}
		s.recordMatchStarted(r, match)
		writeJSON(w, http.StatusOK, response{Court: court, Match: match})
	}
}

func (s *Server) EndMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var result badminton.MatchResult
		if err := decodeBody(r, &result, true); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		var resultPtr *badminton.MatchResult
		if result.Score != "" || len(result.WinnerIDs) > 0 {
			resultPtr = &result
		}

		outcome, err := s.Store.EndMatch(r.PathValue("courtID"), resultPtr)
		if err != nil {
			writeError(w, err)
			return
		}

		s.Metrics.IncMatchesEnded()
		s.Counters.Increment(metrics.KeyMatchesEnded)
		if err := s.Notifier.SendMatchResult(outcome.EndedMatch, outcome.Court.Number, s.dryRun(r)); err != nil {
			log.Error("Failed to send match result", "matchID", outcome.EndedMatch.ID, "error", err)
		}
		s.publishMatchEvent(pubsub.EventMatchEnded, outcome.EndedMatch, outcome.Court.Number)

		// A consumed pre-selection chains straight into the next match.
		if outcome.NextMatch != nil {
			s.Metrics.IncContinuations()
			s.Counters.Increment(metrics.KeyContinuations)
			s.recordMatchStarted(r, outcome.NextMatch)
		}

		writeJSON(w, http.StatusOK, outcome)
	}
}

func (s *Server) GetPlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := s.Store.GetPlayer(r.PathValue("playerID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, player)
	}
}

func (s *Server) ToggleInactiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		player, err := s.Store.ToggleInactive(r.PathValue("playerID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, player)
	}
}

// recordMatchStarted applies the shared side effects of a match starting:
// metrics, a notification and a published event.
func (s *Server) recordMatchStarted(r *http.Request, match *badminton.Match) {
	s.Metrics.IncMatchesStarted()
	s.Counters.Increment(metrics.KeyMatchesStarted)

	courtNumber := 0
	if court, err := s.Store.GetCourt(match.CourtID); err == nil {
		courtNumber = court.Number
	}
	if err := s.Notifier.SendMatchStarted(match, courtNumber, s.dryRun(r)); err != nil {
		log.Error("Failed to send match started notification", "matchID", match.ID, "error", err)
	}
	s.publishMatchEvent(pubsub.EventMatchStarted, match, courtNumber)
}

func (s *Server) publishMatchEvent(topic pubsub.EventType, match *badminton.Match, courtNumber int) {
	playerIDs := make([]string, 0, len(match.Players))
	for _, p := range match.Players {
		playerIDs = append(playerIDs, p.PlayerID)
	}
	event := pubsub.MatchEvent{
		MatchID:     match.ID,
		SessionID:   match.SessionID,
		CourtID:     match.CourtID,
		CourtNumber: courtNumber,
		PlayerIDs:   playerIDs,
		IsExtra:     match.IsExtra,
		OccurredAt:  time.Now(),
	}
	if err := s.PubSub.SendMessage(topic, event); err != nil {
		log.Error("Failed to publish match event", "topic", topic, "matchID", match.ID, "error", err)
	}
}
