// Package scheduler runs the background jobs that keep a live session
// honest, currently just the per-minute wait-time accrual.
package scheduler

import (
	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/nhatcuongboy/csbadminton-sub001/internal/badminton"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/metrics"
	"github.com/nhatcuongboy/csbadminton-sub001/internal/session"
)

// accrualSpec fires at the top of every minute.
const accrualSpec = "* * * * *"

// Scheduler owns the cron runner and the jobs registered on it.
type Scheduler struct {
	cron     *cron.Cron
	store    session.SessionStore
	metrics  metrics.Metrics
	counters metrics.MetricsStore
}

// New creates a Scheduler; call Start to begin ticking.
func New(store session.SessionStore, m metrics.Metrics, counters metrics.MetricsStore) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		store:    store,
		metrics:  m,
		counters: counters,
	}
}

// Start registers the jobs and starts the cron runner in its own goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(accrualSpec, s.runAccrual); err != nil {
		return err
	}
	s.cron.Start()
	log.Info("Scheduler started", "accrual", accrualSpec)
	return nil
}

// Stop halts the cron runner and waits for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}

// runAccrual adds one minute of wait time to every WAITING player of every
// running session. Failures are logged and skipped; the next tick retries.
func (s *Scheduler) runAccrual() {
	sessions, err := s.store.ListSessions()
	if err != nil {
		log.Error("Accrual tick failed to list sessions", "error", err)
		return
	}

	for _, sess := range sessions {
		if sess.Status != badminton.SessionInProgress {
			continue
		}
		touched, err := s.store.AccrueWaitTime(sess.ID, 1)
		if err != nil {
			log.Error("Accrual failed for session", "sessionID", sess.ID, "error", err)
			continue
		}
		log.Debug("Accrued wait time", "sessionID", sess.ID, "players", touched)
	}

	s.metrics.IncAccrualRuns()
	s.counters.Increment(metrics.KeyAccrualRuns)
}
