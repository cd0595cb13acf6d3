package server

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/jobpool/scheduler/domain"
)

// Starts the worker goroutine for a freshly admitted entry.
// Must be called with mu held.
func (s *StatefulScheduler) dispatch(e *jobEntry) {
	ctx, cancel := context.WithCancel(s.ctx)
	e.cancel = cancel
	s.wg.Add(1)
	go s.run(ctx, e)
}

// run simulates the job body: it waits for a worker slot, then for the job's
// duration, and ends early if ctx is cancelled. Either way the entry goes
// through finish, which releases its grant exactly once.
func (s *StatefulScheduler) run(ctx context.Context, e *jobEntry) {
	defer s.wg.Done()
	if err := s.workers.Acquire(ctx, 1); err != nil {
		s.complete(e, domain.Cancelled)
		return
	}
	defer s.workers.Release(1)
	if !s.markRunning(e) {
		return
	}

	timer := time.NewTimer(e.job.Duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		s.complete(e, domain.Completed)
	case <-ctx.Done():
		s.complete(e, domain.Cancelled)
	}
}

func (s *StatefulScheduler) markRunning(e *jobEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.state != domain.Admitted {
		return false
	}
	e.state = domain.Running
	s.running++
	s.updateGauges()
	log.WithFields(
		log.Fields{
			"jobID":     e.job.ID,
			"processID": e.job.ProcessID,
			"duration":  e.job.Duration,
		}).Info("Job running")
	return true
}

func (s *StatefulScheduler) complete(e *jobEntry, state domain.State) {
	s.mu.Lock()
	s.finish(e, state)
	s.updateGauges()
	s.mu.Unlock()

	s.DrainWaiting()
}
