package server

import (
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/jobpool/common/stats"
	"github.com/twitter/jobpool/scheduler/domain"
	"github.com/twitter/jobpool/scheduler/queue"
)

// Decides the fate of a freshly submitted entry: admitted, waiting or rejected.
// Must be called with mu held.
func (s *StatefulScheduler) admit(e *jobEntry) {
	total := s.resources.Snapshot().Total
	if !e.cost.Fits(total) {
		s.reject(e, "cost exceeds total resources")
		return
	}

	if !s.resources.Allocate(e.job.ID, e.cost) {
		s.enqueueWaiting(e)
		return
	}

	// the grant is held before anything is evicted, so a victim is only
	// ever evicted for a job that is admitted
	if s.active.IsFull() {
		victim := s.leastFavored(s.active)
		if victim == nil || !domain.MoreFavored(e.job, victim.job) {
			s.resources.Release(e.job.ID)
			s.reject(e, "active queue full")
			return
		}
		log.WithFields(
			log.Fields{
				"jobID":    victim.job.ID,
				"priority": victim.job.Priority,
				"for":      e.job.ID,
			}).Info("Evicting active job")
		s.finish(victim, domain.Evicted)
	}
	s.activate(e)
}

// Must be called with mu held.
func (s *StatefulScheduler) enqueueWaiting(e *jobEntry) {
	if !s.waiting.Add(e.job) {
		victim := s.leastFavored(s.waiting)
		if victim == nil || !domain.MoreFavored(e.job, victim.job) {
			s.reject(e, "waiting set full")
			return
		}
		log.WithFields(
			log.Fields{
				"jobID":    victim.job.ID,
				"priority": victim.job.Priority,
				"for":      e.job.ID,
			}).Info("Evicting waiting job")
		s.stat.Counter(stats.SchedEvictedWaitingCounter).Inc(1)
		s.finish(victim, domain.Rejected)
		s.waiting.Add(e.job)
	}
	e.state = domain.Waiting
	s.stat.Counter(stats.SchedWaitingCounter).Inc(1)
	log.WithFields(
		log.Fields{
			"jobID":    e.job.ID,
			"priority": e.job.Priority,
			"waiting":  s.waiting.Len(),
		}).Info("Job waiting for resources")
	s.listener.Waiting(e.snapshot())
}

// Moves an entry that already holds its grant into the active queue and
// hands it to a worker. Must be called with mu held.
func (s *StatefulScheduler) activate(e *jobEntry) {
	if !s.active.Add(e.job) {
		// callers check capacity first, this only guards the bookkeeping
		s.resources.Release(e.job.ID)
		s.reject(e, "active queue full")
		return
	}
	e.state = domain.Admitted
	s.stat.Counter(stats.SchedAdmittedCounter).Inc(1)
	log.WithFields(
		log.Fields{
			"jobID":    e.job.ID,
			"priority": e.job.Priority,
			"cost":     e.cost.String(),
		}).Info("Job admitted")
	s.listener.Admitted(e.snapshot())
	s.dispatch(e)
}

// Must be called with mu held.
func (s *StatefulScheduler) reject(e *jobEntry, reason string) {
	log.WithFields(
		log.Fields{
			"jobID":  e.job.ID,
			"reason": reason,
		}).Info("Job rejected")
	s.finish(e, domain.Rejected)
}

// finish is the single exit for every job: it cancels the worker, releases
// the grant, drops the entry from both queues and records its final
// snapshot. A no-op on an entry that is already done, so a grant can never be
// released twice. Must be called with mu held.
func (s *StatefulScheduler) finish(e *jobEntry, state domain.State) {
	if e.state.IsDone() {
		return
	}
	prev := e.state
	e.state = state
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if prev == domain.Admitted || prev == domain.Running {
		s.resources.Release(e.job.ID)
	}
	if prev == domain.Running {
		s.running--
	}
	s.active.Remove(e.job.ID)
	s.waiting.Remove(e.job.ID)
	delete(s.jobs, e.job.ID)

	snap := e.snapshot()
	s.history.Add(e.job.ID, snap)
	close(e.done)

	switch {
	case state == domain.Completed:
		s.stat.Counter(stats.SchedCompletedCounter).Inc(1)
	case state == domain.Cancelled:
		s.stat.Counter(stats.SchedCancelledCounter).Inc(1)
	case state == domain.Evicted:
		s.stat.Counter(stats.SchedEvictedActiveCounter).Inc(1)
	default:
		s.stat.Counter(stats.SchedRejectedCounter).Inc(1)
	}
	log.WithFields(
		log.Fields{
			"jobID": e.job.ID,
			"from":  prev,
			"to":    state,
		}).Debug("Job finished")
	s.listener.Finished(snap)
}

// Returns the entry in q that should be evicted first, nil if q is empty.
// Must be called with mu held.
func (s *StatefulScheduler) leastFavored(q *queue.JobQueue) *jobEntry {
	var victim *jobEntry
	for _, j := range q.All() {
		if victim == nil || domain.MoreFavored(victim.job, j) {
			victim = s.jobs[j.ID]
		}
	}
	return victim
}

// DrainWaiting admits waiting jobs most favored first, stopping at the first
// one that does not fit. Returns the number admitted.
func (s *StatefulScheduler) DrainWaiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.drain()
	s.updateGauges()
	return n
}

// Must be called with mu held.
func (s *StatefulScheduler) drain() int {
	candidates := s.waiting.All()
	if len(candidates) == 0 {
		return 0
	}
	defer s.stat.Latency(stats.SchedDrainLatency_ms).Time().Stop()
	s.stat.Counter(stats.SchedDrainCounter).Inc(1)
	sort.Sort(domain.ByFavor(candidates))

	admitted := []string{}
	for _, j := range candidates {
		if s.active.IsFull() {
			break
		}
		e := s.jobs[j.ID]
		if !s.resources.Allocate(j.ID, e.cost) {
			break
		}
		s.waiting.Remove(j.ID)
		s.activate(e)
		admitted = append(admitted, j.ID)
	}

	if len(admitted) > 0 {
		s.stat.Counter(stats.SchedDrainAdmittedCounter).Inc(int64(len(admitted)))
		log.WithFields(
			log.Fields{
				"admitted": admitted,
				"waiting":  s.waiting.Len(),
			}).Info("Drained waiting jobs")
	} else {
		log.Debugf("Drain admitted nothing, %d waiting", len(candidates))
	}
	s.listener.Drained(admitted)
	return len(admitted)
}

// Registered as the resource pool's release hook. The pool may release while
// mu is held, so the drain itself happens on drainLoop.
func (s *StatefulScheduler) signalDrain() {
	select {
	case s.drainCh <- struct{}{}:
	default:
	}
}

func (s *StatefulScheduler) drainLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.drainCh:
			s.DrainWaiting()
		case <-s.ctx.Done():
			return
		}
	}
}
