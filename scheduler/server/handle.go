package server

import (
	"github.com/twitter/jobpool/scheduler/domain"
)

// JobHandle tracks a submitted job.
type JobHandle struct {
	ID string

	// What Submit decided: Admitted, Waiting or Rejected.
	Outcome domain.State

	entry *jobEntry
	s     *StatefulScheduler
}

// Admitted is true if the job got resources at submission.
func (h *JobHandle) Admitted() bool {
	return h.Outcome == domain.Admitted
}

// Done is closed once the job reaches a terminal state.
func (h *JobHandle) Done() <-chan struct{} {
	return h.entry.done
}

// State returns the job's current state.
func (h *JobHandle) State() domain.State {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	return h.entry.state
}
