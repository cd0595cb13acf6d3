// Package domain provides definitions for jobpool Jobs
package domain

import (
	"fmt"
	"time"

	"github.com/twitter/jobpool/common/allocator"
)

// Priority orders jobs competing for resources. A numerically smaller
// Priority is more favored: it is admitted first and evicted last.
type Priority int

// JobContext is the definition the client sent us
type JobContext struct {
	// Generated by the Factory when empty
	ID       string
	Name     string
	User     string
	Priority Priority
	// Type tag resolved by the Factory, ex: "General"
	Type    string
	Payload string
	// Submitting process, carried through to logs
	ProcessID int
	// How long the simulated job body runs once dispatched
	Duration time.Duration
}

func (jc *JobContext) String() string {
	return fmt.Sprintf("id:%s, name:%s, user:%s, type:%s, priority:%d, duration:%s",
		jc.ID, jc.Name, jc.User, jc.Type, jc.Priority, jc.Duration)
}

// Job is the record the scheduler tracks from submission until it is
// dropped. Name and Payload may change after creation, and only through
// the owning scheduler.
type Job struct {
	ID          string
	Name        string
	User        string
	Priority    Priority
	Type        string
	Payload     string
	ProcessID   int
	Duration    time.Duration
	SubmittedAt time.Time
}

func (j *Job) String() string {
	return fmt.Sprintf("id:%s, name:%s, user:%s, type:%s, priority:%d", j.ID, j.Name, j.User, j.Type, j.Priority)
}

// MoreFavored reports whether a should be served before b: lower priority
// value first, then lower id.
func MoreFavored(a, b *Job) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.ID < b.ID
}

// ByFavor sorts jobs most favored first.
type ByFavor []*Job

func (s ByFavor) Len() int           { return len(s) }
func (s ByFavor) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s ByFavor) Less(i, j int) bool { return MoreFavored(s[i], s[j]) }

// State of a Job
type State int

const (
	// Record constructed, admission not yet decided
	Submitted State = iota

	// Accepted but holding no resources
	Waiting

	// Holding resources and an active slot, queued for a worker
	Admitted

	// Job body executing on a worker
	Running

	// Ran for its full duration
	Completed

	// Removed by a client while admitted or running
	Cancelled

	// Cancelled to make room for a more favored job
	Evicted

	// Never admitted: dropped at submit, pushed out of the waiting set,
	// or still waiting at shutdown
	Rejected
)

func (s State) String() string {
	asString := [8]string{"Submitted", "Waiting", "Admitted", "Running", "Completed", "Cancelled", "Evicted", "Rejected"}
	if s < 0 || int(s) >= len(asString) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return asString[s]
}

// IsDone is true for terminal states.
func (s State) IsDone() bool {
	return s >= Completed
}

// JobSnapshot is a point in time copy of a Job. Mutating it has no
// effect on the scheduler.
type JobSnapshot struct {
	Job
	State State
	Cost  allocator.Resources
}

// NewSnapshot copies j.
func NewSnapshot(j *Job, state State, cost allocator.Resources) JobSnapshot {
	return JobSnapshot{Job: *j, State: state, Cost: cost}
}

func (s JobSnapshot) String() string {
	return fmt.Sprintf("%s, state:%s, cost:{%s}", s.Job.String(), s.State, s.Cost)
}
