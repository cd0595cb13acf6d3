// Package server provides the main job scheduling interface for jobpool
package server

import (
	"context"

	"github.com/pkg/errors"

	"github.com/twitter/jobpool/common/allocator"
	"github.com/twitter/jobpool/scheduler/domain"
)

var (
	// Another job with this id is waiting or admitted.
	ErrDuplicateJob = errors.New("job id already in flight")

	// The Estimator priced a job with a negative amount.
	ErrInvalidEstimate = errors.New("negative resource estimate")

	// Submit was called after Close.
	ErrClosed = errors.New("scheduler closed")

	// The submission rate limiter had no token available.
	ErrThrottled = errors.New("submission rate exceeded")
)

type Scheduler interface {
	// Submit builds, prices and admits a job. Capacity exhaustion is reported
	// through JobHandle.Outcome, never as an error.
	Submit(jobCtx domain.JobContext) (*JobHandle, error)

	// SubmitWait is like Submit but blocks on the submission rate limiter
	// instead of failing with ErrThrottled.
	SubmitWait(ctx context.Context, jobCtx domain.JobContext) (*JobHandle, error)

	Remove(id string) bool

	// RemoveBatch removes every id and drains once. Returns true only if
	// every id was found.
	RemoveBatch(ids []string) bool

	Update(id, name, payload string) bool

	// Snapshots of the active queue, in admission order.
	ListAll() []domain.JobSnapshot
	ListByUser(user string) []domain.JobSnapshot
	ListByType(jobType string) []domain.JobSnapshot

	ListWaiting() []domain.JobSnapshot
	ListRunning() []domain.JobSnapshot

	// Status finds a job in the active queue, the waiting set, or the
	// history of finished jobs.
	Status(id string) (domain.JobSnapshot, bool)

	EstimateResources(id string) (allocator.Resources, bool)

	// DrainWaiting admits waiting jobs that now fit and returns how many
	// were admitted.
	DrainWaiting() int

	AvailableCPU() int
	AvailableMemory() int
	TotalCPU() int
	TotalMemory() int

	// Idle is true when no job is waiting or admitted.
	Idle() bool

	// Close cancels admitted jobs, rejects waiting ones and waits for
	// every worker to exit.
	Close()
}
