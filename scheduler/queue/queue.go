// Package queue provides a capacity bounded, insertion ordered container of
// jobs keyed by id. It is safe for concurrent use.
package queue

import (
	"container/list"
	"sync"

	"github.com/twitter/jobpool/scheduler/domain"
)

// JobQueue is a FIFO of *domain.Job with O(1) lookup and removal by id.
// A full queue refuses Add rather than growing; callers apply their own
// overflow policy.
type JobQueue struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	byID     map[string]*list.Element
}

// New returns an empty queue that holds at most capacity jobs.
// A negative capacity is treated as zero.
func New(capacity int) *JobQueue {
	if capacity < 0 {
		capacity = 0
	}
	return &JobQueue{
		capacity: capacity,
		order:    list.New(),
		byID:     make(map[string]*list.Element),
	}
}

// Add appends job. Returns false without changing the queue if it is full
// or already holds a job with the same id.
func (q *JobQueue) Add(job *domain.Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.order.Len() >= q.capacity {
		return false
	}
	if _, ok := q.byID[job.ID]; ok {
		return false
	}
	q.byID[job.ID] = q.order.PushBack(job)
	return true
}

// Remove drops the job with the given id. Returns false if absent.
func (q *JobQueue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byID[id]
	if !ok {
		return false
	}
	q.order.Remove(e)
	delete(q.byID, id)
	return true
}

func (q *JobQueue) Get(id string) (*domain.Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e, ok := q.byID[id]; ok {
		return e.Value.(*domain.Job), true
	}
	return nil, false
}

func (q *JobQueue) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byID[id]
	return ok
}

// Peek returns the oldest job, or nil if the queue is empty.
func (q *JobQueue) Peek() *domain.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if e := q.order.Front(); e != nil {
		return e.Value.(*domain.Job)
	}
	return nil
}

// Poll removes and returns the oldest job, or nil if the queue is empty.
func (q *JobQueue) Poll() *domain.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	e := q.order.Front()
	if e == nil {
		return nil
	}
	job := q.order.Remove(e).(*domain.Job)
	delete(q.byID, job.ID)
	return job
}

func (q *JobQueue) ByUser(user string) []*domain.Job {
	return q.Filter(func(j *domain.Job) bool { return j.User == user })
}

func (q *JobQueue) ByType(jobType string) []*domain.Job {
	return q.Filter(func(j *domain.Job) bool { return j.Type == jobType })
}

// All returns every job in insertion order.
func (q *JobQueue) All() []*domain.Job {
	return q.Filter(nil)
}

// Filter returns, in insertion order, the jobs for which keep is true.
// A nil keep matches everything. keep must not call back into q.
func (q *JobQueue) Filter(keep func(*domain.Job) bool) []*domain.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	jobs := []*domain.Job{}
	for e := q.order.Front(); e != nil; e = e.Next() {
		j := e.Value.(*domain.Job)
		if keep == nil || keep(j) {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

func (q *JobQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.order.Len()
}

func (q *JobQueue) Cap() int {
	return q.capacity
}

func (q *JobQueue) IsFull() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.order.Len() >= q.capacity
}
