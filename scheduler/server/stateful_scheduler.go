package server

import (
	"context"
	"fmt"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/twitter/jobpool/common/allocator"
	"github.com/twitter/jobpool/common/log/hooks"
	"github.com/twitter/jobpool/common/stats"
	"github.com/twitter/jobpool/scheduler/domain"
	"github.com/twitter/jobpool/scheduler/estimator"
	"github.com/twitter/jobpool/scheduler/queue"
)

const (
	// Provide defaults for config settings that should never be uninitialized/zero.

	// Number of jobs that may hold resources at once.
	DefaultMaxQueueSize = 10

	// Number of jobs that may wait for resources.
	DefaultMaxWaitingSize = 5

	// Number of finished jobs whose final snapshot is kept for Status.
	DefaultHistorySize = 1000

	// Burst used when a SubmitRate is set without one.
	DefaultSubmitBurst = 1
)

// Used to get proper logging from tests...
func init() {
	if loglevel := os.Getenv("JOBPOOL_LOGLEVEL"); loglevel != "" {
		level, err := log.ParseLevel(loglevel)
		if err != nil {
			log.Error(err)
			return
		}
		log.SetLevel(level)
		log.AddHook(hooks.NewContextHook())
	} else {
		// keep test output short
		log.SetLevel(log.ErrorLevel)
	}
}

// SchedulerConfiguration variables read at initialization
// MaxQueueSize - capacity of the active queue.
// MaxWaitingSize - capacity of the waiting set. Zero means a job that
//	does not fit right away is rejected.
// Workers - number of job bodies that may execute concurrently,
//	defaults to MaxQueueSize.
// HistorySize - number of finished jobs remembered for Status.
// SubmitRate - submissions per second accepted by Submit, zero for no limit.
// SubmitBurst - number of submissions accepted back to back under SubmitRate.
type SchedulerConfiguration struct {
	MaxQueueSize   int
	MaxWaitingSize int
	Workers        int
	HistorySize    int
	SubmitRate     float64
	SubmitBurst    int
}

func (sc *SchedulerConfiguration) String() string {
	return fmt.Sprintf("SchedulerConfiguration: MaxQueueSize: %d, MaxWaitingSize: %d, Workers: %d, HistorySize: %d, "+
		"SubmitRate: %.2f, SubmitBurst: %d",
		sc.MaxQueueSize, sc.MaxWaitingSize, sc.Workers, sc.HistorySize, sc.SubmitRate, sc.SubmitBurst)
}

// Option configures optional StatefulScheduler collaborators.
type Option func(*StatefulScheduler)

// WithListener reports job transitions to l.
func WithListener(l Listener) Option {
	return func(s *StatefulScheduler) { s.listener = l }
}

// per job bookkeeping, guarded by StatefulScheduler.mu
type jobEntry struct {
	job   *domain.Job
	cost  allocator.Resources
	state domain.State
	// set while the job is admitted; cancelling it stops the worker
	cancel context.CancelFunc
	done   chan struct{}
}

func (e *jobEntry) snapshot() domain.JobSnapshot {
	return domain.NewSnapshot(e.job, e.state, e.cost)
}

// StatefulScheduler admits jobs against a shared allocator.Manager and runs
// them on simulated workers. See the package documentation for the policy.
type StatefulScheduler struct {
	config    *SchedulerConfiguration
	resources *allocator.Manager
	estimator estimator.Estimator
	factory   domain.Factory
	listener  Listener
	stat      stats.StatsReceiver

	mu      sync.Mutex
	jobs    map[string]*jobEntry // every waiting or admitted job
	active  *queue.JobQueue
	waiting *queue.JobQueue
	history *lru.Cache // job id to the domain.JobSnapshot taken when it finished
	running int        // job bodies currently executing
	closed  bool

	limiter *rate.Limiter // nil when submissions are unlimited
	workers *semaphore.Weighted
	ctx     context.Context // parent of every job context, cancelled by Close
	stop    context.CancelFunc
	drainCh chan struct{}
	wg      sync.WaitGroup
}

// Create a New StatefulScheduler that implements the Scheduler interface
// config - queue capacities, worker count, history size and submission rate
// resources - the budget jobs are admitted against; a release on it from
//	anywhere triggers a drain
// est - prices each job
// factory - builds job records from submitted contexts
// stat - stats receiver to log statistics to
func NewStatefulScheduler(
	config SchedulerConfiguration,
	resources *allocator.Manager,
	est estimator.Estimator,
	factory domain.Factory,
	stat stats.StatsReceiver,
	opts ...Option) (*StatefulScheduler, error) {
	if resources == nil || est == nil || factory == nil {
		return nil, errors.New("resources, estimator and factory are required")
	}
	if config.MaxQueueSize <= 0 {
		config.MaxQueueSize = DefaultMaxQueueSize
	}
	if config.MaxWaitingSize < 0 {
		config.MaxWaitingSize = 0
	}
	if config.Workers <= 0 {
		config.Workers = config.MaxQueueSize
	}
	if config.HistorySize <= 0 {
		config.HistorySize = DefaultHistorySize
	}
	if config.SubmitRate > 0 && config.SubmitBurst <= 0 {
		config.SubmitBurst = DefaultSubmitBurst
	}
	if stat == nil {
		stat = stats.NilStatsReceiver()
	}

	history, err := lru.New(config.HistorySize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create job history cache")
	}

	ctx, stop := context.WithCancel(context.Background())
	s := &StatefulScheduler{
		config:    &config,
		resources: resources,
		estimator: est,
		factory:   factory,
		listener:  NopListener{},
		stat:      stat,
		jobs:      make(map[string]*jobEntry),
		active:    queue.New(config.MaxQueueSize),
		waiting:   queue.New(config.MaxWaitingSize),
		history:   history,
		workers:   semaphore.NewWeighted(int64(config.Workers)),
		ctx:       ctx,
		stop:      stop,
		drainCh:   make(chan struct{}, 1),
	}
	if config.SubmitRate > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(config.SubmitRate), config.SubmitBurst)
	}
	for _, opt := range opts {
		opt(s)
	}

	resources.OnRelease(s.signalDrain)
	s.wg.Add(1)
	go s.drainLoop()

	log.WithFields(
		log.Fields{
			"config":    s.config.String(),
			"resources": resources.Snapshot().String(),
		}).Info("Created scheduler")
	return s, nil
}

func (s *StatefulScheduler) String() string {
	return fmt.Sprintf("%s, %s", s.config, s.resources.Snapshot())
}

func (s *StatefulScheduler) Submit(jobCtx domain.JobContext) (*JobHandle, error) {
	s.stat.Counter(stats.SchedSubmitCounter).Inc(1)
	defer s.stat.Latency(stats.SchedSubmitLatency_ms).Time().Stop()
	if s.limiter != nil && !s.limiter.Allow() {
		s.stat.Counter(stats.SchedThrottledCounter).Inc(1)
		return nil, errors.Wrapf(ErrThrottled, "job %q", jobCtx.ID)
	}
	return s.submit(jobCtx)
}

func (s *StatefulScheduler) SubmitWait(ctx context.Context, jobCtx domain.JobContext) (*JobHandle, error) {
	s.stat.Counter(stats.SchedSubmitCounter).Inc(1)
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.stat.Counter(stats.SchedThrottledCounter).Inc(1)
			return nil, errors.Wrapf(err, "waiting to submit job %q", jobCtx.ID)
		}
	}
	defer s.stat.Latency(stats.SchedSubmitLatency_ms).Time().Stop()
	return s.submit(jobCtx)
}

func (s *StatefulScheduler) submit(jobCtx domain.JobContext) (*JobHandle, error) {
	job, err := s.factory.Create(jobCtx)
	if err != nil {
		return nil, err
	}
	cost := s.estimator.Estimate(job)
	if cost.IsNegative() {
		return nil, errors.Wrapf(ErrInvalidEstimate, "job %q priced at {%s}", job.ID, cost)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if _, ok := s.jobs[job.ID]; ok {
		return nil, errors.Wrapf(ErrDuplicateJob, "job %q", job.ID)
	}

	e := &jobEntry{job: job, cost: cost, state: domain.Submitted, done: make(chan struct{})}
	s.jobs[job.ID] = e
	log.WithFields(
		log.Fields{
			"jobID":     job.ID,
			"user":      job.User,
			"type":      job.Type,
			"priority":  job.Priority,
			"processID": job.ProcessID,
			"cost":      cost.String(),
		}).Info("Job submitted")
	s.listener.Submitted(e.snapshot())

	s.admit(e)
	s.updateGauges()
	return &JobHandle{ID: job.ID, Outcome: e.state, entry: e, s: s}, nil
}

// Remove cancels an admitted job or drops a waiting one, then drains.
func (s *StatefulScheduler) Remove(id string) bool {
	s.mu.Lock()
	found := s.remove(id)
	s.updateGauges()
	s.mu.Unlock()

	s.DrainWaiting()
	return found
}

func (s *StatefulScheduler) RemoveBatch(ids []string) bool {
	s.mu.Lock()
	all := true
	for _, id := range ids {
		if !s.remove(id) {
			all = false
		}
	}
	s.updateGauges()
	s.mu.Unlock()

	s.DrainWaiting()
	return all
}

// Must be called with mu held.
func (s *StatefulScheduler) remove(id string) bool {
	e, ok := s.jobs[id]
	if !ok {
		return false
	}
	log.WithFields(
		log.Fields{
			"jobID": id,
			"state": e.state,
		}).Info("Removing job")
	s.finish(e, domain.Cancelled)
	return true
}

// Update changes the name and payload of a waiting or admitted job. The
// job is not re-priced.
func (s *StatefulScheduler) Update(id, name, payload string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.jobs[id]
	if !ok {
		return false
	}
	e.job.Name = name
	e.job.Payload = payload
	return true
}

func (s *StatefulScheduler) ListAll() []domain.JobSnapshot {
	return s.list(s.active, nil)
}

func (s *StatefulScheduler) ListByUser(user string) []domain.JobSnapshot {
	return s.list(s.active, func(j *domain.Job) bool { return j.User == user })
}

func (s *StatefulScheduler) ListByType(jobType string) []domain.JobSnapshot {
	return s.list(s.active, func(j *domain.Job) bool { return j.Type == jobType })
}

// ListWaiting returns the waiting set in arrival order.
func (s *StatefulScheduler) ListWaiting() []domain.JobSnapshot {
	return s.list(s.waiting, nil)
}

// ListRunning returns the admitted jobs whose body is executing.
func (s *StatefulScheduler) ListRunning() []domain.JobSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snaps := []domain.JobSnapshot{}
	for _, j := range s.active.All() {
		if e := s.jobs[j.ID]; e.state == domain.Running {
			snaps = append(snaps, e.snapshot())
		}
	}
	return snaps
}

func (s *StatefulScheduler) list(q *queue.JobQueue, keep func(*domain.Job) bool) []domain.JobSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snaps := []domain.JobSnapshot{}
	for _, j := range q.Filter(keep) {
		snaps = append(snaps, s.jobs[j.ID].snapshot())
	}
	return snaps
}

func (s *StatefulScheduler) Status(id string) (domain.JobSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.jobs[id]; ok {
		return e.snapshot(), true
	}
	if snap, ok := s.history.Get(id); ok {
		return snap.(domain.JobSnapshot), true
	}
	return domain.JobSnapshot{}, false
}

// EstimateResources returns the cost a job was admitted or queued with.
func (s *StatefulScheduler) EstimateResources(id string) (allocator.Resources, bool) {
	snap, ok := s.Status(id)
	return snap.Cost, ok
}

// Resource gauges, read from the pool. Each is individually consistent.

func (s *StatefulScheduler) AvailableCPU() int    { return s.resources.AvailableCPU() }
func (s *StatefulScheduler) AvailableMemory() int { return s.resources.AvailableMemory() }
func (s *StatefulScheduler) TotalCPU() int        { return s.resources.TotalCPU() }
func (s *StatefulScheduler) TotalMemory() int     { return s.resources.TotalMemory() }

func (s *StatefulScheduler) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs) == 0
}

func (s *StatefulScheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, j := range s.waiting.All() {
		s.finish(s.jobs[j.ID], domain.Rejected)
	}
	for _, j := range s.active.All() {
		s.finish(s.jobs[j.ID], domain.Cancelled)
	}
	s.updateGauges()
	s.mu.Unlock()

	s.stop()
	s.wg.Wait()
	log.Info("Scheduler closed")
}

// Must be called with mu held.
func (s *StatefulScheduler) updateGauges() {
	s.stat.Gauge(stats.SchedActiveJobsGauge).Update(int64(s.active.Len()))
	s.stat.Gauge(stats.SchedWaitingJobsGauge).Update(int64(s.waiting.Len()))
	s.stat.Gauge(stats.SchedRunningJobsGauge).Update(int64(s.running))
}
