// Package allocator provides centralized management of the cpu and memory
// budget shared by every job admitted to the scheduler.
package allocator

import (
	"fmt"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/jobpool/common/stats"
)

// Resources is an amount of cpu and memory units.
type Resources struct {
	CPU    int
	Memory int
}

// Fits reports whether r is no larger than avail in both dimensions.
func (r Resources) Fits(avail Resources) bool {
	return r.CPU <= avail.CPU && r.Memory <= avail.Memory
}

func (r Resources) Add(o Resources) Resources {
	return Resources{CPU: r.CPU + o.CPU, Memory: r.Memory + o.Memory}
}

func (r Resources) Sub(o Resources) Resources {
	return Resources{CPU: r.CPU - o.CPU, Memory: r.Memory - o.Memory}
}

func (r Resources) IsNegative() bool {
	return r.CPU < 0 || r.Memory < 0
}

func (r Resources) String() string {
	return fmt.Sprintf("cpu:%d, mem:%d", r.CPU, r.Memory)
}

// Pool is a jointly consistent view of a Manager's counters.
type Pool struct {
	Total     Resources
	Available Resources
	Running   int
}

func (p Pool) String() string {
	return fmt.Sprintf("total:{%s}, available:{%s}, running:%d", p.Total, p.Available, p.Running)
}

// Option configures a Manager.
type Option func(*Manager)

// WithStats records gauges and counters under the given receiver.
func WithStats(stat stats.StatsReceiver) Option {
	return func(m *Manager) { m.stat = stat }
}

// WithWarningThreshold logs a warning whenever an allocation leaves cpu or
// memory usage at or above percent of the total. Zero disables the warning.
func WithWarningThreshold(percent int) Option {
	return func(m *Manager) { m.warnPercent = percent }
}

// Manager owns a fixed cpu/memory budget and the set of jobs currently
// holding a grant from it. Allocate and Release are linearized by a single
// mutex which is never held while calling out of the Manager.
type Manager struct {
	mu        sync.Mutex
	total     Resources
	available Resources
	running   map[string]Resources
	onRelease []func()
	warned    bool

	warnPercent int
	stat        stats.StatsReceiver
}

// NewManager returns a *Manager with its full budget available.
// Returns an error if either dimension of total is negative. Typical usage:
//	m, err := NewManager(Resources{CPU: 20, Memory: 20480})
//	// handle err
//	if m.Allocate(jobID, cost) {
//		defer m.Release(jobID)
//	}
func NewManager(total Resources, opts ...Option) (*Manager, error) {
	if total.IsNegative() {
		return nil, fmt.Errorf("invalid capacity {%s}, must be >= 0", total)
	}
	m := &Manager{
		total:     total,
		available: total,
		running:   make(map[string]Resources),
		stat:      stats.NilStatsReceiver(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.updateGauges()
	return m, nil
}

// Allocate grants req to jobID if it fits the available budget.
// Insufficient resources, a negative request, or a jobID that already holds
// a grant all return false and leave the Manager unchanged.
func (m *Manager) Allocate(jobID string, req Resources) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.IsNegative() {
		return false
	}
	if _, ok := m.running[jobID]; ok {
		return false
	}
	if !req.Fits(m.available) {
		m.stat.Counter(stats.ResourceRefusedCounter).Inc(1)
		return false
	}
	m.available = m.available.Sub(req)
	m.running[jobID] = req
	m.stat.Counter(stats.ResourceAllocatedCounter).Inc(1)
	m.updateGauges()
	m.checkThreshold(jobID)
	return true
}

// Release returns the grant held by jobID to the pool and fires the release
// hooks. Releasing an unknown or previously released jobID does nothing and
// returns false.
func (m *Manager) Release(jobID string) (Resources, bool) {
	m.mu.Lock()
	grant, ok := m.running[jobID]
	if !ok {
		m.mu.Unlock()
		return Resources{}, false
	}
	delete(m.running, jobID)
	m.available = m.available.Add(grant)
	// capped at total
	if m.available.CPU > m.total.CPU {
		m.available.CPU = m.total.CPU
	}
	if m.available.Memory > m.total.Memory {
		m.available.Memory = m.total.Memory
	}
	if m.warned && !m.overThreshold() {
		m.warned = false
	}
	m.stat.Counter(stats.ResourceReleasedCounter).Inc(1)
	m.updateGauges()
	hooks := make([]func(), len(m.onRelease))
	copy(hooks, m.onRelease)
	m.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
	return grant, true
}

// OnRelease registers fn to be called after every successful Release.
// Hooks run on the releasing goroutine without the Manager lock held.
func (m *Manager) OnRelease(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRelease = append(m.onRelease, fn)
}

// Fits reports whether req could be allocated right now.
func (m *Manager) Fits(req Resources) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return req.Fits(m.available)
}

// The four gauge reads below are each atomic but not jointly consistent
// with one another; use Snapshot for a consistent view.

func (m *Manager) AvailableCPU() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available.CPU
}

func (m *Manager) AvailableMemory() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available.Memory
}

func (m *Manager) TotalCPU() int {
	return m.total.CPU
}

func (m *Manager) TotalMemory() int {
	return m.total.Memory
}

// Snapshot returns the totals, the available budget and the number of
// grants, all read under one lock acquisition.
func (m *Manager) Snapshot() Pool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Pool{Total: m.total, Available: m.available, Running: len(m.running)}
}

// Running returns the ids holding a grant, sorted.
func (m *Manager) Running() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.running))
	for id := range m.running {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Grant returns the resources held by jobID, if any.
func (m *Manager) Grant(jobID string) (Resources, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.running[jobID]
	return r, ok
}

func (m *Manager) IsRunning(jobID string) bool {
	_, ok := m.Grant(jobID)
	return ok
}

// Must be called with mu held.
func (m *Manager) updateGauges() {
	m.stat.Gauge(stats.ResourceAvailableCPUGauge).Update(int64(m.available.CPU))
	m.stat.Gauge(stats.ResourceAvailableMemoryGauge).Update(int64(m.available.Memory))
	m.stat.Gauge(stats.ResourceRunningJobsGauge).Update(int64(len(m.running)))
}

// Must be called with mu held.
func (m *Manager) overThreshold() bool {
	if m.warnPercent <= 0 {
		return false
	}
	return usedPercent(m.total.CPU, m.available.CPU) >= m.warnPercent ||
		usedPercent(m.total.Memory, m.available.Memory) >= m.warnPercent
}

// Must be called with mu held. Warns once per crossing.
func (m *Manager) checkThreshold(jobID string) {
	if m.warned || !m.overThreshold() {
		return
	}
	m.warned = true
	m.stat.Counter(stats.ResourceWarningCounter).Inc(1)
	log.WithFields(
		log.Fields{
			"jobID":     jobID,
			"threshold": m.warnPercent,
			"cpuUsed":   usedPercent(m.total.CPU, m.available.CPU),
			"memUsed":   usedPercent(m.total.Memory, m.available.Memory),
		}).Warn("Resource usage crossed warning threshold")
}

func usedPercent(total, available int) int {
	if total <= 0 {
		return 0
	}
	return (total - available) * 100 / total
}
