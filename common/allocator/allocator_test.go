package allocator

import (
	"fmt"
	"sync"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/twitter/jobpool/common/stats"
)

func TestSimpleAllocs(t *testing.T) {
	_, err := NewManager(Resources{CPU: -1, Memory: 10})
	if err == nil {
		t.Fatal("expected error to create a manager with negative capacity")
	}

	m, err := NewManager(Resources{CPU: 20, Memory: 20480})
	if err != nil {
		t.Fatal(err)
	}

	// normal allocation
	if !m.Allocate("job1", Resources{CPU: 16, Memory: 1024}) {
		t.Fatal("expected allocation to succeed")
	}

	// try to allocate beyond capacity
	if m.Allocate("job2", Resources{CPU: 8, Memory: 1024}) {
		t.Fatal("expected to fail to allocate beyond capacity")
	}
	if m.AvailableCPU() != 4 || m.AvailableMemory() != 19456 {
		t.Fatalf("refused allocation changed the pool: %s", m.Snapshot())
	}

	// same job can't hold two grants
	if m.Allocate("job1", Resources{CPU: 1, Memory: 1}) {
		t.Fatal("expected second allocation for a running job to fail")
	}

	// release and verify resources available
	grant, ok := m.Release("job1")
	if !ok || grant != (Resources{CPU: 16, Memory: 1024}) {
		t.Fatalf("unexpected release result %v %v", grant, ok)
	}
	if !m.Allocate("job2", Resources{CPU: 8, Memory: 1024}) {
		t.Fatal("expected allocation to succeed after release")
	}

	// verify double release does nothing
	if _, ok := m.Release("job1"); ok {
		t.Fatal("expected double release to be a no-op")
	}
	if m.AvailableCPU() != 12 {
		t.Fatalf("available cpu doesn't match, got: %d, want: %d", m.AvailableCPU(), 12)
	}

	// negative allocation
	if m.Allocate("job3", Resources{CPU: -1}) {
		t.Fatal("expected negative allocation to fail")
	}
}

func TestZeroCostAllocation(t *testing.T) {
	m, _ := NewManager(Resources{CPU: 0, Memory: 0})
	assert.True(t, m.Allocate("free", Resources{}))
	assert.True(t, m.IsRunning("free"))
	assert.False(t, m.Allocate("cpu", Resources{CPU: 1}))
}

func TestGaugesAndSnapshot(t *testing.T) {
	m, _ := NewManager(Resources{CPU: 10, Memory: 100})
	assert.Equal(t, 10, m.TotalCPU())
	assert.Equal(t, 100, m.TotalMemory())

	m.Allocate("b", Resources{CPU: 2, Memory: 20})
	m.Allocate("a", Resources{CPU: 3, Memory: 30})
	assert.Equal(t, []string{"a", "b"}, m.Running())

	p := m.Snapshot()
	assert.Equal(t, Pool{
		Total:     Resources{CPU: 10, Memory: 100},
		Available: Resources{CPU: 5, Memory: 50},
		Running:   2,
	}, p)
	assert.True(t, m.Fits(Resources{CPU: 5, Memory: 50}))
	assert.False(t, m.Fits(Resources{CPU: 5, Memory: 51}))

	g, ok := m.Grant("a")
	assert.True(t, ok)
	assert.Equal(t, Resources{CPU: 3, Memory: 30}, g)
}

func TestOnReleaseHook(t *testing.T) {
	m, _ := NewManager(Resources{CPU: 4, Memory: 4})
	calls := 0
	m.OnRelease(func() {
		calls++
		// hooks run outside the lock, so reading back in is safe
		_ = m.AvailableCPU()
	})

	m.Allocate("a", Resources{CPU: 1, Memory: 1})
	m.Release("a")
	m.Release("a")
	m.Release("unknown")
	assert.Equal(t, 1, calls)
}

func TestStats(t *testing.T) {
	reg := stats.NewFinagleStatsRegistry()
	stat := stats.NewCustomStatsReceiver(func() stats.StatsRegistry { return reg })
	m, _ := NewManager(Resources{CPU: 10, Memory: 10}, WithStats(stat), WithWarningThreshold(90))

	m.Allocate("a", Resources{CPU: 5, Memory: 5})
	m.Allocate("b", Resources{CPU: 4, Memory: 4}) // crosses 90%
	m.Allocate("c", Resources{CPU: 1, Memory: 1})
	m.Allocate("d", Resources{CPU: 1, Memory: 1}) // refused
	m.Release("c")
	m.Release("b")
	m.Allocate("e", Resources{CPU: 5, Memory: 5}) // crosses again

	stats.StatsOk("", reg, t,
		map[string]stats.Rule{
			stats.ResourceAllocatedCounter:     {Checker: stats.Int64EqTest, Value: 4},
			stats.ResourceRefusedCounter:       {Checker: stats.Int64EqTest, Value: 1},
			stats.ResourceReleasedCounter:      {Checker: stats.Int64EqTest, Value: 2},
			stats.ResourceWarningCounter:       {Checker: stats.Int64EqTest, Value: 2},
			stats.ResourceAvailableCPUGauge:    {Checker: stats.Int64EqTest, Value: 0},
			stats.ResourceAvailableMemoryGauge: {Checker: stats.Int64EqTest, Value: 0},
			stats.ResourceRunningJobsGauge:     {Checker: stats.Int64EqTest, Value: 2},
		})
}

func TestConcurrentAllocRelease(t *testing.T) {
	m, _ := NewManager(Resources{CPU: 8, Memory: 8})
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("job%d", i)
			for j := 0; j < 100; j++ {
				if m.Allocate(id, Resources{CPU: 1 + i%3, Memory: 1}) {
					m.Release(id)
				}
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, Pool{Total: Resources{8, 8}, Available: Resources{8, 8}}, m.Snapshot())
}

// Each op is decoded into an allocate or a release against a small id space;
// after every op available plus outstanding grants must equal the total and
// no id may hold two grants.
func TestResourceConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	total := Resources{CPU: 20, Memory: 20480}
	properties.Property("available + granted == total", prop.ForAll(
		func(ops []int) bool {
			m, _ := NewManager(total)
			granted := map[string]Resources{}
			for _, op := range ops {
				id := fmt.Sprintf("job%d", op%7)
				if op%2 == 0 {
					req := Resources{CPU: op % 9, Memory: (op % 5) * 1024}
					if m.Allocate(id, req) {
						if _, dup := granted[id]; dup {
							return false
						}
						granted[id] = req
					}
				} else {
					g, ok := m.Release(id)
					want, held := granted[id]
					if ok != held || g != want {
						return false
					}
					delete(granted, id)
				}

				sum := Resources{}
				for _, g := range granted {
					sum = sum.Add(g)
				}
				p := m.Snapshot()
				if p.Available.Add(sum) != total || p.Running != len(granted) {
					return false
				}
				if p.Available.IsNegative() || !p.Available.Fits(total) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}
