package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/jobpool/common/errors"
	"github.com/twitter/jobpool/scheduler/domain"
	"github.com/twitter/jobpool/scheduler/server"
)

const smallPool = `{"Resources": {"TotalCPU": 4, "TotalMemory": 4096, "WarningThreshold": 95},
	"Queues": {"MaxQueueSize": 2, "MaxWaitingSize": 1},
	"Estimator": {"Type": "simple"}}`

func run(t *testing.T, args ...string) (string, error) {
	out := &bytes.Buffer{}
	c, err := NewSimpleCLIClient(out)
	require.Nil(t, err)
	c.RootCmd.SetArgs(append([]string{"--log_level", "error"}, args...))
	err = c.Exec()
	return out.String(), err
}

func exitCode(err error) errors.ExitCode {
	if e, ok := err.(*errors.ExitCodeError); ok {
		return e.GetExitCode()
	}
	return errors.GenericFailureExitCode
}

func TestConfigList(t *testing.T) {
	out, err := run(t, "config", "--list")
	require.Nil(t, err)
	assert.Contains(t, out, "default")
	assert.Contains(t, out, "local.advanced")
}

func TestConfigJSON(t *testing.T) {
	out, err := run(t, "config", "--config", "local.simple", "--json")
	require.Nil(t, err)
	assert.Contains(t, out, `"TotalCPU": 8`)
	assert.Contains(t, out, `"Type": "simple"`)
}

func TestConfigText(t *testing.T) {
	out, err := run(t, "config")
	require.Nil(t, err)
	assert.Contains(t, out, "MaxQueueSize: 10")
}

func TestInvalidConfigExitCode(t *testing.T) {
	_, err := run(t, "config", "--config", `{"Queues": {"MaxQueueSize": -1}}`)
	require.NotNil(t, err)
	assert.Equal(t, errors.ConfigFailureExitCode, exitCode(err))

	_, err = run(t, "config", "--config", "no.such.config")
	assert.Equal(t, errors.ConfigFailureExitCode, exitCode(err))
}

func TestInvalidLogLevel(t *testing.T) {
	c, err := NewSimpleCLIClient(&bytes.Buffer{})
	require.Nil(t, err)
	c.RootCmd.SetArgs([]string{"config", "--log_level", "loud"})
	err = c.Exec()
	assert.Equal(t, errors.UsageFailureExitCode, exitCode(err))
}

func TestSimulate(t *testing.T) {
	out, err := run(t, "simulate", "--config", smallPool, "--jobs", "4", "--duration", "200ms", "--stats=false")
	require.Nil(t, err)

	// two jobs fill the pool, the third waits and the fourth loses the
	// waiting slot to it on id
	assert.Contains(t, out, "job 1: Admitted")
	assert.Contains(t, out, "job 2: Admitted, available cpu:0 mem:2048")
	assert.Contains(t, out, "job 3: Waiting")
	assert.Contains(t, out, "job 4: Rejected")
	assert.Contains(t, out, "Completed: 3 [1 2 3]")
	assert.Contains(t, out, "Rejected: 1 [4]")
}

func TestSimulatePriorityModes(t *testing.T) {
	// descending gives job 4 the best priority, so it pushes job 3 out of
	// the waiting set
	out, err := run(t, "simulate", "--config", smallPool, "--jobs", "4", "--duration", "200ms",
		"--priority-mode", "descending", "--stats=false")
	require.Nil(t, err)
	assert.Contains(t, out, "Completed: 3 [1 2 4]")
	assert.Contains(t, out, "Rejected: 1 [3]")

	_, err = run(t, "simulate", "--priority-mode", "sideways")
	assert.Equal(t, errors.UsageFailureExitCode, exitCode(err))

	_, err = run(t, "simulate", "--jobs", "0")
	assert.Equal(t, errors.UsageFailureExitCode, exitCode(err))
}

func TestSimulateStats(t *testing.T) {
	out, err := run(t, "simulate", "--config", smallPool, "--jobs", "1", "--duration", "10ms", "--rate", "100",
		"--stats_precision", "1us")
	require.Nil(t, err)
	assert.Contains(t, out, "Completed: 1 [1]")
	assert.Contains(t, out, "sched/admittedCounter")
	assert.Contains(t, out, "resources/allocatedCounter")
	assert.Contains(t, out, "sched/submitLatency_ms.p99")
}

func TestSimulateTimeout(t *testing.T) {
	_, err := run(t, "simulate", "--config", smallPool, "--jobs", "1", "--duration", "1h", "--timeout", "50ms")
	require.NotNil(t, err)
	assert.Equal(t, errors.SimulationTimeoutExitCode, exitCode(err))
}

// Paced submissions and the wait for idle share one deadline.
func TestSimulateTimeoutCoversWholeRun(t *testing.T) {
	start := time.Now()
	_, err := run(t, "simulate", "--config", smallPool, "--jobs", "2", "--rate", "4",
		"--duration", "1h", "--timeout", "400ms", "--stats=false")
	require.NotNil(t, err)
	assert.Equal(t, errors.SimulationTimeoutExitCode, exitCode(err))
	assert.True(t, time.Since(start) < 600*time.Millisecond, "took %s", time.Since(start))
}

type busyScheduler struct{ server.Scheduler }

func (busyScheduler) Idle() bool                         { return false }
func (busyScheduler) ListWaiting() []domain.JobSnapshot { return nil }
func (busyScheduler) ListRunning() []domain.JobSnapshot { return nil }

func TestWaitIdleStopsAtDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.NotNil(t, waitIdle(ctx, busyScheduler{}))
	assert.True(t, time.Since(start) < 300*time.Millisecond, "took %s", time.Since(start))

	done, stop := context.WithCancel(context.Background())
	stop()
	assert.NotNil(t, waitIdle(done, busyScheduler{}))
}
