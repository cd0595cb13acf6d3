package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twitter/jobpool/common/allocator"
	"github.com/twitter/jobpool/common/stats"
	"github.com/twitter/jobpool/scheduler/domain"
	"github.com/twitter/jobpool/scheduler/estimator"
)

func TestGettingConfigurations(t *testing.T) {
	for _, configSelector := range ConfigNames() {
		_, err := GetConfig(configSelector)
		assert.Nil(t, err, fmt.Sprintf("error getting config %s.  %s", configSelector, err))
	}

	selector := "invalid.selector"
	config, err := GetConfig(selector)
	assert.NotNil(t, err, fmt.Sprintf("configuration returned for %s: %s", selector, config))
	assert.Contains(t, err.Error(), "local.simple")
}

func TestDefaultConfig(t *testing.T) {
	config, err := GetConfig("default")
	require.Nil(t, err)

	sc := config.SchedulerConfig()
	assert.Equal(t, 10, sc.MaxQueueSize)
	assert.Equal(t, 5, sc.MaxWaitingSize)
	assert.Equal(t, 10, sc.Workers)
	assert.Equal(t, 1000, sc.HistorySize)
	assert.Equal(t, allocator.Resources{CPU: 20, Memory: 20480}, config.TotalResources())

	est, err := config.NewEstimator()
	require.Nil(t, err)
	assert.Equal(t, estimator.Complex, est)
}

// TestCreatingConfigStruct test overriding default structure values with values from
// a specific configuration.
func TestCreatingConfigStruct(t *testing.T) {
	config, err := GetConfig("local.complex")
	require.Nil(t, err)
	assert.Equal(t, 20, config.Resources.TotalCPU)
	assert.Equal(t, 10, config.Queues.MaxQueueSize)
	assert.Equal(t, 50.0, config.Scheduler.SubmitRate)
	assert.Equal(t, 10, config.Scheduler.SubmitBurst)

	config, err = GetConfig("local.simple")
	require.Nil(t, err)
	assert.Equal(t, 8, config.Resources.TotalCPU)
	assert.Equal(t, 1000, config.Scheduler.HistorySize)
}

func TestJSONSelector(t *testing.T) {
	config, err := GetConfig(`{"Queues": {"MaxQueueSize": 3}, "Estimator": {"Type": "fixed", "CPU": 1, "Memory": 100}}`)
	require.Nil(t, err)
	assert.Equal(t, 3, config.Queues.MaxQueueSize)
	assert.Equal(t, 0, config.Queues.MaxWaitingSize)

	est, err := config.NewEstimator()
	require.Nil(t, err)
	assert.Equal(t, allocator.Resources{CPU: 1, Memory: 100}, est.Estimate(&domain.Job{ID: "a"}))
}

func TestFileSelector(t *testing.T) {
	dir, err := ioutil.TempDir("", "jobpool-config")
	require.Nil(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "pool.json")
	require.Nil(t, ioutil.WriteFile(path, []byte(`{"Resources": {"TotalCPU": 4, "TotalMemory": 4096, "WarningThreshold": 50}}`), 0644))

	config, err := GetConfig(path)
	require.Nil(t, err)
	assert.Equal(t, allocator.Resources{CPU: 4, Memory: 4096}, config.TotalResources())

	_, err = GetConfig(filepath.Join(dir, "missing.json"))
	assert.NotNil(t, err)
}

func TestInvalidConfigs(t *testing.T) {
	invalid := []string{
		`{"Resources": {"TotalCPU": 0, "TotalMemory": 10, "WarningThreshold": 95}}`,
		`{"Resources": {"TotalCPU": 10, "TotalMemory": -1, "WarningThreshold": 95}}`,
		`{"Resources": {"TotalCPU": 10, "TotalMemory": 10, "WarningThreshold": 101}}`,
		`{"Queues": {"MaxQueueSize": 0, "MaxWaitingSize": 2}}`,
		`{"Queues": {"MaxQueueSize": 2, "MaxWaitingSize": -1}}`,
		`{"Workers": {"Count": -2}}`,
		`{"Estimator": {"Type": "quantum"}}`,
		`{"Estimator": {"Type": "fixed", "CPU": -1}}`,
		`{"SchedulerConfig": {"SubmitRate": -5}}`,
		`{"Resources": `,
	}
	for _, text := range invalid {
		_, err := GetConfig(text)
		assert.NotNil(t, err, text)
	}
}

func TestNewResourceManager(t *testing.T) {
	config, err := GetConfig("local.simple")
	require.Nil(t, err)

	m, err := config.NewResourceManager(stats.NilStatsReceiver())
	require.Nil(t, err)
	assert.Equal(t, 8, m.TotalCPU())
	assert.Equal(t, 8192, m.AvailableMemory())
}
