// Package config loads the JSON configuration that sizes the resource pool,
// the queues and the worker pool, and builds the scheduler collaborators
// from it.
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sort"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/jobpool/common/allocator"
	"github.com/twitter/jobpool/common/stats"
	"github.com/twitter/jobpool/scheduler/estimator"
	"github.com/twitter/jobpool/scheduler/server"
)

// Percent of cpu or memory in use above which allocations log a warning.
const DefaultWarningThreshold = 95

// JSONConfigs config structure holding the parsed json sections
type JSONConfigs struct {
	Resources ResourcesJSONConfig `json:"Resources"`
	Queues    QueuesJSONConfig    `json:"Queues"`
	Workers   WorkersJSONConfig   `json:"Workers"`
	Estimator EstimatorJSONConfig `json:"Estimator"`
	Scheduler SchedulerJSONConfig `json:"SchedulerConfig"`
}

func (c JSONConfigs) String() string {
	return fmt.Sprintf("\n%s\n%s\n%s\n%s\n%s", c.Resources, c.Queues, c.Workers, c.Estimator, c.Scheduler)
}

type ResourcesJSONConfig struct {
	TotalCPU         int `json:"TotalCPU"`         // default to 20
	TotalMemory      int `json:"TotalMemory"`      // default to 20480
	WarningThreshold int `json:"WarningThreshold"` // percent used, default to 95
}

func (r ResourcesJSONConfig) String() string {
	return fmt.Sprintf("ResourcesJSONConfig: TotalCPU: %d, TotalMemory: %d, WarningThreshold: %d",
		r.TotalCPU, r.TotalMemory, r.WarningThreshold)
}

type QueuesJSONConfig struct {
	MaxQueueSize   int `json:"MaxQueueSize"`   // default to 10
	MaxWaitingSize int `json:"MaxWaitingSize"` // default to 5
}

func (q QueuesJSONConfig) String() string {
	return fmt.Sprintf("QueuesJSONConfig: MaxQueueSize: %d, MaxWaitingSize: %d", q.MaxQueueSize, q.MaxWaitingSize)
}

type WorkersJSONConfig struct {
	Count int `json:"Count"` // default to MaxQueueSize
}

func (w WorkersJSONConfig) String() string {
	return fmt.Sprintf("WorkersJSONConfig: Count: %d", w.Count)
}

type EstimatorJSONConfig struct {
	Type   string `json:"Type"`   // simple, complex, advanced or fixed
	CPU    int    `json:"CPU"`    // fixed only
	Memory int    `json:"Memory"` // fixed only
}

func (e EstimatorJSONConfig) String() string {
	return fmt.Sprintf("EstimatorJSONConfig: Type: %s, CPU: %d, Memory: %d", e.Type, e.CPU, e.Memory)
}

type SchedulerJSONConfig struct {
	HistorySize int     `json:"HistorySize"` // default to 1000
	SubmitRate  float64 `json:"SubmitRate"`  // submissions per second, default to 0 (unlimited)
	SubmitBurst int     `json:"SubmitBurst"` // default to 1 when SubmitRate is set
}

func (s SchedulerJSONConfig) String() string {
	return fmt.Sprintf("SchedulerJSONConfig: HistorySize: %d, SubmitRate: %.2f, SubmitBurst: %d",
		s.HistorySize, s.SubmitRate, s.SubmitBurst)
}

func GetConfigText(configSelector string) ([]byte, error) {
	configText, ok := SchedulerConfigs[configSelector]
	if !ok {
		return nil, fmt.Errorf("invalid configuration %s, supported values are %v", configSelector, ConfigNames())
	}
	return []byte(configText), nil
}

// ConfigNames lists the built in configurations, sorted.
func ConfigNames() []string {
	keys := make([]string, 0, len(SchedulerConfigs))
	for k := range SchedulerConfigs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetConfig resolves configSelector, which is a built in configuration name,
// a path to a .json file, or JSON text. Sections left empty fall back to
// the "default" configuration. The result is validated.
func GetConfig(configSelector string) (*JSONConfigs, error) {
	configText, err := readSelector(configSelector)
	if err != nil {
		return nil, err
	}
	return ParseConfig(configText)
}

func readSelector(configSelector string) ([]byte, error) {
	trimmed := strings.TrimSpace(configSelector)
	switch {
	case strings.HasPrefix(trimmed, "{"):
		return []byte(trimmed), nil
	case strings.HasSuffix(trimmed, ".json"):
		text, err := ioutil.ReadFile(trimmed)
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't read config file %s", trimmed)
		}
		return text, nil
	default:
		return GetConfigText(trimmed)
	}
}

// ParseConfig parses configText over the default configuration and validates
// the result.
func ParseConfig(configText []byte) (*JSONConfigs, error) {
	// get the default values, these will override any of the config
	// sections that were left empty
	defaultConfigText, _ := GetConfigText("default")
	defaultConfig := &JSONConfigs{}
	if err := json.Unmarshal(defaultConfigText, defaultConfig); err != nil {
		return nil, errors.Wrap(err, "couldn't parse the default config")
	}

	config := &JSONConfigs{}
	if err := json.Unmarshal(configText, config); err != nil {
		return nil, errors.Wrap(err, "couldn't parse top-level config")
	}

	if config.Resources == (ResourcesJSONConfig{}) {
		log.Infof("using default Resources config")
		config.Resources = defaultConfig.Resources
	}
	if config.Queues == (QueuesJSONConfig{}) {
		log.Infof("using default Queues config")
		config.Queues = defaultConfig.Queues
	}
	if config.Workers == (WorkersJSONConfig{}) {
		log.Infof("using default Workers config")
		config.Workers = defaultConfig.Workers
	}
	if config.Estimator.Type == "" {
		log.Infof("using default Estimator config")
		config.Estimator = defaultConfig.Estimator
	}
	if config.Scheduler == (SchedulerJSONConfig{}) {
		log.Infof("using default Scheduler config")
		config.Scheduler = defaultConfig.Scheduler
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects configurations that cannot establish a resource budget.
func (c *JSONConfigs) Validate() error {
	problems := []string{}
	if c.Resources.TotalCPU <= 0 || c.Resources.TotalMemory <= 0 {
		problems = append(problems, fmt.Sprintf("resource totals must be > 0, got %s", c.Resources))
	}
	if c.Resources.WarningThreshold < 1 || c.Resources.WarningThreshold > 100 {
		problems = append(problems, fmt.Sprintf("warning threshold must be within 1..100, got %d", c.Resources.WarningThreshold))
	}
	if c.Queues.MaxQueueSize <= 0 || c.Queues.MaxWaitingSize < 0 {
		problems = append(problems, fmt.Sprintf("queue sizes must be > 0 (active) and >= 0 (waiting), got %s", c.Queues))
	}
	if c.Workers.Count < 0 {
		problems = append(problems, fmt.Sprintf("worker count must be >= 0, got %d", c.Workers.Count))
	}
	if _, err := c.NewEstimator(); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Scheduler.SubmitRate < 0 || c.Scheduler.SubmitBurst < 0 || c.Scheduler.HistorySize < 0 {
		problems = append(problems, fmt.Sprintf("scheduler settings must be >= 0, got %s", c.Scheduler))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *JSONConfigs) TotalResources() allocator.Resources {
	return allocator.Resources{CPU: c.Resources.TotalCPU, Memory: c.Resources.TotalMemory}
}

// NewResourceManager creates the pool described by the Resources section.
func (c *JSONConfigs) NewResourceManager(stat stats.StatsReceiver) (*allocator.Manager, error) {
	return allocator.NewManager(c.TotalResources(),
		allocator.WithStats(stat),
		allocator.WithWarningThreshold(c.Resources.WarningThreshold))
}

func (c *JSONConfigs) NewEstimator() (estimator.Estimator, error) {
	if strings.ToLower(c.Estimator.Type) == estimator.FixedEstimator {
		cost := allocator.Resources{CPU: c.Estimator.CPU, Memory: c.Estimator.Memory}
		if cost.IsNegative() {
			return nil, fmt.Errorf("fixed estimator cost must be >= 0, got {%s}", cost)
		}
		return estimator.Fixed{Resources: cost}, nil
	}
	return estimator.ByName(c.Estimator.Type)
}

func (c *JSONConfigs) SchedulerConfig() server.SchedulerConfiguration {
	return server.SchedulerConfiguration{
		MaxQueueSize:   c.Queues.MaxQueueSize,
		MaxWaitingSize: c.Queues.MaxWaitingSize,
		Workers:        c.Workers.Count,
		HistorySize:    c.Scheduler.HistorySize,
		SubmitRate:     c.Scheduler.SubmitRate,
		SubmitBurst:    c.Scheduler.SubmitBurst,
	}
}
