package config

// SchedulerConfigs the map of available configurations
var SchedulerConfigs = map[string]string{
	"default":        defaultConfig,
	"local.simple":   localSimple,
	"local.complex":  localComplex,
	"local.advanced": localAdvanced,
}

// defaultConfig the configuration values that are used for empty sections of
// a specific configuration
const defaultConfig = `{
	"Resources": {
		"TotalCPU": 20,
		"TotalMemory": 20480,
		"WarningThreshold": 95
	},
	"Queues": {
		"MaxQueueSize": 10,
		"MaxWaitingSize": 5
	},
	"Workers": {
		"Count": 10
	},
	"Estimator": {
		"Type": "complex"
	},
	"SchedulerConfig": {
		"HistorySize": 1000
	}
}`

// localSimple a small pool of cheap jobs, most submissions are admitted
const localSimple = `{
	"Resources": {
		"TotalCPU": 8,
		"TotalMemory": 8192,
		"WarningThreshold": 90
	},
	"Queues": {
		"MaxQueueSize": 4,
		"MaxWaitingSize": 4
	},
	"Workers": {
		"Count": 4
	},
	"Estimator": {
		"Type": "simple"
	}
}`

const localComplex = `{
	"Estimator": {
		"Type": "complex"
	},
	"SchedulerConfig": {
		"HistorySize": 100,
		"SubmitRate": 50,
		"SubmitBurst": 10
	}
}`

// localAdvanced a large pool of expensive jobs
const localAdvanced = `{
	"Resources": {
		"TotalCPU": 64,
		"TotalMemory": 65536,
		"WarningThreshold": 95
	},
	"Queues": {
		"MaxQueueSize": 8,
		"MaxWaitingSize": 16
	},
	"Workers": {
		"Count": 4
	},
	"Estimator": {
		"Type": "advanced"
	}
}`
