package errors

type ExitCode int

const (
	// Generic failure for errors that carry no specific code.
	GenericFailureExitCode ExitCode = 1

	// Command line usage errors (unknown flags, bad arguments).
	UsageFailureExitCode ExitCode = 64

	// The resource budget or queue capacities could not be established.
	ConfigFailureExitCode ExitCode = 78

	// The simulation did not drain before its deadline.
	SimulationTimeoutExitCode ExitCode = 90
)
