package stats

/*
This file defines all the metrics being collected.   As new metrics are added please follow this pattern.
*/

const (
	/************************* Scheduler metrics **************************/
	/*
		number of Submit calls, counted before the job record is constructed
	*/
	SchedSubmitCounter = "submitCounter"

	/*
		number of submissions refused by the submission rate limiter
	*/
	SchedThrottledCounter = "throttledCounter"

	/*
		number of jobs granted resources and a slot in the active queue (at submit or on drain)
	*/
	SchedAdmittedCounter = "admittedCounter"

	/*
		number of jobs placed in the waiting set
	*/
	SchedWaitingCounter = "waitingCounter"

	/*
		number of jobs dropped without ever being admitted: cost above the total budget, full
		active queue or waiting set with no less favored job to evict, pushed out of the waiting
		set, or still waiting at shutdown
	*/
	SchedRejectedCounter = "rejectedCounter"

	/*
		number of running jobs cancelled to make room in the active queue
	*/
	SchedEvictedActiveCounter = "evictedActiveCounter"

	/*
		number of waiting jobs dropped to make room for a more favored job, also counted as rejected
	*/
	SchedEvictedWaitingCounter = "evictedWaitingCounter"

	/*
		number of jobs that ran for their full declared duration
	*/
	SchedCompletedCounter = "completedCounter"

	/*
		number of jobs cancelled through Remove/RemoveBatch/Close
	*/
	SchedCancelledCounter = "cancelledCounter"

	/*
		number of drain passes, and the number of waiting jobs they admitted
	*/
	SchedDrainCounter         = "drainCounter"
	SchedDrainAdmittedCounter = "drainAdmittedCounter"

	/*
		current size of the active queue
	*/
	SchedActiveJobsGauge = "activeJobsGauge"

	/*
		current size of the waiting set
	*/
	SchedWaitingJobsGauge = "waitingJobsGauge"

	/*
		current number of job bodies executing on a worker
	*/
	SchedRunningJobsGauge = "runningJobsGauge"

	/*
		time spent in Submit
	*/
	SchedSubmitLatency_ms = "submitLatency_ms"

	/*
		time spent in a drain pass
	*/
	SchedDrainLatency_ms = "drainLatency_ms"

	/************************* Resource pool metrics **************************/
	/*
		remaining cpu and memory units
	*/
	ResourceAvailableCPUGauge    = "availableCPUGauge"
	ResourceAvailableMemoryGauge = "availableMemoryGauge"

	/*
		number of jobs holding a resource grant
	*/
	ResourceRunningJobsGauge = "runningJobsGauge"

	/*
		number of Allocate calls that succeeded / were refused for insufficient resources
	*/
	ResourceAllocatedCounter = "allocatedCounter"
	ResourceRefusedCounter   = "refusedCounter"

	/*
		number of Release calls that returned a grant to the pool
	*/
	ResourceReleasedCounter = "releasedCounter"

	/*
		number of allocations that left usage at or above the warning threshold
	*/
	ResourceWarningCounter = "warningCounter"
)
