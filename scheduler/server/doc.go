/*
package server provides StatefulScheduler which admits jobs against a fixed cpu/memory budget
and runs them on a bounded pool of simulated workers.

* Concepts *
Priority:
  A numerically smaller priority is more favored. Ties are broken by job id, smaller first.
  The same ordering is used everywhere: draining serves the most favored waiting job first,
  and eviction always removes the least favored member of the set that is over capacity.

Active queue:
  Jobs holding a resource grant, either queued for a worker or running. Bounded by MaxQueueSize.

Waiting set:
  Jobs accepted without resources. Bounded by MaxWaitingSize.

Workers:
  Every admitted job gets its own goroutine, but only Workers of them may execute their body at once.
  An admitted job that has not acquired a worker yet still holds its grant.

* Logic *
Submit:
  Build the record with the Factory and price it with the Estimator.
  If the active queue is full and the job would fit, cancel the least favored active job to make room,
  provided the new job is more favored than it, else reject the new job. Nothing is allocated for a
  rejected job.
  Try to allocate. On success the job is admitted and dispatched.
  Otherwise the job waits. If the waiting set is full, the least favored waiting job is dropped when the
  new job is more favored than it, else the new job is dropped.
  A job that could never fit the total budget is rejected outright.

Drain:
  Sort the waiting set most favored first and admit in that order, stopping at the first job that does
  not fit or when the active queue fills. Runs after every Remove, after every job completion, and
  whenever the resource pool releases a grant.

Release:
  Every path that ends a job (completion, removal, eviction, shutdown) goes through a single finish step
  that is a no-op on a job already in a terminal state, so a grant is released exactly once.

* Locking *
One scheduler mutex guards the job table, both queues and every admission decision. The resource pool
and the queues have their own locks, always acquired after the scheduler mutex and never held while
calling back out. Listener callbacks run with the scheduler mutex held and must not call back into the
scheduler.
*/
package server
