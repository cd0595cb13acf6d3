package cli

/**
implements the command line entry for the simulate command
*/

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/twitter/jobpool/common/client"
	"github.com/twitter/jobpool/common/errors"
	"github.com/twitter/jobpool/scheduler/domain"
	"github.com/twitter/jobpool/scheduler/server"
)

const (
	sameMode       = "same"
	ascendingMode  = "ascending"
	descendingMode = "descending"
	randomMode     = "random"
)

type simulateCmd struct {
	jobs         int
	user         string
	jobType      string
	priorityMode string
	duration     time.Duration
	rate         float64
	timeout      time.Duration
	seed         int64
	printStats   bool
}

func (c *simulateCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "simulate",
		Short: "Submit a batch of jobs and report how each one ended",
	}
	r.Flags().IntVar(&c.jobs, "jobs", 17, "Number of jobs to submit")
	r.Flags().StringVar(&c.user, "user", "", "Submit every job as this user, defaults to user<n>")
	r.Flags().StringVar(&c.jobType, "type", domain.GeneralJobType, "Job type tag")
	r.Flags().StringVar(&c.priorityMode, "priority-mode", sameMode,
		fmt.Sprintf("How priorities are assigned (%s|%s|%s|%s)", sameMode, ascendingMode, descendingMode, randomMode))
	r.Flags().DurationVar(&c.duration, "duration", 2*time.Second, "How long each job runs once dispatched")
	r.Flags().Float64Var(&c.rate, "rate", 0, "Submissions per second, 0 submits as fast as possible")
	r.Flags().DurationVar(&c.timeout, "timeout", time.Minute, "Give up if jobs are still in flight after this long")
	r.Flags().Int64Var(&c.seed, "seed", 1, "Seed for the random priority mode")
	r.Flags().BoolVar(&c.printStats, "stats", true, "Print the stats registry when done")
	return r
}

func (c *simulateCmd) priorities() (func(i int) domain.Priority, error) {
	switch strings.ToLower(c.priorityMode) {
	case sameMode:
		return func(int) domain.Priority { return 1 }, nil
	case ascendingMode:
		return func(i int) domain.Priority { return domain.Priority(i) }, nil
	case descendingMode:
		return func(i int) domain.Priority { return domain.Priority(c.jobs - i + 1) }, nil
	case randomMode:
		rng := rand.New(rand.NewSource(c.seed))
		return func(int) domain.Priority { return domain.Priority(rng.Intn(10) + 1) }, nil
	default:
		return nil, fmt.Errorf("unknown priority mode %q, expected one of %s|%s|%s|%s",
			c.priorityMode, sameMode, ascendingMode, descendingMode, randomMode)
	}
}

func (c *simulateCmd) jobContext(i int, priority domain.Priority) domain.JobContext {
	user := c.user
	if user == "" {
		user = fmt.Sprintf("user%d", i)
	}
	return domain.JobContext{
		ID:        fmt.Sprintf("%d", i),
		Name:      fmt.Sprintf("job %d", i),
		User:      user,
		Priority:  priority,
		Type:      c.jobType,
		Payload:   "Content",
		ProcessID: i,
		Duration:  c.duration,
	}
}

func (c *simulateCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	if c.jobs <= 0 {
		return errors.NewError(fmt.Errorf("--jobs must be > 0, got %d", c.jobs), errors.UsageFailureExitCode)
	}
	if c.rate < 0 {
		return errors.NewError(fmt.Errorf("--rate must be >= 0, got %f", c.rate), errors.UsageFailureExitCode)
	}
	priority, err := c.priorities()
	if err != nil {
		return errors.NewError(err, errors.UsageFailureExitCode)
	}

	resources, err := cl.Config.NewResourceManager(cl.Stat.Scope("resources"))
	if err != nil {
		return errors.NewError(err, errors.ConfigFailureExitCode)
	}
	est, err := cl.Config.NewEstimator()
	if err != nil {
		return errors.NewError(err, errors.ConfigFailureExitCode)
	}
	sched, err := server.NewStatefulScheduler(cl.Config.SchedulerConfig(), resources, est, domain.NewFactory(), cl.Stat.Scope("sched"),
		server.WithListener(server.NewLoggingListener()))
	if err != nil {
		return errors.NewError(err, errors.ConfigFailureExitCode)
	}
	defer sched.Close()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	var pace *rate.Limiter
	if c.rate > 0 {
		pace = rate.NewLimiter(rate.Limit(c.rate), 1)
	}

	log.Infof("Simulating %d jobs, priority mode %s", c.jobs, c.priorityMode)
	handles := make([]*server.JobHandle, 0, c.jobs)
	for i := 1; i <= c.jobs; i++ {
		if pace != nil {
			if err := pace.Wait(ctx); err != nil {
				return errors.NewError(fmt.Errorf("submitted %d of %d jobs before timeout: %v", i-1, c.jobs, err),
					errors.SimulationTimeoutExitCode)
			}
		}
		h, err := sched.SubmitWait(ctx, c.jobContext(i, priority(i)))
		if err != nil {
			return fmt.Errorf("submitting job %d: %v", i, err)
		}
		fmt.Fprintf(cl.Out, "job %s: %s, available cpu:%d mem:%d\n",
			h.ID, h.Outcome, sched.AvailableCPU(), sched.AvailableMemory())
		handles = append(handles, h)
	}

	if err := waitIdle(ctx, sched); err != nil {
		return errors.NewError(err, errors.SimulationTimeoutExitCode)
	}

	fmt.Fprintln(cl.Out, summarize(handles))
	if c.printStats {
		fmt.Fprintf(cl.Out, "%s\n", cl.Stat.Render(true))
	}
	return nil
}

// Polls the scheduler with exponential backoff until nothing is waiting or
// admitted, giving up when ctx is done.
func waitIdle(ctx context.Context, sched server.Scheduler) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	// bounded by ctx only
	b.MaxElapsedTime = 0
	err := backoff.Retry(func() error {
		if !sched.Idle() {
			return fmt.Errorf("%d waiting, %d running", len(sched.ListWaiting()), len(sched.ListRunning()))
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return fmt.Errorf("jobs still in flight at the deadline: %v", err)
	}
	return nil
}

// One line per final state, ex: "Completed: 5 [1 2 3 4 5]".
func summarize(handles []*server.JobHandle) string {
	byState := map[domain.State][]string{}
	for _, h := range handles {
		byState[h.State()] = append(byState[h.State()], h.ID)
	}
	states := make([]domain.State, 0, len(byState))
	for s := range byState {
		states = append(states, s)
	}
	sort.Slice(states, func(i, j int) bool { return states[i] < states[j] })

	lines := []string{}
	for _, s := range states {
		lines = append(lines, fmt.Sprintf("%s: %d %v", s, len(byState[s]), byState[s]))
	}
	return strings.Join(lines, "\n")
}
