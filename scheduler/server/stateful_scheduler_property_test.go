package server

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/jobpool/common/allocator"
	"github.com/twitter/jobpool/scheduler/domain"
	"github.com/twitter/jobpool/scheduler/estimator"
)

// Random submit/remove/update/drain sequences against a small pool. Jobs never
// finish on their own, so every change comes from the operation itself.
func Test_StatefulScheduler_RandomOperations(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	total := allocator.Resources{CPU: 10, Memory: 10240}
	est := estimator.Func(func(j *domain.Job) allocator.Resources {
		return allocator.Resources{CPU: 1 + int(j.Priority)%4, Memory: 1024 * (1 + int(j.Priority)%3)}
	})

	properties.Property("grants match the active queue and are all returned", prop.ForAll(
		func(ops []int) bool {
			m, _ := allocator.NewManager(total)
			s, err := NewStatefulScheduler(SchedulerConfiguration{MaxQueueSize: 3, MaxWaitingSize: 3},
				m, est, domain.NewFactory(), nil)
			if err != nil {
				return false
			}
			for _, op := range ops {
				id := fmt.Sprintf("job%d", op%9)
				switch op % 4 {
				case 0:
					s.Remove(id)
				case 1:
					s.DrainWaiting()
				case 2:
					s.Update(id, "renamed", fmt.Sprintf("%d", op))
				default:
					// the only expected error is reusing an id still in flight
					if _, err := s.Submit(jobCtx(id, op%11)); err != nil && errors.Cause(err) != ErrDuplicateJob {
						log.Errorf("unexpected submit error %v", err)
						return false
					}
				}
				if err := checkInvariants(s); err != nil {
					log.Error(err)
					return false
				}
				if len(s.ListAll()) > 3 || len(s.ListWaiting()) > 3 {
					return false
				}
			}
			s.Close()
			return m.Snapshot() == allocator.Pool{Total: total, Available: total}
		},
		gen.SliceOf(gen.IntRange(0, 200)),
	))

	properties.TestingRun(t)
}
