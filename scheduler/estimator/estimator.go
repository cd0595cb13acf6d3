// Package estimator provides the strategies that price a job in cpu and
// memory units before the scheduler tries to admit it.
package estimator

//go:generate mockgen -source=estimator.go -package=estimator -destination=estimator_mock.go

import (
	"fmt"
	"strings"

	"github.com/twitter/jobpool/common/allocator"
	"github.com/twitter/jobpool/scheduler/domain"
)

// Estimator computes the resources a job needs. Implementations must be
// pure and safe for concurrent use, and must not return negative amounts.
type Estimator interface {
	Estimate(job *domain.Job) allocator.Resources
}

const (
	SimpleEstimator   = "simple"
	ComplexEstimator  = "complex"
	AdvancedEstimator = "advanced"
	FixedEstimator    = "fixed"
)

// Fixed prices every job at the same cost.
type Fixed struct {
	allocator.Resources
}

func (f Fixed) Estimate(*domain.Job) allocator.Resources {
	return f.Resources
}

func (f Fixed) String() string {
	return fmt.Sprintf("fixed{%s}", f.Resources)
}

var (
	Simple   = Fixed{allocator.Resources{CPU: 2, Memory: 1024}}
	Complex  = Fixed{allocator.Resources{CPU: 4, Memory: 2048}}
	Advanced = Fixed{allocator.Resources{CPU: 8, Memory: 4096}}
)

// ByName returns one of the predefined strategies, case insensitive.
func ByName(name string) (Estimator, error) {
	switch strings.ToLower(name) {
	case SimpleEstimator:
		return Simple, nil
	case ComplexEstimator:
		return Complex, nil
	case AdvancedEstimator:
		return Advanced, nil
	default:
		return nil, fmt.Errorf("unknown estimator %q, expected one of %s|%s|%s",
			name, SimpleEstimator, ComplexEstimator, AdvancedEstimator)
	}
}

// Func adapts an ordinary function to the Estimator interface.
type Func func(job *domain.Job) allocator.Resources

func (f Func) Estimate(job *domain.Job) allocator.Resources {
	return f(job)
}
