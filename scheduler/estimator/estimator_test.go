package estimator

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/twitter/jobpool/common/allocator"
	"github.com/twitter/jobpool/scheduler/domain"
)

func TestPredefinedCosts(t *testing.T) {
	job := &domain.Job{ID: "1", Payload: "ignored"}
	assert.Equal(t, allocator.Resources{CPU: 2, Memory: 1024}, Simple.Estimate(job))
	assert.Equal(t, allocator.Resources{CPU: 4, Memory: 2048}, Complex.Estimate(job))
	assert.Equal(t, allocator.Resources{CPU: 8, Memory: 4096}, Advanced.Estimate(job))
}

func TestByName(t *testing.T) {
	for name, want := range map[string]Estimator{
		"simple":   Simple,
		"Complex":  Complex,
		"ADVANCED": Advanced,
	} {
		e, err := ByName(name)
		if assert.NoError(t, err, name) {
			assert.Equal(t, want, e, name)
		}
	}

	_, err := ByName("fixed")
	assert.Error(t, err)
	_, err = ByName("")
	assert.Error(t, err)
}

func TestFunc(t *testing.T) {
	e := Func(func(job *domain.Job) allocator.Resources {
		return allocator.Resources{CPU: int(job.Priority), Memory: len(job.Payload)}
	})
	assert.Equal(t, allocator.Resources{CPU: 3, Memory: 4}, e.Estimate(&domain.Job{Priority: 3, Payload: "abcd"}))
}

func TestMockEstimator(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	job := &domain.Job{ID: "1"}
	e := NewMockEstimator(mockCtrl)
	e.EXPECT().Estimate(job).Return(allocator.Resources{CPU: 1, Memory: 2})

	var est Estimator = e
	assert.Equal(t, allocator.Resources{CPU: 1, Memory: 2}, est.Estimate(job))
}
