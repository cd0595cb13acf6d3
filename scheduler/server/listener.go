package server

import (
	"github.com/luci/go-render/render"
	log "github.com/sirupsen/logrus"

	"github.com/twitter/jobpool/scheduler/domain"
)

// Listener observes job transitions. Methods are called with the scheduler
// lock held, in transition order, and must not call back into the scheduler.
type Listener interface {
	Submitted(job domain.JobSnapshot)
	Admitted(job domain.JobSnapshot)
	Waiting(job domain.JobSnapshot)

	// The snapshot carries the terminal state.
	Finished(job domain.JobSnapshot)

	// Ids admitted by one drain pass, most favored first.
	Drained(ids []string)
}

type NopListener struct{}

func (NopListener) Submitted(job domain.JobSnapshot) {}
func (NopListener) Admitted(job domain.JobSnapshot)  {}
func (NopListener) Waiting(job domain.JobSnapshot)   {}
func (NopListener) Finished(job domain.JobSnapshot)  {}
func (NopListener) Drained(ids []string)             {}

// NewLoggingListener dumps every transition at debug level.
func NewLoggingListener() Listener {
	return &loggingListener{}
}

type loggingListener struct{}

func (l *loggingListener) Submitted(job domain.JobSnapshot) {
	log.Debugf("Submitted %s", render.Render(job))
}

func (l *loggingListener) Admitted(job domain.JobSnapshot) {
	log.Debugf("Admitted %s", render.Render(job))
}

func (l *loggingListener) Waiting(job domain.JobSnapshot) {
	log.Debugf("Waiting %s", render.Render(job))
}

func (l *loggingListener) Finished(job domain.JobSnapshot) {
	log.Debugf("Finished %s", render.Render(job))
}

func (l *loggingListener) Drained(ids []string) {
	log.Debugf("Drained %s", render.Render(ids))
}
