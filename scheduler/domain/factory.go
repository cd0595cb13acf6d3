package domain

import (
	"sort"
	"time"

	uuid "github.com/nu7hatch/gouuid"
	"github.com/pkg/errors"
)

const (
	GeneralJobType = "General"
	SimpleJobType  = "Simple"
)

var (
	ErrUnknownJobType  = errors.New("unknown job type")
	ErrInvalidDuration = errors.New("duration must be >= 0")
)

// Factory builds Job records from client supplied contexts.
type Factory interface {
	Create(ctx JobContext) (*Job, error)
}

// NewFactory returns a Factory that knows the General and Simple job types.
func NewFactory() Factory {
	return &factory{
		types: map[string]bool{GeneralJobType: true, SimpleJobType: true},
		now:   time.Now,
	}
}

// NewFactoryWithTypes is like NewFactory for an arbitrary set of type tags.
func NewFactoryWithTypes(types ...string) Factory {
	f := &factory{types: map[string]bool{}, now: time.Now}
	for _, t := range types {
		f.types[t] = true
	}
	return f
}

type factory struct {
	types map[string]bool
	now   func() time.Time
}

func (f *factory) Create(ctx JobContext) (*Job, error) {
	if !f.types[ctx.Type] {
		return nil, errors.Wrapf(ErrUnknownJobType, "%q, known types %v", ctx.Type, f.knownTypes())
	}
	if ctx.Duration < 0 {
		return nil, errors.Wrapf(ErrInvalidDuration, "job %q duration %s", ctx.ID, ctx.Duration)
	}
	id := ctx.ID
	if id == "" {
		id = generateJobID()
	}
	return &Job{
		ID:          id,
		Name:        ctx.Name,
		User:        ctx.User,
		Priority:    ctx.Priority,
		Type:        ctx.Type,
		Payload:     ctx.Payload,
		ProcessID:   ctx.ProcessID,
		Duration:    ctx.Duration,
		SubmittedAt: f.now(),
	}, nil
}

func (f *factory) knownTypes() []string {
	types := make([]string, 0, len(f.types))
	for t := range f.types {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func generateJobID() string {
	id, err := uuid.NewV4()
	for err != nil {
		id, err = uuid.NewV4()
	}
	return id.String()
}
