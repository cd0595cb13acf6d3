package hooks

import (
	"fmt"
	"path"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Number of frames to inspect when looking for the log call site.
const maxCallerDepth = 25

type contextHook struct {
	field string
}

// NewContextHook returns a logrus hook that tags each entry with the file:line
// of the code that emitted it.
func NewContextHook() contextHook {
	return contextHook{field: "file:line"}
}

func (hook contextHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook contextHook) Fire(entry *logrus.Entry) error {
	if site := callSite(); site != "" {
		entry.Data[hook.field] = site
	}
	return nil
}

// callSite walks the stack past logrus and this package and returns the first
// remaining frame, trimmed to the module-relative path.
func callSite() string {
	pcs := make([]uintptr, maxCallerDepth)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isLoggingFrame(frame.Function) {
			file := frame.File
			if i := strings.Index(file, "jobpool/"); i >= 0 {
				file = file[i+len("jobpool/"):]
			} else {
				file = path.Base(file)
			}
			return fmt.Sprintf("%s:%d", file, frame.Line)
		}
		if !more {
			return ""
		}
	}
}

func isLoggingFrame(fn string) bool {
	return strings.Contains(fn, "sirupsen/logrus") ||
		strings.Contains(fn, "hooks.contextHook.") ||
		strings.Contains(fn, "hooks.(*contextHook).") ||
		strings.Contains(fn, "hooks.callSite")
}
