package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/twitter/jobpool/common/errors"
	"github.com/twitter/jobpool/common/log/hooks"
	"github.com/twitter/jobpool/scheduler/client/cli"
)

// Runs a jobpool simulation from the command line.
func main() {
	log.AddHook(hooks.NewContextHook())

	c, err := cli.NewSimpleCLIClient(os.Stdout)
	if err != nil {
		log.Fatal("Cannot initialize jobpool CLI: ", err)
	}
	if err := c.Exec(); err != nil {
		code := errors.GenericFailureExitCode
		if e, ok := err.(*errors.ExitCodeError); ok {
			code = e.GetExitCode()
		}
		log.Errorf("error running jobpool: %v", err)
		os.Exit(int(code))
	}
}
