package client

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/twitter/jobpool/common/stats"
	"github.com/twitter/jobpool/scheduler/config"
)

// Client interface that includes CLI handling
type CLIClient interface {
	Exec() error
}

// SimpleClient includes base fields required for implementing client
type SimpleClient struct {
	RootCmd        *cobra.Command
	LogLevel       string
	ConfigSelector string
	StatsPrecision time.Duration

	// Resolved from ConfigSelector before any command runs
	Config *config.JSONConfigs
	Stat   stats.StatsReceiver
	Out    io.Writer
}

// Command interface used to run client commands
type Cmd interface {
	RegisterFlags() *cobra.Command
	Run(cl *SimpleClient, cmd *cobra.Command, args []string) error
}
