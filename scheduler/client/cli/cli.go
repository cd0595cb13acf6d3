package cli

import (
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	commoncli "github.com/twitter/jobpool/common/client"
	"github.com/twitter/jobpool/common/errors"
	"github.com/twitter/jobpool/common/stats"
	"github.com/twitter/jobpool/scheduler/config"
)

// SchedCLIClient includes fields required for CLI client handling
type SchedCLIClient struct {
	commoncli.SimpleClient
}

func (c *SchedCLIClient) Exec() error {
	return c.RootCmd.Execute()
}

// NewSimpleCLIClient builds the jobpool command tree. Results are written to
// out, os.Stdout when nil.
func NewSimpleCLIClient(out io.Writer) (*SchedCLIClient, error) {
	if out == nil {
		out = os.Stdout
	}
	c := &SchedCLIClient{}
	c.Out = out

	c.RootCmd = &cobra.Command{
		Use:               "jobpool",
		Short:             "jobpool simulates jobs competing for a fixed cpu and memory budget",
		PersistentPreRunE: c.Init,
		Run:               func(*cobra.Command, []string) {},
		SilenceUsage:      true,
	}
	c.RootCmd.SetOutput(out)
	c.RootCmd.PersistentFlags().StringVar(&c.LogLevel, "log_level", "info", "Log everything at this level and above (error|info|debug)")
	c.RootCmd.PersistentFlags().StringVar(&c.ConfigSelector, "config", "default",
		"Built in configuration name, path to a .json file, or JSON text")
	c.RootCmd.PersistentFlags().DurationVar(&c.StatsPrecision, "stats_precision", time.Millisecond,
		"Unit latencies are rendered in")

	c.addCmd(&simulateCmd{})
	c.addCmd(&showConfigCmd{})

	return c, nil
}

// Can only be called from cobra command run or hook
func (c *SchedCLIClient) Init(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Error(err)
		return errors.NewError(err, errors.UsageFailureExitCode)
	}
	log.SetLevel(level)

	c.Config, err = config.GetConfig(c.ConfigSelector)
	if err != nil {
		return errors.NewError(err, errors.ConfigFailureExitCode)
	}
	log.Infof("Using config %s: %s", c.ConfigSelector, c.Config)
	c.Stat = stats.NewCustomStatsReceiver(stats.NewFinagleStatsRegistry).Precision(c.StatsPrecision)
	return nil
}

func (c *SchedCLIClient) addCmd(cmd commoncli.Cmd) {
	cobraCmd := cmd.RegisterFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.Run(&c.SimpleClient, innerCmd, args)
	}
	c.RootCmd.AddCommand(cobraCmd)
}
