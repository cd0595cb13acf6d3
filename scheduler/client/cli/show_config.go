package cli

/**
implements the command line entry for the config command
*/

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/twitter/jobpool/common/client"
	"github.com/twitter/jobpool/scheduler/config"
)

type showConfigCmd struct {
	printAsJson bool
	list        bool
}

func (c *showConfigCmd) RegisterFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
	}
	r.Flags().BoolVar(&c.printAsJson, "json", false, "Print out the configuration as JSON")
	r.Flags().BoolVar(&c.list, "list", false, "List the built in configuration names")
	return r
}

func (c *showConfigCmd) Run(cl *client.SimpleClient, cmd *cobra.Command, args []string) error {
	if c.list {
		for _, name := range config.ConfigNames() {
			fmt.Fprintln(cl.Out, name)
		}
		return nil
	}

	if c.printAsJson {
		asJson, err := json.MarshalIndent(cl.Config, "", "  ")
		if err != nil {
			return fmt.Errorf("Error converting config to JSON: %v", err.Error())
		}
		fmt.Fprintf(cl.Out, "%s\n", asJson)
	} else {
		sc := cl.Config.SchedulerConfig()
		fmt.Fprintf(cl.Out, "Config %s:%s\n%s\n", cl.ConfigSelector, cl.Config, sc.String())
	}
	return nil
}
