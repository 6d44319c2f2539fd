package commands

import (
	"github.com/imamik/kubestrap/cmd/kubestrap/handlers"

	"github.com/spf13/cobra"
)

// Agent returns the command group run on the nodes themselves.
func Agent() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Node-side bootstrap agent",
	}

	var (
		configPath string
		verbosity  int
	)
	run := &cobra.Command{
		Use:   "run",
		Short: "Run this node's boot sequence",
		Long: `Run the boot sequence of this node.

The user data of every server installs kubestrap and runs this command.
States that completed in an earlier run are skipped, so a reboot resumes
where the sequence stopped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.AgentRun(cmd.Context(), configPath, verbosity)
		},
	}
	run.Flags().StringVar(&configPath, "config", "", "Path to the agent configuration (default: /etc/kubestrap/agent.yaml)")
	run.Flags().IntVarP(&verbosity, "verbosity", "v", 0, "Log verbosity")

	cmd.AddCommand(run)
	return cmd
}
