package commands

import (
	"github.com/imamik/kubestrap/cmd/kubestrap/handlers"

	"github.com/spf13/cobra"
)

// Status returns the command that reports load balancer and node health.
func Status() *cobra.Command {
	var (
		configPath string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show load balancer targets and node readiness",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Status(cmd.Context(), configPath, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: kubestrap.yaml)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")

	return cmd
}
