package commands

import (
	"github.com/imamik/kubestrap/cmd/kubestrap/handlers"

	"github.com/spf13/cobra"
)

// Token returns the command group for the cluster's join token.
func Token() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect or rotate the cluster join token",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: kubestrap.yaml)")

	var reveal bool
	show := &cobra.Command{
		Use:   "show",
		Short: "List join token versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.TokenShow(cmd.Context(), configPath, reveal)
		},
	}
	show.Flags().BoolVar(&reveal, "reveal", false, "Print token secrets")

	rotate := &cobra.Command{
		Use:   "rotate",
		Short: "Append a new join token version",
		Long: `Append a new join token version.

Servers created afterwards carry the new token. Nodes that already joined
are not affected.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.TokenRotate(cmd.Context(), configPath)
		},
	}

	cmd.AddCommand(show, rotate)
	return cmd
}
