package commands

import (
	"github.com/imamik/kubestrap/cmd/kubestrap/handlers"

	"github.com/spf13/cobra"
)

// Userdata returns the command that prints a node's boot script.
func Userdata() *cobra.Command {
	var (
		configPath string
		role       string
		index      int
	)

	cmd := &cobra.Command{
		Use:   "userdata",
		Short: "Print the cloud-init user data of a node",
		Long: `Print the cloud-init user data a server of the given role receives.

The output contains the join token in clear text.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Userdata(cmd.Context(), configPath, role, index)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: kubestrap.yaml)")
	cmd.Flags().StringVar(&role, "role", "worker", "Node role: control-plane or worker")
	cmd.Flags().IntVar(&index, "index", 0, "Worker index")

	return cmd
}
