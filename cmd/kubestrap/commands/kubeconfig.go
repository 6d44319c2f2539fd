package commands

import (
	"github.com/imamik/kubestrap/cmd/kubestrap/handlers"

	"github.com/spf13/cobra"
)

// Kubeconfig returns the command that fetches the admin kubeconfig of an
// existing cluster.
func Kubeconfig() *cobra.Command {
	var (
		configPath   string
		outputPath   string
		skipAPICheck bool
	)

	cmd := &cobra.Command{
		Use:   "kubeconfig",
		Short: "Fetch the admin kubeconfig",
		Long: `Fetch the admin kubeconfig from the control plane.

Nothing is created or changed on Hetzner Cloud. The command waits until
kubeadm has written admin.conf, rewrites its server address to the API
load balancer and saves it with mode 0600.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Kubeconfig(cmd.Context(), configPath, outputPath, skipAPICheck)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: kubestrap.yaml)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Where to write the kubeconfig (default: kubeconfig_path from the config)")
	cmd.Flags().BoolVar(&skipAPICheck, "skip-api-check", false, "Do not verify the API server after fetching the kubeconfig")

	return cmd
}
