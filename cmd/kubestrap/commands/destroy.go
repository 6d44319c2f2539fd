package commands

import (
	"github.com/imamik/kubestrap/cmd/kubestrap/handlers"

	"github.com/spf13/cobra"
)

// Destroy returns the destroy command.
//
// It deletes every resource labeled for the cluster, the Cloudflare
// record of the API name and the stored join token set.
func Destroy() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy a cluster and all associated resources",
		Long: `Destroy removes all cluster resources from Hetzner Cloud.

This command deletes:
  - Servers (control plane and workers, surplus workers included)
  - The API and ingress load balancers
  - The firewall and private network
  - The published API DNS record
  - The stored join token set

Example:
  kubestrap destroy -c kubestrap.yaml

WARNING: This operation is irreversible. All cluster data will be lost.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Destroy(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to cluster configuration file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
