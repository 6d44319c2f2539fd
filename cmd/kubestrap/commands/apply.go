package commands

import (
	"github.com/imamik/kubestrap/cmd/kubestrap/handlers"

	"github.com/spf13/cobra"
)

// Apply returns the command that provisions or converges a cluster.
//
// Optional flags:
//
//	--config, -c: Path to cluster configuration YAML file (default: kubestrap.yaml)
//	--rotate-token: Append a new join token version before provisioning
//	--skip-api-check: Do not wait for /readyz after fetching the kubeconfig
//
// Environment variables:
//
//	HCLOUD_TOKEN: Hetzner Cloud API token (required)
func Apply() *cobra.Command {
	var configPath string
	var opts handlers.ApplyOptions

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create or update the cluster",
		Long: `Create or update your cluster.

Apply provisions the private network, firewall, API and ingress load
balancers and servers on Hetzner Cloud. Every server boots with user data
that installs the kubestrap agent, which initializes the control plane
with kubeadm or joins the node as a worker.

Apply then keeps the load balancer target pools in step with the servers
and blocks until the admin kubeconfig can be fetched from the control
plane. Re-running apply is safe: existing resources are reused.

Examples:
  # Create cluster using kubestrap.yaml in current directory
  kubestrap apply

  # Grow the worker pool after editing workers.count
  kubestrap apply -c production.yaml

  # Issue a new join token for servers created from now on
  kubestrap apply --rotate-token`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Apply(cmd.Context(), configPath, opts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: kubestrap.yaml)")
	cmd.Flags().BoolVar(&opts.RotateToken, "rotate-token", false, "Append a new join token version")
	cmd.Flags().BoolVar(&opts.SkipAPICheck, "skip-api-check", false, "Do not verify the API server after fetching the kubeconfig")

	return cmd
}
