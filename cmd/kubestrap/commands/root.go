// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the kubestrap CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "kubestrap",
		Short:         "Bootstrap kubeadm clusters on Hetzner Cloud",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Cluster lifecycle
	cmd.AddCommand(Init())
	cmd.AddCommand(Apply())
	cmd.AddCommand(Kubeconfig())
	cmd.AddCommand(Status())
	cmd.AddCommand(Token())
	cmd.AddCommand(Destroy())

	// Node-side and debugging commands
	cmd.AddCommand(Agent())
	cmd.AddCommand(Userdata())

	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
