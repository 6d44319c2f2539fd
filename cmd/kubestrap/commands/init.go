package commands

import (
	"github.com/imamik/kubestrap/cmd/kubestrap/handlers"
	"github.com/imamik/kubestrap/internal/util/keygen"

	"github.com/spf13/cobra"
)

// Init returns the command for interactively creating a cluster configuration.
//
// Flags:
//
//	--output, -o: Path to output file (default "kubestrap.yaml")
//	--advanced, -a: Ask for network and token storage settings
//	--full, -f: Output full YAML with all options (default: minimal output)
//	--generate-ssh-key: Create a key pair and upload it when HCLOUD_TOKEN is set
//	--ssh-key-type: ed25519 (default) or rsa
func Init() *cobra.Command {
	var opts handlers.InitOptions
	var outputPath, keyType string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively create a cluster configuration",
		Long: `Interactively create a cluster configuration file.

This command guides you through configuring your cluster step by step.
It will ask about:

  - Cluster identity (name and location)
  - SSH access (Hetzner key name and private key path)
  - Server architecture and category
  - Control plane and worker server types
  - Worker count and Kubernetes version
  - Admin networks and an optional API DNS name

Use --advanced for network CIDRs and S3 storage of the join token.

Use --generate-ssh-key to create a dedicated key pair next to the config
file. With HCLOUD_TOKEN set, the public key is uploaded to Hetzner Cloud.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.SSHKeyType = keygen.Algorithm(keyType)
			return handlers.Init(cmd.Context(), outputPath, opts)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", handlers.DefaultConfigFile, "Output file path")
	cmd.Flags().BoolVarP(&opts.Advanced, "advanced", "a", false, "Show advanced configuration options")
	cmd.Flags().BoolVarP(&opts.FullOutput, "full", "f", false, "Output full YAML with all options")
	cmd.Flags().BoolVar(&opts.GenerateSSHKey, "generate-ssh-key", false, "Generate an SSH key pair for the cluster")
	cmd.Flags().StringVar(&keyType, "ssh-key-type", string(keygen.Ed25519), "Algorithm of the generated key: ed25519 or rsa")

	return cmd
}
