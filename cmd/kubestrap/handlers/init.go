package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/imamik/kubestrap/internal/config"
	"github.com/imamik/kubestrap/internal/config/wizard"
	"github.com/imamik/kubestrap/internal/util/keygen"
	"github.com/imamik/kubestrap/internal/util/labels"
)

// InitOptions are the flags of the init command.
type InitOptions struct {
	// Advanced asks for network and state storage settings.
	Advanced bool
	// FullOutput writes every field with its default value.
	FullOutput bool
	// GenerateSSHKey creates a key pair next to the config file and
	// uploads its public half when HCLOUD_TOKEN is set.
	GenerateSSHKey bool
	// SSHKeyType is the algorithm of the generated key, ed25519 by default.
	SSHKeyType keygen.Algorithm
}

// Factory function variables for init - can be replaced in tests.
var (
	fileExists       = wizard.FileExists
	confirmOverwrite = wizard.ConfirmOverwrite
	runWizard        = wizard.RunWizard
	writeConfig      = wizard.WriteConfig
	generateKeyPair  = keygen.Generate
)

// Init runs the configuration wizard and writes the result to outputPath.
func Init(ctx context.Context, outputPath string, opts InitOptions) error {
	if outputPath == "" {
		outputPath = DefaultConfigFile
	}
	if fileExists(outputPath) {
		ok, err := confirmOverwrite(outputPath)
		if err != nil {
			return fmt.Errorf("failed to confirm overwrite: %w", err)
		}
		if !ok {
			fmt.Fprintln(out, "Aborted, existing configuration kept.")
			return nil
		}
	}

	printWelcome()

	result, err := runWizard(ctx, opts.Advanced)
	if err != nil {
		return fmt.Errorf("wizard canceled: %w", err)
	}
	cfg := wizard.BuildConfig(result)

	if opts.GenerateSSHKey {
		if err := generateSSHKey(ctx, cfg, filepath.Dir(outputPath), opts.SSHKeyType); err != nil {
			return err
		}
	}

	if err := writeConfig(cfg, outputPath, opts.FullOutput); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printInitSuccess(outputPath, cfg)
	return nil
}

// generateSSHKey writes <cluster>_id_<alg> and its .pub into dir and
// points the config at them. With HCLOUD_TOKEN set the public key is
// uploaded, named after the cluster unless the wizard chose a name.
func generateSSHKey(ctx context.Context, cfg *config.Config, dir string, alg keygen.Algorithm) error {
	if alg == "" {
		alg = keygen.Ed25519
	}
	pair, err := generateKeyPair(alg, "kubestrap-"+cfg.ClusterName)
	if err != nil {
		return err
	}

	privPath := filepath.Join(dir, cfg.ClusterName+"_"+alg.FileName())
	if err := os.WriteFile(privPath, pair.PrivateKey, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}
	if err := os.WriteFile(privPath+".pub", pair.PublicKey, 0644); err != nil {
		return fmt.Errorf("failed to write public key: %w", err)
	}
	cfg.SSH.PrivateKeyPath = privPath
	fmt.Fprintf(out, "\nGenerated SSH key pair: %s\n", privPath)

	hcloudToken := os.Getenv(config.EnvHCloudToken)
	if hcloudToken == "" {
		fmt.Fprintf(out, "HCLOUD_TOKEN is not set, upload %s.pub to Hetzner Cloud as %q yourself.\n", privPath, cfg.SSH.KeyName)
		return nil
	}

	keyName := cfg.SSH.KeyName
	if keyName == "" {
		keyName = cfg.ClusterName
	}
	infra := newInfraClient(hcloudToken)
	key, err := infra.CreateSSHKey(ctx, keyName, string(pair.PublicKey), labels.NewLabelBuilder(cfg.ClusterName).Build())
	if err != nil {
		return fmt.Errorf("failed to upload SSH key: %w", err)
	}
	cfg.SSH.KeyName = key.Name
	fmt.Fprintf(out, "Uploaded SSH key %q to Hetzner Cloud\n", key.Name)
	return nil
}

// printWelcome prints the welcome message.
func printWelcome() {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "kubestrap - kubeadm clusters on Hetzner Cloud")
	fmt.Fprintln(out, "=============================================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "This wizard creates a cluster configuration with sensible defaults.")
	fmt.Fprintln(out)
}

// printInitSuccess prints the success message with summary and next steps.
func printInitSuccess(outputPath string, cfg *config.Config) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration saved!")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  File: %s\n", outputPath)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Cluster Summary")
	fmt.Fprintln(out, "---------------")
	fmt.Fprintf(out, "  Name:          %s\n", cfg.ClusterName)
	fmt.Fprintf(out, "  Location:      %s\n", cfg.Location)
	fmt.Fprintf(out, "  Control plane: 1 x %s\n", cfg.ControlPlane.ServerType)
	fmt.Fprintf(out, "  Workers:       %d x %s\n", cfg.Workers.Count, cfg.Workers.ServerType)
	fmt.Fprintf(out, "  Kubernetes:    %s\n", cfg.Kubernetes.Version)
	fmt.Fprintf(out, "  SSH key:       %s\n", cfg.SSH.KeyName)
	if cfg.API.DNSName != "" {
		fmt.Fprintf(out, "  API name:      %s\n", cfg.API.DNSName)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Next Steps")
	fmt.Fprintln(out, "----------")
	fmt.Fprintln(out, "  1. Set your Hetzner Cloud API token:")
	fmt.Fprintln(out, "     export HCLOUD_TOKEN=<your-token>")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "  2. Review %s if needed\n", outputPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  3. Create your cluster:")
	fmt.Fprintf(out, "     kubestrap apply -c %s\n", outputPath)
	fmt.Fprintln(out)
}
