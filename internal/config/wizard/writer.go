package wizard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/imamik/kubestrap/internal/config"

	"gopkg.in/yaml.v3"
)

// Function variable for dependency injection in tests.
var confirmOverwrite = defaultConfirmOverwrite

// WriteConfig writes the config to a YAML file with a descriptive header.
// If fullOutput is false, only essential non-default values are written.
func WriteConfig(cfg *config.Config, outputPath string, fullOutput bool) error {
	var yamlBytes []byte
	var err error

	if fullOutput {
		full := *cfg
		full.ApplyDefaults()
		yamlBytes, err = yaml.Marshal(&full)
	} else {
		yamlBytes, err = yaml.Marshal(buildMinimalConfig(cfg))
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(outputPath, fullOutput))
	sb.WriteString("\n")
	sb.Write(yamlBytes)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// MinimalConfig represents the minimal configuration for YAML output.
// Its keys are a subset of config.Config, so the file loads unchanged.
type MinimalConfig struct {
	ClusterName       string                  `yaml:"cluster_name"`
	Location          string                  `yaml:"location"`
	ControlPlane      MinimalNodeConfig       `yaml:"control_plane"`
	Workers           MinimalWorkerConfig     `yaml:"workers"`
	Kubernetes        MinimalKubernetesConfig `yaml:"kubernetes"`
	SSH               MinimalSSHConfig        `yaml:"ssh"`
	API               *MinimalAPIConfig       `yaml:"api,omitempty"`
	AdminAllowedCIDRs []string                `yaml:"admin_allowed_cidrs,omitempty"`
	Network           *MinimalNetworkConfig   `yaml:"network,omitempty"`
	State             *MinimalStateConfig     `yaml:"state,omitempty"`
}

// MinimalNodeConfig holds the control-plane server type.
type MinimalNodeConfig struct {
	ServerType string `yaml:"server_type"`
}

// MinimalWorkerConfig holds the worker count and server type.
type MinimalWorkerConfig struct {
	Count      int    `yaml:"count"`
	ServerType string `yaml:"server_type"`
}

// MinimalKubernetesConfig holds the Kubernetes version.
type MinimalKubernetesConfig struct {
	Version string `yaml:"version"`
}

// MinimalSSHConfig holds the SSH key settings.
type MinimalSSHConfig struct {
	KeyName        string `yaml:"key_name"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

// MinimalAPIConfig holds the API name.
type MinimalAPIConfig struct {
	DNSName string `yaml:"dns_name"`
}

// MinimalNetworkConfig holds network CIDRs that differ from the defaults.
type MinimalNetworkConfig struct {
	IPv4CIDR        string `yaml:"ipv4_cidr,omitempty"`
	PodIPv4CIDR     string `yaml:"pod_ipv4_cidr,omitempty"`
	ServiceIPv4CIDR string `yaml:"service_ipv4_cidr,omitempty"`
}

// MinimalStateConfig holds the token state bucket.
type MinimalStateConfig struct {
	S3 config.S3Config `yaml:"s3"`
}

// buildMinimalConfig creates a minimal config from the full config.
func buildMinimalConfig(cfg *config.Config) *MinimalConfig {
	minCfg := &MinimalConfig{
		ClusterName:  cfg.ClusterName,
		Location:     cfg.Location,
		ControlPlane: MinimalNodeConfig{ServerType: cfg.ControlPlane.ServerType},
		Workers: MinimalWorkerConfig{
			Count:      cfg.Workers.Count,
			ServerType: cfg.Workers.ServerType,
		},
		Kubernetes: MinimalKubernetesConfig{Version: cfg.Kubernetes.Version},
		SSH: MinimalSSHConfig{
			KeyName:        cfg.SSH.KeyName,
			PrivateKeyPath: cfg.SSH.PrivateKeyPath,
		},
		AdminAllowedCIDRs: cfg.AdminAllowedCIDRs,
	}

	if cfg.API.DNSName != "" {
		minCfg.API = &MinimalAPIConfig{DNSName: cfg.API.DNSName}
	}

	// Network only when something differs from the defaults
	network := MinimalNetworkConfig{}
	if cfg.Network.IPv4CIDR != "" && cfg.Network.IPv4CIDR != config.DefaultNetworkCIDR {
		network.IPv4CIDR = cfg.Network.IPv4CIDR
	}
	if cfg.Network.PodIPv4CIDR != "" && cfg.Network.PodIPv4CIDR != config.DefaultPodCIDR {
		network.PodIPv4CIDR = cfg.Network.PodIPv4CIDR
	}
	if cfg.Network.ServiceIPv4CIDR != "" && cfg.Network.ServiceIPv4CIDR != config.DefaultServiceCIDR {
		network.ServiceIPv4CIDR = cfg.Network.ServiceIPv4CIDR
	}
	if network != (MinimalNetworkConfig{}) {
		minCfg.Network = &network
	}

	if cfg.State.S3.Enabled() {
		minCfg.State = &MinimalStateConfig{S3: cfg.State.S3}
	}

	return minCfg
}

// generateHeader creates the YAML file header comment.
func generateHeader(outputPath string, fullOutput bool) string {
	mode := "minimal"
	note := "\n# Note: This is a minimal config. Use --full flag for all options."
	if fullOutput {
		mode = "full"
		note = ""
	}
	return fmt.Sprintf(`# kubestrap cluster configuration
# Generated by: kubestrap init
# Generated at: %s
# Output mode: %s%s
#
# Required environment variable:
#   HCLOUD_TOKEN - Your Hetzner Cloud API token
#
# Usage:
#   export HCLOUD_TOKEN=<your-token>
#   kubestrap apply -c %s
`, time.Now().Format(time.RFC3339), mode, note, outputPath)
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ConfirmOverwrite prompts the user to confirm overwriting an existing file.
func ConfirmOverwrite(path string) (bool, error) {
	return confirmOverwrite(path)
}

// defaultConfirmOverwrite is the default implementation that prompts via stdin.
func defaultConfirmOverwrite(path string) (bool, error) {
	fmt.Printf("\nFile already exists: %s\n", path)
	fmt.Print("Overwrite? (y/n): ")

	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		return false, err
	}

	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
