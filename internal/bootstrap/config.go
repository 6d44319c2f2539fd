package bootstrap

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/imamik/kubestrap/internal/node"
	"github.com/imamik/kubestrap/internal/token"

	"gopkg.in/yaml.v3"
)

// Paths on the node.
const (
	DefaultConfigPath     = "/etc/kubestrap/agent.yaml"
	DefaultProgressPath   = "/var/lib/kubestrap/progress.yaml"
	DefaultMetricsPath    = "/var/lib/node_exporter/textfile_collector/kubestrap.prom"
	DefaultJoinScriptPath = "/root/kubestrap-join.sh"
	DefaultKubeadmConfig  = "/etc/kubestrap/kubeadm-init.yaml"
	DefaultMetadataURL    = "http://169.254.169.254/hetzner/v1/metadata"

	AdminKubeconfigPath   = "/etc/kubernetes/admin.conf"
	KubeletKubeconfigPath = "/etc/kubernetes/kubelet.conf"
	ContainerdSocket      = "/run/containerd/containerd.sock"

	// APIServerPort is where kube-apiserver listens on the control plane.
	APIServerPort = 6443
)

// Config is the agent configuration written by cloud-init.
type Config struct {
	Role     node.Role `yaml:"role"`
	NodeName string    `yaml:"node_name"`
	Token    string    `yaml:"token"`

	// KubernetesVersion is a minor version such as "1.31".
	KubernetesVersion string `yaml:"kubernetes_version"`

	PrivateIP string `yaml:"private_ip"`
	// PublicIP is looked up from the metadata service when empty.
	PublicIP string `yaml:"public_ip,omitempty"`
	// ControlPlaneIP is the private address workers join through.
	ControlPlaneIP string `yaml:"control_plane_ip"`

	PodCIDR     string `yaml:"pod_cidr"`
	ServiceCIDR string `yaml:"service_cidr"`

	// Extra API server certificate names.
	APIDNSName        string `yaml:"api_dns_name,omitempty"`
	APILoadBalancerIP string `yaml:"api_load_balancer_ip,omitempty"`

	PodNetworkManifest string `yaml:"pod_network_manifest,omitempty"`

	PackageRetryInterval time.Duration `yaml:"package_retry_interval"`
	PackageMaxAttempts   int           `yaml:"package_max_attempts,omitempty"`
	RuntimePollInterval  time.Duration `yaml:"runtime_poll_interval"`
	RuntimeMaxAttempts   int           `yaml:"runtime_max_attempts,omitempty"`
	JoinRetryInterval    time.Duration `yaml:"join_retry_interval"`
	JoinMaxAttempts      int           `yaml:"join_max_attempts,omitempty"`

	MetadataURL    string `yaml:"metadata_url,omitempty"`
	ProgressPath   string `yaml:"progress_path,omitempty"`
	MetricsPath    string `yaml:"metrics_path,omitempty"`
	JoinScriptPath string `yaml:"join_script_path,omitempty"`
}

// LoadConfig reads, defaults and validates the agent configuration.
func LoadConfig(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read agent config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse agent config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}
	return &cfg, nil
}

// Marshal renders the configuration as written to the node.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal agent config: %w", err)
	}
	return data, nil
}

// ApplyDefaults fills empty fields.
func (c *Config) ApplyDefaults() {
	if c.PackageRetryInterval == 0 {
		c.PackageRetryInterval = 10 * time.Second
	}
	if c.RuntimePollInterval == 0 {
		c.RuntimePollInterval = 2 * time.Second
	}
	if c.JoinRetryInterval == 0 {
		c.JoinRetryInterval = 15 * time.Second
	}
	if c.MetadataURL == "" {
		c.MetadataURL = DefaultMetadataURL
	}
	if c.ProgressPath == "" {
		c.ProgressPath = DefaultProgressPath
	}
	if c.JoinScriptPath == "" {
		c.JoinScriptPath = DefaultJoinScriptPath
	}
	if c.MetricsPath == "" {
		c.MetricsPath = DefaultMetricsPath
	}
	if c.Role == node.RoleControlPlane && c.ControlPlaneIP == "" {
		c.ControlPlaneIP = c.PrivateIP
	}
}

// Validate checks the fields the agent's role needs.
func (c *Config) Validate() error {
	if _, err := node.ParseRole(string(c.Role)); err != nil {
		return err
	}
	if c.NodeName == "" {
		return fmt.Errorf("node_name is required")
	}
	if _, err := token.Parse(c.Token); err != nil {
		return fmt.Errorf("token: %w", err)
	}
	if c.KubernetesVersion == "" {
		return fmt.Errorf("kubernetes_version is required")
	}
	if net.ParseIP(c.PrivateIP) == nil {
		return fmt.Errorf("private_ip %q is not an IP address", c.PrivateIP)
	}
	if net.ParseIP(c.ControlPlaneIP) == nil {
		return fmt.Errorf("control_plane_ip %q is not an IP address", c.ControlPlaneIP)
	}
	if c.PublicIP != "" && net.ParseIP(c.PublicIP) == nil {
		return fmt.Errorf("public_ip %q is not an IP address", c.PublicIP)
	}
	if c.JoinMaxAttempts < 0 || c.PackageMaxAttempts < 0 || c.RuntimeMaxAttempts < 0 {
		return fmt.Errorf("max attempts cannot be negative")
	}

	if c.Role == node.RoleControlPlane {
		for key, cidr := range map[string]string{"pod_cidr": c.PodCIDR, "service_cidr": c.ServiceCIDR} {
			if _, _, err := net.ParseCIDR(cidr); err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
		}
		if c.PodNetworkManifest == "" {
			return fmt.Errorf("pod_network_manifest is required on the control plane")
		}
	}
	return nil
}
