package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults used when the configuration file leaves a field empty.
const (
	DefaultNetworkCIDR        = "10.0.0.0/16"
	DefaultNetworkZone        = "eu-central"
	DefaultPodCIDR            = "10.244.0.0/16"
	DefaultServiceCIDR        = "10.96.0.0/12"
	DefaultServerType         = "cpx21"
	DefaultImage              = "ubuntu-24.04"
	DefaultKubernetesVersion  = "1.31"
	DefaultPodNetworkManifest = "https://github.com/flannel-io/flannel/releases/latest/download/kube-flannel.yml"
	DefaultLoadBalancerType   = "lb11"
	DefaultIngressPort        = 80
	DefaultSSHUser            = "root"
	DefaultKubeconfigPath     = "kubeconfig"
	DefaultStatePath          = "kubestrap-state.yaml"
	DefaultAgentDownloadURL   = "https://github.com/imamik/kubestrap/releases/latest/download/kubestrap-linux-{arch}"

	DefaultPackageRetryInterval = 10 * time.Second
	DefaultJoinRetryInterval    = 15 * time.Second
	DefaultRetrievalInterval    = 10 * time.Second
)

// Environment variables consulted for secrets.
const (
	EnvHCloudToken     = "HCLOUD_TOKEN"
	EnvCloudflareToken = "CLOUDFLARE_API_TOKEN" // #nosec G101
	EnvS3AccessKey     = "KUBESTRAP_S3_ACCESS_KEY"
	EnvS3SecretKey     = "KUBESTRAP_S3_SECRET_KEY" // #nosec G101
)

// locationZones maps a location to the network zone it belongs to.
var locationZones = map[string]string{
	"nbg1": "eu-central",
	"fsn1": "eu-central",
	"hel1": "eu-central",
	"ash":  "us-east",
	"hil":  "us-west",
	"sin":  "ap-southeast",
}

// LoadFile reads, defaults and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML and applies defaults and environment secrets without
// validating. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	cfg.ApplyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// Save writes cfg as YAML with owner-only permissions. Secrets that came
// from the environment are not written.
func Save(path string, cfg *Config) error {
	out := *cfg
	if os.Getenv(EnvHCloudToken) == out.HCloudToken {
		out.HCloudToken = ""
	}
	if os.Getenv(EnvCloudflareToken) == out.DNS.CloudflareAPIToken {
		out.DNS.CloudflareAPIToken = ""
	}
	if os.Getenv(EnvS3AccessKey) == out.State.S3.AccessKey {
		out.State.S3.AccessKey = ""
	}
	if os.Getenv(EnvS3SecretKey) == out.State.S3.SecretKey {
		out.State.S3.SecretKey = ""
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyDefaults fills every empty field with its default.
func (c *Config) ApplyDefaults() {
	if c.Network.IPv4CIDR == "" {
		c.Network.IPv4CIDR = DefaultNetworkCIDR
	}
	if c.Network.Zone == "" {
		if zone, ok := locationZones[c.Location]; ok {
			c.Network.Zone = zone
		} else {
			c.Network.Zone = DefaultNetworkZone
		}
	}
	if c.Network.PodIPv4CIDR == "" {
		c.Network.PodIPv4CIDR = DefaultPodCIDR
	}
	if c.Network.ServiceIPv4CIDR == "" {
		c.Network.ServiceIPv4CIDR = DefaultServiceCIDR
	}

	if c.ControlPlane.ServerType == "" {
		c.ControlPlane.ServerType = DefaultServerType
	}
	if c.ControlPlane.Image == "" {
		c.ControlPlane.Image = DefaultImage
	}
	if c.Workers.ServerType == "" {
		c.Workers.ServerType = DefaultServerType
	}
	if c.Workers.Image == "" {
		c.Workers.Image = DefaultImage
	}

	if c.Kubernetes.Version == "" {
		c.Kubernetes.Version = DefaultKubernetesVersion
	}
	c.Kubernetes.Version = strings.TrimPrefix(c.Kubernetes.Version, "v")
	if c.Kubernetes.PodNetworkManifest == "" {
		c.Kubernetes.PodNetworkManifest = DefaultPodNetworkManifest
	}

	if c.API.Port == 0 {
		c.API.Port = KubeAPIPort
	}
	if c.API.LoadBalancerType == "" {
		c.API.LoadBalancerType = DefaultLoadBalancerType
	}
	if c.Ingress.Port == 0 {
		c.Ingress.Port = DefaultIngressPort
	}
	if c.Ingress.LoadBalancerType == "" {
		c.Ingress.LoadBalancerType = DefaultLoadBalancerType
	}

	if c.SSH.User == "" {
		c.SSH.User = DefaultSSHUser
	}
	c.SSH.PrivateKeyPath = expandHome(c.SSH.PrivateKeyPath)

	if c.KubeconfigPath == "" {
		c.KubeconfigPath = DefaultKubeconfigPath
	}
	c.KubeconfigPath = expandHome(c.KubeconfigPath)
	if c.State.Path == "" {
		c.State.Path = DefaultStatePath
	}

	if c.Agent.DownloadURL == "" {
		c.Agent.DownloadURL = DefaultAgentDownloadURL
	}
	if c.Agent.PackageRetryInterval == 0 {
		c.Agent.PackageRetryInterval = DefaultPackageRetryInterval
	}
	if c.Agent.JoinRetryInterval == 0 {
		c.Agent.JoinRetryInterval = DefaultJoinRetryInterval
	}
	if c.Retrieval.PollInterval == 0 {
		c.Retrieval.PollInterval = DefaultRetrievalInterval
	}
}

func (c *Config) applyEnv() {
	if c.HCloudToken == "" {
		c.HCloudToken = os.Getenv(EnvHCloudToken)
	}
	if c.DNS.CloudflareAPIToken == "" {
		c.DNS.CloudflareAPIToken = os.Getenv(EnvCloudflareToken)
	}
	if c.State.S3.AccessKey == "" {
		c.State.S3.AccessKey = os.Getenv(EnvS3AccessKey)
	}
	if c.State.S3.SecretKey == "" {
		c.State.S3.SecretKey = os.Getenv(EnvS3SecretKey)
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
