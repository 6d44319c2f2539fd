package testing

import (
	"slices"

	"github.com/imamik/kubestrap/internal/config"
)

// ConfigBuilder provides a fluent interface for constructing test configs.
// Each method returns a new builder (immutable) for chaining.
type ConfigBuilder struct {
	cfg config.Config
}

// NewConfigBuilder creates a new ConfigBuilder with sensible defaults.
// Build applies the remaining config defaults.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		cfg: config.Config{
			ClusterName: "test-cluster",
			HCloudToken: "test-token",
			Location:    "nbg1",
			Network: config.NetworkConfig{
				IPv4CIDR: "10.0.0.0/16",
				Zone:     "eu-central",
			},
			SSH: config.SSHConfig{
				KeyName:        "test-key",
				PrivateKeyPath: "/nonexistent/id_rsa",
			},
			AdminAllowedCIDRs: []string{"198.51.100.0/24"},
		},
	}
}

// WithClusterName sets the cluster name.
func (b *ConfigBuilder) WithClusterName(name string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.ClusterName = name
	return newBuilder
}

// WithLocation sets the datacenter location.
func (b *ConfigBuilder) WithLocation(location string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Location = location
	return newBuilder
}

// WithNetwork sets the network configuration.
func (b *ConfigBuilder) WithNetwork(ipv4CIDR, zone string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Network.IPv4CIDR = ipv4CIDR
	newBuilder.cfg.Network.Zone = zone
	return newBuilder
}

// WithControlPlane sets the control-plane server type.
func (b *ConfigBuilder) WithControlPlane(serverType string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.ControlPlane.ServerType = serverType
	return newBuilder
}

// WithWorkers sets the number of workers.
func (b *ConfigBuilder) WithWorkers(count int) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.Workers.Count = count
	return newBuilder
}

// WithAPIDNSName sets the name clients use for the Kubernetes API.
func (b *ConfigBuilder) WithAPIDNSName(name string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.API.DNSName = name
	return newBuilder
}

// WithAdminCIDRs sets the admin allow-list. No arguments clears it.
func (b *ConfigBuilder) WithAdminCIDRs(cidrs ...string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.AdminAllowedCIDRs = cidrs
	return newBuilder
}

// WithSSHKey sets the Hetzner SSH key name and the local private key.
func (b *ConfigBuilder) WithSSHKey(name, privateKeyPath string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.SSH.KeyName = name
	newBuilder.cfg.SSH.PrivateKeyPath = privateKeyPath
	return newBuilder
}

// WithStatePath sets where the join token set is kept.
func (b *ConfigBuilder) WithStatePath(path string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.State.Path = path
	return newBuilder
}

// WithKubeconfigPath sets where the admin kubeconfig is written.
func (b *ConfigBuilder) WithKubeconfigPath(path string) *ConfigBuilder {
	newBuilder := b.clone()
	newBuilder.cfg.KubeconfigPath = path
	return newBuilder
}

// Build returns the constructed config with defaults applied.
func (b *ConfigBuilder) Build() *config.Config {
	cfg := b.clone().cfg
	cfg.ApplyDefaults()
	return &cfg
}

// clone creates a deep copy of the builder for immutability.
func (b *ConfigBuilder) clone() *ConfigBuilder {
	newCfg := b.cfg
	newCfg.AdminAllowedCIDRs = slices.Clone(b.cfg.AdminAllowedCIDRs)
	if b.cfg.Retrieval.VerifyAPI != nil {
		v := *b.cfg.Retrieval.VerifyAPI
		newCfg.Retrieval.VerifyAPI = &v
	}
	return &ConfigBuilder{cfg: newCfg}
}
