package wizard

import "github.com/imamik/kubestrap/internal/config"

// BuildConfig creates a Config struct from the wizard result.
func BuildConfig(result *WizardResult) *config.Config {
	cfg := &config.Config{
		ClusterName: result.ClusterName,
		Location:    result.Location,
		ControlPlane: config.NodeConfig{
			ServerType: result.ControlPlaneType,
		},
		Workers: config.WorkerConfig{
			Count:      result.WorkerCount,
			ServerType: result.WorkerType,
		},
		Kubernetes: config.KubernetesConfig{
			Version: result.KubernetesVersion,
		},
		SSH: config.SSHConfig{
			KeyName:        result.SSHKeyName,
			PrivateKeyPath: result.PrivateKeyPath,
		},
		API: config.APIConfig{
			DNSName: result.APIDNSName,
		},
	}

	if len(result.AdminCIDRs) > 0 {
		cfg.AdminAllowedCIDRs = result.AdminCIDRs
	}

	if result.AdvancedOptions != nil {
		applyAdvancedOptions(cfg, result.AdvancedOptions)
	}

	return cfg
}

// applyAdvancedOptions applies advanced options to the config.
func applyAdvancedOptions(cfg *config.Config, opts *AdvancedOptions) {
	if opts.NetworkCIDR != "" {
		cfg.Network.IPv4CIDR = opts.NetworkCIDR
	}
	if opts.PodCIDR != "" {
		cfg.Network.PodIPv4CIDR = opts.PodCIDR
	}
	if opts.ServiceCIDR != "" {
		cfg.Network.ServiceIPv4CIDR = opts.ServiceCIDR
	}

	if opts.StateBucket != "" {
		cfg.State.S3 = config.S3Config{
			Bucket:   opts.StateBucket,
			Endpoint: opts.StateEndpoint,
			Region:   opts.StateRegion,
		}
	}
}
