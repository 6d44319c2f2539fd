package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"sort"
)

// ValidLocations contains all valid Hetzner Cloud datacenter locations.
// https://docs.hetzner.com/cloud/general/locations/
var ValidLocations = map[string]bool{
	"nbg1": true, // Nuremberg, Germany
	"fsn1": true, // Falkenstein, Germany
	"hel1": true, // Helsinki, Finland
	"ash":  true, // Ashburn, USA
	"hil":  true, // Hillsboro, USA
	"sin":  true, // Singapore
}

// ValidNetworkZones contains all valid Hetzner Cloud network zones.
// https://docs.hetzner.com/cloud/networks/overview/
var ValidNetworkZones = map[string]bool{
	"eu-central":   true,
	"us-east":      true,
	"us-west":      true,
	"ap-southeast": true,
}

var (
	clusterNamePattern       = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]{0,30}[a-z0-9])?$`)
	kubernetesVersionPattern = regexp.MustCompile(`^1\.[0-9]+$`)
	dnsNamePattern           = regexp.MustCompile(`^([a-z0-9]([-a-z0-9]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)
)

// Validate checks the configuration for common errors and returns a detailed error if validation fails.
func (c *Config) Validate() error {
	if c.ClusterName == "" {
		return fmt.Errorf("cluster_name is required")
	}
	if !clusterNamePattern.MatchString(c.ClusterName) {
		return fmt.Errorf("invalid cluster_name %q: must be a lowercase DNS label of at most 32 characters", c.ClusterName)
	}
	if c.HCloudToken == "" {
		return fmt.Errorf("hcloud_token is required (or set %s)", EnvHCloudToken)
	}
	if c.Location == "" {
		return fmt.Errorf("location is required")
	}
	if !ValidLocations[c.Location] {
		return fmt.Errorf("invalid location %q: must be one of %v", c.Location, getMapKeys(ValidLocations))
	}

	if err := c.validateNetwork(); err != nil {
		return fmt.Errorf("network validation failed: %w", err)
	}
	if err := c.validateNodes(); err != nil {
		return fmt.Errorf("node validation failed: %w", err)
	}
	if err := c.validateAccess(); err != nil {
		return fmt.Errorf("access validation failed: %w", err)
	}
	if err := c.validateBootstrap(); err != nil {
		return fmt.Errorf("bootstrap validation failed: %w", err)
	}
	return nil
}

func getMapKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c *Config) validateNetwork() error {
	if c.Network.Zone != "" && !ValidNetworkZones[c.Network.Zone] {
		return fmt.Errorf("invalid network zone %q: must be one of %v", c.Network.Zone, getMapKeys(ValidNetworkZones))
	}

	for key, cidr := range map[string]string{
		"network.ipv4_cidr":         c.Network.IPv4CIDR,
		"network.pod_ipv4_cidr":     c.Network.PodIPv4CIDR,
		"network.service_ipv4_cidr": c.Network.ServiceIPv4CIDR,
	} {
		if cidr == "" {
			return fmt.Errorf("%s is required", key)
		}
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	// Also rejects networks too small to hold the node subnets.
	if _, err := c.LoadBalancerSubnet(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNodes() error {
	if c.ControlPlane.ServerType == "" {
		return fmt.Errorf("control_plane.server_type is required")
	}
	if c.ControlPlane.MinDiskGB < 0 {
		return fmt.Errorf("control_plane.min_disk_gb cannot be negative, got %d", c.ControlPlane.MinDiskGB)
	}
	if c.Workers.Count < 0 {
		return fmt.Errorf("workers.count cannot be negative, got %d", c.Workers.Count)
	}
	if c.Workers.Count > MaxWorkers {
		return fmt.Errorf("workers.count %d exceeds the maximum of %d", c.Workers.Count, MaxWorkers)
	}
	if c.Workers.Count > 0 && c.Workers.ServerType == "" {
		return fmt.Errorf("workers.server_type is required")
	}
	if c.Workers.MinDiskGB < 0 {
		return fmt.Errorf("workers.min_disk_gb cannot be negative, got %d", c.Workers.MinDiskGB)
	}
	return nil
}

func (c *Config) validateAccess() error {
	if c.SSH.KeyName == "" {
		return fmt.Errorf("ssh.key_name is required")
	}
	if c.SSH.PrivateKeyPath == "" {
		return fmt.Errorf("ssh.private_key_path is required")
	}
	if c.SSH.User == "" {
		return fmt.Errorf("ssh.user is required")
	}
	for _, cidr := range c.AdminAllowedCIDRs {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			return fmt.Errorf("invalid admin_allowed_cidrs entry %q: %w", cidr, err)
		}
	}
	if err := validatePort("api.port", c.API.Port); err != nil {
		return err
	}
	if err := validatePort("ingress.port", c.Ingress.Port); err != nil {
		return err
	}
	if c.API.Port == c.Ingress.Port {
		return fmt.Errorf("api.port and ingress.port must differ, both are %d", c.API.Port)
	}
	if c.API.DNSName != "" && !dnsNamePattern.MatchString(c.API.DNSName) {
		return fmt.Errorf("invalid api.dns_name %q", c.API.DNSName)
	}
	if c.DNS.CloudflareZone != "" {
		if c.API.DNSName == "" {
			return fmt.Errorf("dns.cloudflare_zone requires api.dns_name")
		}
		if c.DNS.CloudflareAPIToken == "" {
			return fmt.Errorf("dns.cloudflare_zone requires a Cloudflare API token (set %s)", EnvCloudflareToken)
		}
	}
	if c.DNS.ReverseDNS && c.API.DNSName == "" {
		return fmt.Errorf("dns.reverse_dns requires api.dns_name")
	}
	if c.KubeconfigPath == "" {
		return fmt.Errorf("kubeconfig_path is required")
	}
	if c.Retrieval.MaxAttempts < 0 {
		return fmt.Errorf("retrieval.max_attempts cannot be negative, got %d", c.Retrieval.MaxAttempts)
	}
	return nil
}

func (c *Config) validateBootstrap() error {
	if !kubernetesVersionPattern.MatchString(c.Kubernetes.Version) {
		return fmt.Errorf("invalid kubernetes.version %q: expected a minor version like 1.31", c.Kubernetes.Version)
	}
	if err := validateURL("kubernetes.pod_network_manifest", c.Kubernetes.PodNetworkManifest); err != nil {
		return err
	}
	if err := validateURL("agent.download_url", c.Agent.DownloadURL); err != nil {
		return err
	}
	if c.Agent.JoinMaxAttempts < 0 {
		return fmt.Errorf("agent.join_max_attempts cannot be negative, got %d", c.Agent.JoinMaxAttempts)
	}
	if c.State.S3.Enabled() && c.State.S3.Endpoint != "" {
		if err := validateURL("state.s3.endpoint", c.State.S3.Endpoint); err != nil {
			return err
		}
	}
	return nil
}

func validatePort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", key, port)
	}
	return nil
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an http(s) URL", key, raw)
	}
	return nil
}
