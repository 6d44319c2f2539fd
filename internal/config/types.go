package config

import "time"

// KubeAPIPort is the standard Kubernetes API server port.
const KubeAPIPort = 6443

// Config holds the cluster configuration.
type Config struct {
	ClusterName string `yaml:"cluster_name"`
	HCloudToken string `yaml:"hcloud_token,omitempty"`
	Location    string `yaml:"location"` // e.g. nbg1, fsn1, hel1

	Network      NetworkConfig    `yaml:"network"`
	ControlPlane NodeConfig       `yaml:"control_plane"`
	Workers      WorkerConfig     `yaml:"workers"`
	Kubernetes   KubernetesConfig `yaml:"kubernetes"`
	API          APIConfig        `yaml:"api"`
	Ingress      IngressConfig    `yaml:"ingress"`
	SSH          SSHConfig        `yaml:"ssh"`

	// AdminAllowedCIDRs may reach SSH and the Kubernetes API.
	AdminAllowedCIDRs []string `yaml:"admin_allowed_cidrs"`

	// KubeconfigPath is where the retrieved admin kubeconfig is written.
	KubeconfigPath string `yaml:"kubeconfig_path"`

	State     StateConfig     `yaml:"state"`
	DNS       DNSConfig       `yaml:"dns"`
	Agent     AgentConfig     `yaml:"agent"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// NetworkConfig describes the private network and the cluster CIDRs.
type NetworkConfig struct {
	IPv4CIDR        string `yaml:"ipv4_cidr"`
	Zone            string `yaml:"zone"`
	PodIPv4CIDR     string `yaml:"pod_ipv4_cidr"`
	ServiceIPv4CIDR string `yaml:"service_ipv4_cidr"`
}

// NodeConfig sizes the control-plane server.
type NodeConfig struct {
	ServerType string `yaml:"server_type"`
	Image      string `yaml:"image"`
	// MinDiskGB rejects server types whose root disk is smaller.
	MinDiskGB int `yaml:"min_disk_gb"`
}

// WorkerConfig sizes the worker servers.
type WorkerConfig struct {
	Count      int    `yaml:"count"`
	ServerType string `yaml:"server_type"`
	Image      string `yaml:"image"`
	MinDiskGB  int    `yaml:"min_disk_gb"`
}

// KubernetesConfig selects what the node agents install.
type KubernetesConfig struct {
	// Version is the Kubernetes minor version, e.g. "1.31".
	Version string `yaml:"version"`
	// PodNetworkManifest is applied on the control plane after kubeadm init.
	PodNetworkManifest string `yaml:"pod_network_manifest"`
}

// APIConfig configures the load balancer fronting the Kubernetes API.
type APIConfig struct {
	Port int `yaml:"port"`
	// DNSName is the name written into the admin kubeconfig. When empty the
	// load balancer's reverse DNS name is used.
	DNSName          string `yaml:"dns_name,omitempty"`
	LoadBalancerType string `yaml:"load_balancer_type"`
}

// IngressConfig configures the load balancer fronting the workers.
type IngressConfig struct {
	Port             int    `yaml:"port"`
	LoadBalancerType string `yaml:"load_balancer_type"`
}

// SSHConfig configures access to the nodes.
type SSHConfig struct {
	// KeyName is the Hetzner SSH key installed on every server.
	KeyName        string `yaml:"key_name"`
	PrivateKeyPath string `yaml:"private_key_path"`
	User           string `yaml:"user"`
}

// StateConfig selects where the join token set is persisted.
type StateConfig struct {
	Path string   `yaml:"path"`
	S3   S3Config `yaml:"s3,omitempty"`
}

// S3Config points at an S3-compatible bucket. Empty Bucket means local file.
type S3Config struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
}

// Enabled reports whether the token set lives in object storage.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// DNSConfig controls publishing of the API name.
type DNSConfig struct {
	// CloudflareZone enables an A record for api.dns_name in this zone.
	CloudflareZone     string `yaml:"cloudflare_zone,omitempty"`
	CloudflareAPIToken string `yaml:"cloudflare_api_token,omitempty"`
	// ReverseDNS sets the API load balancer's PTR record to api.dns_name.
	ReverseDNS bool `yaml:"reverse_dns"`
}

// AgentConfig tells the boot script where to get the node agent and how
// patient it should be.
type AgentConfig struct {
	DownloadURL          string        `yaml:"download_url"`
	PackageRetryInterval time.Duration `yaml:"package_retry_interval"`
	JoinRetryInterval    time.Duration `yaml:"join_retry_interval"`
	// JoinMaxAttempts bounds worker join retries. Zero retries forever.
	JoinMaxAttempts int `yaml:"join_max_attempts"`
}

// RetrievalConfig tunes the admin kubeconfig retrieval.
type RetrievalConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	// MaxAttempts bounds readiness polling. Zero polls until cancelled.
	MaxAttempts int `yaml:"max_attempts"`
	// VerifyAPI also requires the API server's /readyz to answer.
	VerifyAPI *bool `yaml:"verify_api,omitempty"`
}

// ShouldVerifyAPI returns whether the readiness check includes /readyz.
func (r RetrievalConfig) ShouldVerifyAPI() bool {
	return r.VerifyAPI == nil || *r.VerifyAPI
}
