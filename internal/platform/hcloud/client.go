package hcloud

import (
	"context"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ServerCreateOpts holds all parameters for creating a cluster server.
type ServerCreateOpts struct {
	Name       string
	Image      string
	ServerType string
	Location   string
	SSHKeys    []string
	Labels     map[string]string
	UserData   string
	// NetworkID and PrivateIP attach the server with a fixed private
	// address. Both must be set or both left empty.
	NetworkID int64
	PrivateIP string
}

// ServerProvisioner defines the interface for provisioning servers.
type ServerProvisioner interface {
	// CreateServer creates a server and, when a network is given, attaches
	// it with the requested private IP before powering it on.
	CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error)
	DeleteServer(ctx context.Context, name string) error
	// GetServerByName returns the server, or nil if not found.
	GetServerByName(ctx context.Context, name string) (*hcloud.Server, error)
	GetServersByLabel(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error)
	// CheckServerType verifies the server type exists and has at least
	// minDiskGB of local disk.
	CheckServerType(ctx context.Context, name string, minDiskGB int) (*hcloud.ServerType, error)
}

// SSHKeyManager defines the interface for managing SSH keys.
type SSHKeyManager interface {
	GetSSHKey(ctx context.Context, name string) (*hcloud.SSHKey, error)
	CreateSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error)
	DeleteSSHKey(ctx context.Context, name string) error
}

// NetworkManager defines the interface for managing networks.
type NetworkManager interface {
	EnsureNetwork(ctx context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error)
	EnsureSubnet(ctx context.Context, network *hcloud.Network, ipRange, networkZone string) error
	DeleteNetwork(ctx context.Context, name string) error
	GetNetwork(ctx context.Context, name string) (*hcloud.Network, error)
}

// FirewallManager defines the interface for managing firewalls.
type FirewallManager interface {
	EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string, applyToLabelSelector string) (*hcloud.Firewall, error)
	DeleteFirewall(ctx context.Context, name string) error
	GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error)
}

// LoadBalancerManager defines the interface for managing load balancers.
type LoadBalancerManager interface {
	EnsureLoadBalancer(ctx context.Context, name, location, lbType string, algorithm hcloud.LoadBalancerAlgorithmType, labels map[string]string) (*hcloud.LoadBalancer, error)
	ConfigureService(ctx context.Context, lb *hcloud.LoadBalancer, service hcloud.LoadBalancerAddServiceOpts) error
	AttachToNetwork(ctx context.Context, lb *hcloud.LoadBalancer, network *hcloud.Network, ip net.IP) error
	DeleteLoadBalancer(ctx context.Context, name string) error
	GetLoadBalancer(ctx context.Context, name string) (*hcloud.LoadBalancer, error)
	TargetManager
}

// TargetManager manages the server targets of a load balancer by name.
type TargetManager interface {
	ListServerTargets(ctx context.Context, lbName string) ([]int64, error)
	AddServerTarget(ctx context.Context, lbName string, serverID int64) error
	RemoveServerTarget(ctx context.Context, lbName string, serverID int64) error
}

// RDNSManager defines the interface for managing reverse DNS.
type RDNSManager interface {
	SetLoadBalancerRDNS(ctx context.Context, lbID int64, ipAddress, dnsPtr string) error
}

// InfrastructureManager combines all infrastructure interfaces.
type InfrastructureManager interface {
	ServerProvisioner
	SSHKeyManager
	NetworkManager
	FirewallManager
	LoadBalancerManager
	RDNSManager

	// CleanupByLabel deletes every resource carrying all of the labels.
	CleanupByLabel(ctx context.Context, labels map[string]string) error
	// GetPublicIP returns the public IPv4 address of this machine.
	GetPublicIP(ctx context.Context) (string, error)
}
