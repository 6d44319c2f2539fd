package hcloud

import (
	"context"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// MockClient is a mock implementation of InfrastructureManager. Every
// method calls its Func field when set and returns a harmless default
// otherwise.
type MockClient struct {
	// Server
	CreateServerFunc      func(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error)
	DeleteServerFunc      func(ctx context.Context, name string) error
	GetServerByNameFunc   func(ctx context.Context, name string) (*hcloud.Server, error)
	GetServersByLabelFunc func(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error)
	CheckServerTypeFunc   func(ctx context.Context, name string, minDiskGB int) (*hcloud.ServerType, error)

	// SSH key
	GetSSHKeyFunc    func(ctx context.Context, name string) (*hcloud.SSHKey, error)
	CreateSSHKeyFunc func(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error)
	DeleteSSHKeyFunc func(ctx context.Context, name string) error

	// Network
	EnsureNetworkFunc func(ctx context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error)
	EnsureSubnetFunc  func(ctx context.Context, network *hcloud.Network, ipRange, networkZone string) error
	DeleteNetworkFunc func(ctx context.Context, name string) error
	GetNetworkFunc    func(ctx context.Context, name string) (*hcloud.Network, error)

	// Firewall
	EnsureFirewallFunc func(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string, applyToLabelSelector string) (*hcloud.Firewall, error)
	DeleteFirewallFunc func(ctx context.Context, name string) error
	GetFirewallFunc    func(ctx context.Context, name string) (*hcloud.Firewall, error)

	// LoadBalancer
	EnsureLoadBalancerFunc func(ctx context.Context, name, location, lbType string, algorithm hcloud.LoadBalancerAlgorithmType, labels map[string]string) (*hcloud.LoadBalancer, error)
	ConfigureServiceFunc   func(ctx context.Context, lb *hcloud.LoadBalancer, service hcloud.LoadBalancerAddServiceOpts) error
	AttachToNetworkFunc    func(ctx context.Context, lb *hcloud.LoadBalancer, network *hcloud.Network, ip net.IP) error
	DeleteLoadBalancerFunc func(ctx context.Context, name string) error
	GetLoadBalancerFunc    func(ctx context.Context, name string) (*hcloud.LoadBalancer, error)
	ListServerTargetsFunc  func(ctx context.Context, lbName string) ([]int64, error)
	AddServerTargetFunc    func(ctx context.Context, lbName string, serverID int64) error
	RemoveServerTargetFunc func(ctx context.Context, lbName string, serverID int64) error

	// RDNS
	SetLoadBalancerRDNSFunc func(ctx context.Context, lbID int64, ipAddress, dnsPtr string) error

	CleanupByLabelFunc func(ctx context.Context, labels map[string]string) error
	GetPublicIPFunc    func(ctx context.Context) (string, error)
}

// Ensure interface compliance
var _ InfrastructureManager = (*MockClient)(nil)

// CreateServer mocks server creation.
func (m *MockClient) CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error) {
	if m.CreateServerFunc != nil {
		return m.CreateServerFunc(ctx, opts)
	}
	return &hcloud.Server{ID: 1, Name: opts.Name, Labels: opts.Labels}, nil
}

// DeleteServer mocks server deletion.
func (m *MockClient) DeleteServer(ctx context.Context, name string) error {
	if m.DeleteServerFunc != nil {
		return m.DeleteServerFunc(ctx, name)
	}
	return nil
}

// GetServerByName mocks server lookup.
func (m *MockClient) GetServerByName(ctx context.Context, name string) (*hcloud.Server, error) {
	if m.GetServerByNameFunc != nil {
		return m.GetServerByNameFunc(ctx, name)
	}
	return nil, nil
}

// GetServersByLabel mocks server listing.
func (m *MockClient) GetServersByLabel(ctx context.Context, labels map[string]string) ([]*hcloud.Server, error) {
	if m.GetServersByLabelFunc != nil {
		return m.GetServersByLabelFunc(ctx, labels)
	}
	return nil, nil
}

// CheckServerType mocks server type validation.
func (m *MockClient) CheckServerType(ctx context.Context, name string, minDiskGB int) (*hcloud.ServerType, error) {
	if m.CheckServerTypeFunc != nil {
		return m.CheckServerTypeFunc(ctx, name, minDiskGB)
	}
	return &hcloud.ServerType{Name: name, Disk: 80, Architecture: hcloud.ArchitectureX86}, nil
}

// GetSSHKey mocks SSH key lookup.
func (m *MockClient) GetSSHKey(ctx context.Context, name string) (*hcloud.SSHKey, error) {
	if m.GetSSHKeyFunc != nil {
		return m.GetSSHKeyFunc(ctx, name)
	}
	return &hcloud.SSHKey{ID: 1, Name: name}, nil
}

// CreateSSHKey mocks SSH key creation.
func (m *MockClient) CreateSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error) {
	if m.CreateSSHKeyFunc != nil {
		return m.CreateSSHKeyFunc(ctx, name, publicKey, labels)
	}
	return &hcloud.SSHKey{ID: 1, Name: name, PublicKey: publicKey, Labels: labels}, nil
}

// DeleteSSHKey mocks SSH key deletion.
func (m *MockClient) DeleteSSHKey(ctx context.Context, name string) error {
	if m.DeleteSSHKeyFunc != nil {
		return m.DeleteSSHKeyFunc(ctx, name)
	}
	return nil
}

// EnsureNetwork mocks network creation.
func (m *MockClient) EnsureNetwork(ctx context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error) {
	if m.EnsureNetworkFunc != nil {
		return m.EnsureNetworkFunc(ctx, name, ipRange, labels)
	}
	_, ipNet, _ := net.ParseCIDR(ipRange)
	return &hcloud.Network{ID: 1, Name: name, IPRange: ipNet, Labels: labels}, nil
}

// EnsureSubnet mocks subnet creation.
func (m *MockClient) EnsureSubnet(ctx context.Context, network *hcloud.Network, ipRange, networkZone string) error {
	if m.EnsureSubnetFunc != nil {
		return m.EnsureSubnetFunc(ctx, network, ipRange, networkZone)
	}
	return nil
}

// DeleteNetwork mocks network deletion.
func (m *MockClient) DeleteNetwork(ctx context.Context, name string) error {
	if m.DeleteNetworkFunc != nil {
		return m.DeleteNetworkFunc(ctx, name)
	}
	return nil
}

// GetNetwork mocks network lookup.
func (m *MockClient) GetNetwork(ctx context.Context, name string) (*hcloud.Network, error) {
	if m.GetNetworkFunc != nil {
		return m.GetNetworkFunc(ctx, name)
	}
	return nil, nil
}

// EnsureFirewall mocks firewall creation.
func (m *MockClient) EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string, applyToLabelSelector string) (*hcloud.Firewall, error) {
	if m.EnsureFirewallFunc != nil {
		return m.EnsureFirewallFunc(ctx, name, rules, labels, applyToLabelSelector)
	}
	return &hcloud.Firewall{ID: 1, Name: name, Rules: rules, Labels: labels}, nil
}

// DeleteFirewall mocks firewall deletion.
func (m *MockClient) DeleteFirewall(ctx context.Context, name string) error {
	if m.DeleteFirewallFunc != nil {
		return m.DeleteFirewallFunc(ctx, name)
	}
	return nil
}

// GetFirewall mocks firewall lookup.
func (m *MockClient) GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error) {
	if m.GetFirewallFunc != nil {
		return m.GetFirewallFunc(ctx, name)
	}
	return nil, nil
}

// EnsureLoadBalancer mocks load balancer creation.
func (m *MockClient) EnsureLoadBalancer(ctx context.Context, name, location, lbType string, algorithm hcloud.LoadBalancerAlgorithmType, labels map[string]string) (*hcloud.LoadBalancer, error) {
	if m.EnsureLoadBalancerFunc != nil {
		return m.EnsureLoadBalancerFunc(ctx, name, location, lbType, algorithm, labels)
	}
	return &hcloud.LoadBalancer{ID: 1, Name: name, Labels: labels}, nil
}

// ConfigureService mocks service configuration.
func (m *MockClient) ConfigureService(ctx context.Context, lb *hcloud.LoadBalancer, service hcloud.LoadBalancerAddServiceOpts) error {
	if m.ConfigureServiceFunc != nil {
		return m.ConfigureServiceFunc(ctx, lb, service)
	}
	return nil
}

// AttachToNetwork mocks attaching a load balancer to a network.
func (m *MockClient) AttachToNetwork(ctx context.Context, lb *hcloud.LoadBalancer, network *hcloud.Network, ip net.IP) error {
	if m.AttachToNetworkFunc != nil {
		return m.AttachToNetworkFunc(ctx, lb, network, ip)
	}
	return nil
}

// DeleteLoadBalancer mocks load balancer deletion.
func (m *MockClient) DeleteLoadBalancer(ctx context.Context, name string) error {
	if m.DeleteLoadBalancerFunc != nil {
		return m.DeleteLoadBalancerFunc(ctx, name)
	}
	return nil
}

// GetLoadBalancer mocks load balancer lookup.
func (m *MockClient) GetLoadBalancer(ctx context.Context, name string) (*hcloud.LoadBalancer, error) {
	if m.GetLoadBalancerFunc != nil {
		return m.GetLoadBalancerFunc(ctx, name)
	}
	return nil, nil
}

// ListServerTargets mocks target listing.
func (m *MockClient) ListServerTargets(ctx context.Context, lbName string) ([]int64, error) {
	if m.ListServerTargetsFunc != nil {
		return m.ListServerTargetsFunc(ctx, lbName)
	}
	return nil, nil
}

// AddServerTarget mocks target registration.
func (m *MockClient) AddServerTarget(ctx context.Context, lbName string, serverID int64) error {
	if m.AddServerTargetFunc != nil {
		return m.AddServerTargetFunc(ctx, lbName, serverID)
	}
	return nil
}

// RemoveServerTarget mocks target removal.
func (m *MockClient) RemoveServerTarget(ctx context.Context, lbName string, serverID int64) error {
	if m.RemoveServerTargetFunc != nil {
		return m.RemoveServerTargetFunc(ctx, lbName, serverID)
	}
	return nil
}

// SetLoadBalancerRDNS mocks reverse DNS updates.
func (m *MockClient) SetLoadBalancerRDNS(ctx context.Context, lbID int64, ipAddress, dnsPtr string) error {
	if m.SetLoadBalancerRDNSFunc != nil {
		return m.SetLoadBalancerRDNSFunc(ctx, lbID, ipAddress, dnsPtr)
	}
	return nil
}

// CleanupByLabel mocks label based cleanup.
func (m *MockClient) CleanupByLabel(ctx context.Context, labels map[string]string) error {
	if m.CleanupByLabelFunc != nil {
		return m.CleanupByLabelFunc(ctx, labels)
	}
	return nil
}

// GetPublicIP mocks the public IP lookup.
func (m *MockClient) GetPublicIP(ctx context.Context) (string, error) {
	if m.GetPublicIPFunc != nil {
		return m.GetPublicIPFunc(ctx)
	}
	return "127.0.0.1", nil
}
