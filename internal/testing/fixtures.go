package testing

import (
	"context"
	"fmt"
	"maps"
	"net"
	"slices"
	"sort"
	"sync"

	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// FakeCloud is an in-memory Hetzner project. Its Client is a MockClient
// whose functions read and write the fake's resources, so provisioning
// runs end to end and converges on repeated runs.
type FakeCloud struct {
	mu sync.Mutex

	nextID        int64
	publicIP      string
	networks      map[string]*hcloud.Network
	subnets       map[string]bool
	firewalls     map[string]*hcloud.Firewall
	loadBalancers map[string]*hcloud.LoadBalancer
	targets       map[string]map[int64]bool
	servers       map[string]*hcloud.Server
	rdns          map[string]string
	creates       []string
	loopback      bool

	client *hcloud_internal.MockClient
}

// NewFakeCloud returns an empty project.
func NewFakeCloud() *FakeCloud {
	f := &FakeCloud{
		nextID:        100,
		publicIP:      "198.51.100.7",
		networks:      make(map[string]*hcloud.Network),
		subnets:       make(map[string]bool),
		firewalls:     make(map[string]*hcloud.Firewall),
		loadBalancers: make(map[string]*hcloud.LoadBalancer),
		targets:       make(map[string]map[int64]bool),
		servers:       make(map[string]*hcloud.Server),
		rdns:          make(map[string]string),
	}
	f.client = f.wire()
	return f
}

// Client returns the mock backed by this project. Tests may override
// individual functions to inject failures.
func (f *FakeCloud) Client() *hcloud_internal.MockClient {
	return f.client
}

// SetPublicIP sets what GetPublicIP reports.
func (f *FakeCloud) SetPublicIP(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publicIP = ip
}

// UseLoopback gives servers and load balancers created from now on the
// public address 127.0.0.1 and no reverse DNS name, so that in-process
// stand-ins for SSH and the API server are reachable at their public
// addresses.
func (f *FakeCloud) UseLoopback() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loopback = true
}

// AddServer places an existing server in the project, attached to the
// named network when it exists.
func (f *FakeCloud) AddServer(name, privateIP string, labels map[string]string) *hcloud.Server {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.newServer(name, labels)
	if privateIP != "" {
		for _, n := range f.networks {
			s.PrivateNet = []hcloud.ServerPrivateNet{{Network: n, IP: net.ParseIP(privateIP)}}
			break
		}
	}
	return s
}

// Server returns the named server, or nil.
func (f *FakeCloud) Server(name string) *hcloud.Server {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.servers[name]
}

// ServerNames returns the names of all servers, sorted.
func (f *FakeCloud) ServerNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Sorted(maps.Keys(f.servers))
}

// Created returns the names of servers created through the client, in
// creation order.
func (f *FakeCloud) Created() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.creates)
}

// LoadBalancer returns the named load balancer, or nil.
func (f *FakeCloud) LoadBalancer(name string) *hcloud.LoadBalancer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadBalancers[name]
}

// Targets returns the server IDs targeted by the named load balancer.
func (f *FakeCloud) Targets(lbName string) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sortedIDs(f.targets[lbName])
}

// SetTargets replaces the targets of the named load balancer.
func (f *FakeCloud) SetTargets(lbName string, ids ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	f.targets[lbName] = set
}

// Firewall returns the named firewall, or nil.
func (f *FakeCloud) Firewall(name string) *hcloud.Firewall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.firewalls[name]
}

// Subnets returns the subnet ranges created in any network, sorted.
func (f *FakeCloud) Subnets() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Sorted(maps.Keys(f.subnets))
}

// ReverseDNS returns the PTR record set for ip.
func (f *FakeCloud) ReverseDNS(ip string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rdns[ip]
}

// Empty reports whether the project holds no resources.
func (f *FakeCloud) Empty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.servers) == 0 && len(f.loadBalancers) == 0 &&
		len(f.firewalls) == 0 && len(f.networks) == 0
}

func (f *FakeCloud) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *FakeCloud) newServer(name string, labels map[string]string) *hcloud.Server {
	id := f.id()
	ip := net.IPv4(203, 0, 113, byte(id%250))
	if f.loopback {
		ip = net.IPv4(127, 0, 0, 1)
	}
	s := &hcloud.Server{
		ID:     id,
		Name:   name,
		Labels: maps.Clone(labels),
		Status: hcloud.ServerStatusRunning,
		PublicNet: hcloud.ServerPublicNet{
			IPv4: hcloud.ServerPublicNetIPv4{IP: ip},
		},
	}
	f.servers[name] = s
	return s
}

func matches(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

func sortedIDs(set map[int64]bool) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (f *FakeCloud) wire() *hcloud_internal.MockClient {
	return &hcloud_internal.MockClient{
		CreateServerFunc: func(_ context.Context, opts hcloud_internal.ServerCreateOpts) (*hcloud.Server, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if _, ok := f.servers[opts.Name]; ok {
				return nil, fmt.Errorf("server %s already exists", opts.Name)
			}
			s := f.newServer(opts.Name, opts.Labels)
			if opts.NetworkID != 0 {
				for _, n := range f.networks {
					if n.ID == opts.NetworkID {
						s.PrivateNet = []hcloud.ServerPrivateNet{{Network: n, IP: net.ParseIP(opts.PrivateIP)}}
					}
				}
			}
			f.creates = append(f.creates, opts.Name)
			return s, nil
		},
		DeleteServerFunc: func(_ context.Context, name string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.servers, name)
			return nil
		},
		GetServerByNameFunc: func(_ context.Context, name string) (*hcloud.Server, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.servers[name], nil
		},
		GetServersByLabelFunc: func(_ context.Context, labels map[string]string) ([]*hcloud.Server, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			var out []*hcloud.Server
			for _, name := range slices.Sorted(maps.Keys(f.servers)) {
				if s := f.servers[name]; matches(s.Labels, labels) {
					out = append(out, s)
				}
			}
			return out, nil
		},
		EnsureNetworkFunc: func(_ context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if n, ok := f.networks[name]; ok {
				return n, nil
			}
			_, ipNet, err := net.ParseCIDR(ipRange)
			if err != nil {
				return nil, err
			}
			n := &hcloud.Network{ID: f.id(), Name: name, IPRange: ipNet, Labels: maps.Clone(labels)}
			f.networks[name] = n
			return n, nil
		},
		EnsureSubnetFunc: func(_ context.Context, _ *hcloud.Network, ipRange, _ string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.subnets[ipRange] = true
			return nil
		},
		DeleteNetworkFunc: func(_ context.Context, name string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.networks, name)
			return nil
		},
		GetNetworkFunc: func(_ context.Context, name string) (*hcloud.Network, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.networks[name], nil
		},
		EnsureFirewallFunc: func(_ context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string, _ string) (*hcloud.Firewall, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			fw, ok := f.firewalls[name]
			if !ok {
				fw = &hcloud.Firewall{ID: f.id(), Name: name}
				f.firewalls[name] = fw
			}
			fw.Rules = rules
			fw.Labels = maps.Clone(labels)
			return fw, nil
		},
		DeleteFirewallFunc: func(_ context.Context, name string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.firewalls, name)
			return nil
		},
		GetFirewallFunc: func(_ context.Context, name string) (*hcloud.Firewall, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.firewalls[name], nil
		},
		EnsureLoadBalancerFunc: func(_ context.Context, name, _, lbType string, algorithm hcloud.LoadBalancerAlgorithmType, labels map[string]string) (*hcloud.LoadBalancer, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if lb, ok := f.loadBalancers[name]; ok {
				return lb, nil
			}
			id := f.id()
			lb := &hcloud.LoadBalancer{
				ID:               id,
				Name:             name,
				Labels:           maps.Clone(labels),
				LoadBalancerType: &hcloud.LoadBalancerType{Name: lbType},
				Algorithm:        hcloud.LoadBalancerAlgorithm{Type: algorithm},
				PublicNet: hcloud.LoadBalancerPublicNet{
					Enabled: true,
					IPv4: hcloud.LoadBalancerPublicNetIPv4{
						IP:     net.IPv4(192, 0, 2, byte(id%250)),
						DNSPtr: fmt.Sprintf("static.%d.2.0.192.clients.your-server.de", id%250),
					},
				},
			}
			if f.loopback {
				lb.PublicNet.IPv4 = hcloud.LoadBalancerPublicNetIPv4{IP: net.IPv4(127, 0, 0, 1)}
			}
			f.loadBalancers[name] = lb
			f.targets[name] = make(map[int64]bool)
			return lb, nil
		},
		ConfigureServiceFunc: func(_ context.Context, lb *hcloud.LoadBalancer, service hcloud.LoadBalancerAddServiceOpts) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			stored, ok := f.loadBalancers[lb.Name]
			if !ok {
				return fmt.Errorf("load balancer %s not found", lb.Name)
			}
			if service.ListenPort == nil {
				return fmt.Errorf("listen port is nil")
			}
			svc := hcloud.LoadBalancerService{Protocol: service.Protocol, ListenPort: *service.ListenPort}
			if service.DestinationPort != nil {
				svc.DestinationPort = *service.DestinationPort
			}
			if hc := service.HealthCheck; hc != nil && hc.Port != nil {
				svc.HealthCheck = hcloud.LoadBalancerServiceHealthCheck{Protocol: hc.Protocol, Port: *hc.Port}
			}
			// Each load balancer carries exactly one service.
			stored.Services = []hcloud.LoadBalancerService{svc}
			return nil
		},
		AttachToNetworkFunc: func(_ context.Context, lb *hcloud.LoadBalancer, network *hcloud.Network, ip net.IP) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			stored, ok := f.loadBalancers[lb.Name]
			if !ok {
				return fmt.Errorf("load balancer %s not found", lb.Name)
			}
			if len(stored.PrivateNet) == 0 {
				stored.PrivateNet = []hcloud.LoadBalancerPrivateNet{{Network: network, IP: ip}}
			}
			return nil
		},
		DeleteLoadBalancerFunc: func(_ context.Context, name string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.loadBalancers, name)
			delete(f.targets, name)
			return nil
		},
		GetLoadBalancerFunc: func(_ context.Context, name string) (*hcloud.LoadBalancer, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.loadBalancers[name], nil
		},
		ListServerTargetsFunc: func(_ context.Context, lbName string) ([]int64, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			set, ok := f.targets[lbName]
			if !ok {
				return nil, fmt.Errorf("load balancer %s not found", lbName)
			}
			return sortedIDs(set), nil
		},
		AddServerTargetFunc: func(_ context.Context, lbName string, serverID int64) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			set, ok := f.targets[lbName]
			if !ok {
				return fmt.Errorf("load balancer %s not found", lbName)
			}
			set[serverID] = true
			return nil
		},
		RemoveServerTargetFunc: func(_ context.Context, lbName string, serverID int64) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.targets[lbName], serverID)
			return nil
		},
		SetLoadBalancerRDNSFunc: func(_ context.Context, lbID int64, ipAddress, dnsPtr string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.rdns[ipAddress] = dnsPtr
			for _, lb := range f.loadBalancers {
				if lb.ID == lbID && lb.PublicNet.IPv4.IP.String() == ipAddress {
					lb.PublicNet.IPv4.DNSPtr = dnsPtr
				}
			}
			return nil
		},
		CleanupByLabelFunc: func(_ context.Context, labels map[string]string) error {
			if len(labels) == 0 {
				return fmt.Errorf("refusing to clean up with an empty label selector")
			}
			f.mu.Lock()
			defer f.mu.Unlock()
			for name, s := range f.servers {
				if matches(s.Labels, labels) {
					delete(f.servers, name)
				}
			}
			for name, lb := range f.loadBalancers {
				if matches(lb.Labels, labels) {
					delete(f.loadBalancers, name)
					delete(f.targets, name)
				}
			}
			for name, fw := range f.firewalls {
				if matches(fw.Labels, labels) {
					delete(f.firewalls, name)
				}
			}
			for name, n := range f.networks {
				if matches(n.Labels, labels) {
					delete(f.networks, name)
				}
			}
			return nil
		},
		GetPublicIPFunc: func(_ context.Context) (string, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.publicIP, nil
		},
	}
}
