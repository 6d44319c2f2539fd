package config

import (
	"fmt"
	"net"
)

// Subnet indexes inside the network CIDR, each a /24.
const (
	controlPlaneSubnetIndex = 1
	workerSubnetIndex       = 2
	loadBalancerSubnetIndex = 3

	subnetPrefix = 24

	// firstNodeHost keeps the low addresses of a subnet free for the
	// gateway and manual use.
	firstNodeHost = 10

	// MaxWorkers is the number of worker addresses in the worker subnet.
	MaxWorkers = 240
)

func (c *Config) subnet(index int) (string, error) {
	_, network, err := net.ParseCIDR(c.Network.IPv4CIDR)
	if err != nil {
		return "", fmt.Errorf("invalid network.ipv4_cidr: %w", err)
	}
	ones, _ := network.Mask.Size()
	if ones > subnetPrefix-2 {
		return "", fmt.Errorf("network.ipv4_cidr %s is too small: need at least a /%d", c.Network.IPv4CIDR, subnetPrefix-2)
	}
	return CIDRSubnet(c.Network.IPv4CIDR, subnetPrefix-ones, index)
}

// ControlPlaneSubnet returns the subnet the control-plane server is attached to.
func (c *Config) ControlPlaneSubnet() (string, error) {
	return c.subnet(controlPlaneSubnetIndex)
}

// WorkerSubnet returns the subnet worker servers are attached to.
func (c *Config) WorkerSubnet() (string, error) {
	return c.subnet(workerSubnetIndex)
}

// LoadBalancerSubnet returns the subnet both load balancers are attached to.
func (c *Config) LoadBalancerSubnet() (string, error) {
	return c.subnet(loadBalancerSubnetIndex)
}

// ControlPlaneIP returns the fixed private address of the control plane.
func (c *Config) ControlPlaneIP() (string, error) {
	subnet, err := c.ControlPlaneSubnet()
	if err != nil {
		return "", err
	}
	return CIDRHost(subnet, firstNodeHost)
}

// WorkerIP returns the fixed private address of worker i.
func (c *Config) WorkerIP(i int) (string, error) {
	if i < 0 || i >= MaxWorkers {
		return "", fmt.Errorf("worker index %d out of range [0, %d)", i, MaxWorkers)
	}
	subnet, err := c.WorkerSubnet()
	if err != nil {
		return "", err
	}
	return CIDRHost(subnet, firstNodeHost+i)
}

// APILoadBalancerIP returns the private address of the API load balancer.
func (c *Config) APILoadBalancerIP() (string, error) {
	subnet, err := c.LoadBalancerSubnet()
	if err != nil {
		return "", err
	}
	return CIDRHost(subnet, -2)
}

// IngressLoadBalancerIP returns the private address of the ingress load balancer.
func (c *Config) IngressLoadBalancerIP() (string, error) {
	subnet, err := c.LoadBalancerSubnet()
	if err != nil {
		return "", err
	}
	return CIDRHost(subnet, -3)
}

// Warnings lists overlaps between the node network, the pod CIDR and the
// service CIDR. Overlaps are not rejected; they break routing in ways that
// only show up after bootstrap.
func (c *Config) Warnings() []string {
	named := []struct{ key, cidr string }{
		{"network.ipv4_cidr", c.Network.IPv4CIDR},
		{"network.pod_ipv4_cidr", c.Network.PodIPv4CIDR},
		{"network.service_ipv4_cidr", c.Network.ServiceIPv4CIDR},
	}

	var warnings []string
	for i := 0; i < len(named); i++ {
		for j := i + 1; j < len(named); j++ {
			if cidrsOverlap(named[i].cidr, named[j].cidr) {
				warnings = append(warnings, fmt.Sprintf("%s (%s) overlaps %s (%s)",
					named[i].key, named[i].cidr, named[j].key, named[j].cidr))
			}
		}
	}
	return warnings
}
