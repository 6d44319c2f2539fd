package hcloud

import (
	"context"
	"fmt"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// EnsureNetwork ensures that a network exists with the given IP range.
func (c *RealClient) EnsureNetwork(ctx context.Context, name, ipRange string, labels map[string]string) (*hcloud.Network, error) {
	_, ipNet, err := net.ParseCIDR(ipRange)
	if err != nil {
		return nil, fmt.Errorf("invalid network ip range: %w", err)
	}
	return ensureNamed(ctx, c, "network", name, c.client.Network.Get,
		func(ctx context.Context) (*hcloud.Network, []*hcloud.Action, error) {
			network, _, err := c.client.Network.Create(ctx, hcloud.NetworkCreateOpts{
				Name:    name,
				IPRange: ipNet,
				Labels:  labels,
			})
			return network, nil, err
		},
		func(_ context.Context, network *hcloud.Network) ([]*hcloud.Action, error) {
			if network.IPRange.String() != ipNet.String() {
				return nil, fmt.Errorf("network %s exists but with different IP range %s (expected %s)",
					name, network.IPRange.String(), ipNet.String())
			}
			return nil, nil
		})
}

// EnsureSubnet ensures that a cloud subnet exists in the given network.
func (c *RealClient) EnsureSubnet(ctx context.Context, network *hcloud.Network, ipRange, networkZone string) error {
	_, ipNet, err := net.ParseCIDR(ipRange)
	if err != nil {
		return fmt.Errorf("invalid subnet ip range: %w", err)
	}
	for _, subnet := range network.Subnets {
		if subnet.IPRange != nil && subnet.IPRange.String() == ipNet.String() {
			return nil
		}
	}

	opts := hcloud.NetworkAddSubnetOpts{
		Subnet: hcloud.NetworkSubnet{
			Type:        hcloud.NetworkSubnetTypeCloud,
			IPRange:     ipNet,
			NetworkZone: hcloud.NetworkZone(networkZone),
		},
	}
	action, _, err := c.client.Network.AddSubnet(ctx, network, opts)
	if err != nil {
		return fmt.Errorf("failed to add subnet %s: %w", ipRange, err)
	}
	if err := waitForActions(ctx, c.client, action); err != nil {
		return fmt.Errorf("failed to wait for subnet creation: %w", err)
	}
	return nil
}

// DeleteNetwork deletes the network with the given name.
func (c *RealClient) DeleteNetwork(ctx context.Context, name string) error {
	return deleteNamed(ctx, c, "network", name, c.client.Network.Get, responseOnly(c.client.Network.Delete))
}

// GetNetwork returns the network with the given name.
func (c *RealClient) GetNetwork(ctx context.Context, name string) (*hcloud.Network, error) {
	network, _, err := c.client.Network.Get(ctx, name)
	return network, err
}
