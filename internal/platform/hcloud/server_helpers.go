package hcloud

import (
	"context"
	"fmt"
	"net"

	"github.com/imamik/kubestrap/internal/util/retry"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// resolveImage finds the named image built for the server type's
// architecture.
func (c *RealClient) resolveImage(ctx context.Context, name string, serverType *hcloud.ServerType) (*hcloud.Image, error) {
	image, _, err := c.client.Image.GetForArchitecture(ctx, name, serverType.Architecture)
	if err != nil {
		return nil, fmt.Errorf("failed to get image %s: %w", name, err)
	}
	if image == nil {
		return nil, fmt.Errorf("image not found: %s (%s)", name, serverType.Architecture)
	}
	return image, nil
}

// resolveSSHKeys resolves SSH key names/IDs to SSH key objects.
func (c *RealClient) resolveSSHKeys(ctx context.Context, sshKeys []string) ([]*hcloud.SSHKey, error) {
	var sshKeyObjs []*hcloud.SSHKey
	for _, key := range sshKeys {
		keyObj, _, err := c.client.SSHKey.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to get ssh key %s: %w", key, err)
		}
		if keyObj == nil {
			return nil, fmt.Errorf("ssh key not found: %s", key)
		}
		sshKeyObjs = append(sshKeyObjs, keyObj)
	}
	return sshKeyObjs, nil
}

// resolveLocation resolves a location name to a location object.
func (c *RealClient) resolveLocation(ctx context.Context, location string) (*hcloud.Location, error) {
	if location == "" {
		return nil, nil
	}
	locObj, _, err := c.client.Location.Get(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to get location %s: %w", location, err)
	}
	if locObj == nil {
		return nil, fmt.Errorf("location not found: %s", location)
	}
	return locObj, nil
}

// attachServerToNetwork attaches a server to a network with the specified
// private IP and powers it on.
func (c *RealClient) attachServerToNetwork(ctx context.Context, server *hcloud.Server, networkID int64, privateIP string) error {
	ip := net.ParseIP(privateIP)
	if ip == nil {
		return fmt.Errorf("invalid private ip: %s", privateIP)
	}
	attachOpts := hcloud.ServerAttachToNetworkOpts{
		Network: &hcloud.Network{ID: networkID},
		IP:      ip,
	}

	// The subnet may still be settling right after creation.
	err := retry.WithExponentialBackoff(ctx, func() error {
		action, _, err := c.client.Server.AttachToNetwork(ctx, server, attachOpts)
		if err != nil {
			if isInvalidParameter(err) {
				return retry.Fatal(err)
			}
			return err
		}
		return waitForActions(ctx, c.client, action)
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return fmt.Errorf("failed to attach server %s to network: %w", server.Name, err)
	}

	action, _, err := c.client.Server.Poweron(ctx, server)
	if err != nil {
		return fmt.Errorf("failed to power on server %s: %w", server.Name, err)
	}
	if err := waitForActions(ctx, c.client, action); err != nil {
		return fmt.Errorf("failed to wait for server power on: %w", err)
	}
	return nil
}

// ServerIPv4 extracts the public IPv4 address from a server, or empty string if not set.
func ServerIPv4(s *hcloud.Server) string {
	if s != nil && s.PublicNet.IPv4.IP != nil && !s.PublicNet.IPv4.IP.IsUnspecified() {
		return s.PublicNet.IPv4.IP.String()
	}
	return ""
}

// ServerPrivateIP returns the server's address in the given network, or
// in its first network when networkID is zero.
func ServerPrivateIP(s *hcloud.Server, networkID int64) string {
	if s == nil {
		return ""
	}
	for _, pn := range s.PrivateNet {
		if pn.IP == nil {
			continue
		}
		if networkID == 0 || (pn.Network != nil && pn.Network.ID == networkID) {
			return pn.IP.String()
		}
	}
	return ""
}

// LoadBalancerIPv4 extracts the public IPv4 address from a load balancer, or empty string if not set.
func LoadBalancerIPv4(lb *hcloud.LoadBalancer) string {
	if lb != nil && lb.PublicNet.IPv4.IP != nil && !lb.PublicNet.IPv4.IP.IsUnspecified() {
		return lb.PublicNet.IPv4.IP.String()
	}
	return ""
}

// LoadBalancerDNSName returns the reverse DNS name of the load balancer's
// public IPv4, or empty string if none is set.
func LoadBalancerDNSName(lb *hcloud.LoadBalancer) string {
	if lb == nil {
		return ""
	}
	return lb.PublicNet.IPv4.DNSPtr
}

// LoadBalancerPrivateIP extracts the private IP address from a load balancer's first private network.
func LoadBalancerPrivateIP(lb *hcloud.LoadBalancer) string {
	if lb != nil && len(lb.PrivateNet) > 0 && lb.PrivateNet[0].IP != nil {
		return lb.PrivateNet[0].IP.String()
	}
	return ""
}
