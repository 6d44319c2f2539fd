package hcloud

import (
	"context"
	"fmt"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// EnsureLoadBalancer returns the load balancer called name, creating it if needed.
// Creation can take several minutes when the Hetzner backend is busy.
func (c *RealClient) EnsureLoadBalancer(ctx context.Context, name, location, lbType string, algorithm hcloud.LoadBalancerAlgorithmType, labels map[string]string) (*hcloud.LoadBalancer, error) {
	return ensureNamed(ctx, c, "load balancer", name, c.client.LoadBalancer.Get,
		func(ctx context.Context) (*hcloud.LoadBalancer, []*hcloud.Action, error) {
			typ, _, err := c.client.LoadBalancerType.Get(ctx, lbType)
			if err != nil {
				return nil, nil, err
			}
			if typ == nil {
				return nil, nil, fmt.Errorf("load balancer type not found: %s", lbType)
			}
			loc, err := c.resolveLocation(ctx, location)
			if err != nil {
				return nil, nil, err
			}
			res, _, err := c.client.LoadBalancer.Create(ctx, hcloud.LoadBalancerCreateOpts{
				Name:             name,
				LoadBalancerType: typ,
				Location:         loc,
				Algorithm:        &hcloud.LoadBalancerAlgorithm{Type: algorithm},
				Labels:           labels,
			})
			if err != nil {
				return nil, nil, err
			}
			return res.LoadBalancer, []*hcloud.Action{res.Action}, nil
		}, nil)
}

// TCPService describes a plain TCP pass-through service with a TCP health
// check on the destination port.
func TCPService(listenPort, destinationPort int) hcloud.LoadBalancerAddServiceOpts {
	return hcloud.LoadBalancerAddServiceOpts{
		Protocol:        hcloud.LoadBalancerServiceProtocolTCP,
		ListenPort:      hcloud.Ptr(listenPort),
		DestinationPort: hcloud.Ptr(destinationPort),
		HealthCheck: &hcloud.LoadBalancerAddServiceOptsHealthCheck{
			Protocol: hcloud.LoadBalancerServiceProtocolTCP,
			Port:     hcloud.Ptr(destinationPort),
			Interval: hcloud.Ptr(healthCheckInterval),
			Timeout:  hcloud.Ptr(healthCheckTimeout),
			Retries:  hcloud.Ptr(3),
		},
	}
}

// ConfigureService makes service the only service of the load balancer.
// A service on the same listen port is updated when its protocol or ports
// differ. Services on any other listen port are removed, so a changed
// listen port moves the service instead of adding a second one.
func (c *RealClient) ConfigureService(ctx context.Context, lb *hcloud.LoadBalancer, service hcloud.LoadBalancerAddServiceOpts) error {
	if service.ListenPort == nil {
		return fmt.Errorf("listen port is nil")
	}
	listenPort := *service.ListenPort

	var current *hcloud.LoadBalancerService
	var stale []int
	for i := range lb.Services {
		if lb.Services[i].ListenPort == listenPort {
			current = &lb.Services[i]
			continue
		}
		stale = append(stale, lb.Services[i].ListenPort)
	}

	switch {
	case current == nil:
		action, _, err := c.client.LoadBalancer.AddService(ctx, lb, service)
		if err != nil {
			return fmt.Errorf("failed to add service on port %d to %s: %w", listenPort, lb.Name, err)
		}
		if err := waitForActions(ctx, c.client, action); err != nil {
			return err
		}
	case serviceDiffers(*current, service):
		action, _, err := c.client.LoadBalancer.UpdateService(ctx, lb, listenPort, updateServiceOpts(service))
		if err != nil {
			return fmt.Errorf("failed to update service on port %d of %s: %w", listenPort, lb.Name, err)
		}
		if err := waitForActions(ctx, c.client, action); err != nil {
			return err
		}
	}

	for _, port := range stale {
		c.logf("Removing stale service on port %d from %s", port, lb.Name)
		action, _, err := c.client.LoadBalancer.DeleteService(ctx, lb, port)
		if err != nil {
			return fmt.Errorf("failed to remove service on port %d from %s: %w", port, lb.Name, err)
		}
		if err := waitForActions(ctx, c.client, action); err != nil {
			return err
		}
	}
	return nil
}

func serviceDiffers(current hcloud.LoadBalancerService, want hcloud.LoadBalancerAddServiceOpts) bool {
	if want.Protocol != "" && current.Protocol != want.Protocol {
		return true
	}
	if want.DestinationPort != nil && current.DestinationPort != *want.DestinationPort {
		return true
	}
	if hc := want.HealthCheck; hc != nil {
		if hc.Protocol != "" && current.HealthCheck.Protocol != hc.Protocol {
			return true
		}
		if hc.Port != nil && current.HealthCheck.Port != *hc.Port {
			return true
		}
	}
	return false
}

func updateServiceOpts(service hcloud.LoadBalancerAddServiceOpts) hcloud.LoadBalancerUpdateServiceOpts {
	opts := hcloud.LoadBalancerUpdateServiceOpts{
		Protocol:        service.Protocol,
		DestinationPort: service.DestinationPort,
		Proxyprotocol:   service.Proxyprotocol,
	}
	if hc := service.HealthCheck; hc != nil {
		opts.HealthCheck = &hcloud.LoadBalancerUpdateServiceOptsHealthCheck{
			Protocol: hc.Protocol,
			Port:     hc.Port,
			Interval: hc.Interval,
			Timeout:  hc.Timeout,
			Retries:  hc.Retries,
		}
	}
	return opts
}

// AttachToNetwork attaches the load balancer to a network.
func (c *RealClient) AttachToNetwork(ctx context.Context, lb *hcloud.LoadBalancer, network *hcloud.Network, ip net.IP) error {
	for _, privateNet := range lb.PrivateNet {
		if privateNet.Network != nil && privateNet.Network.ID == network.ID {
			return nil
		}
	}

	opts := hcloud.LoadBalancerAttachToNetworkOpts{
		Network: network,
		IP:      ip,
	}
	action, _, err := c.client.LoadBalancer.AttachToNetwork(ctx, lb, opts)
	if err != nil {
		return fmt.Errorf("failed to attach lb to network: %w", err)
	}
	return waitForActions(ctx, c.client, action)
}

// DeleteLoadBalancer deletes the load balancer with the given name.
func (c *RealClient) DeleteLoadBalancer(ctx context.Context, name string) error {
	return deleteNamed(ctx, c, "load balancer", name, c.client.LoadBalancer.Get, responseOnly(c.client.LoadBalancer.Delete))
}

// GetLoadBalancer returns the load balancer with the given name.
func (c *RealClient) GetLoadBalancer(ctx context.Context, name string) (*hcloud.LoadBalancer, error) {
	lb, _, err := c.client.LoadBalancer.Get(ctx, name)
	return lb, err
}
