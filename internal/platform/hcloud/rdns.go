package hcloud

import (
	"context"
	"fmt"
	"net"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// SetLoadBalancerRDNS points the PTR record of a load balancer address at
// dnsPtr, so the API host name resolves in both directions.
func (c *RealClient) SetLoadBalancerRDNS(ctx context.Context, lbID int64, ipAddress, dnsPtr string) error {
	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return fmt.Errorf("load balancer %d: %q is not an IP address", lbID, ipAddress)
	}
	action, _, err := c.client.RDNS.ChangeDNSPtr(ctx, &hcloud.LoadBalancer{ID: lbID}, ip, &dnsPtr)
	if err != nil {
		return fmt.Errorf("failed to set PTR %s for %s: %w", dnsPtr, ipAddress, err)
	}
	return waitForActions(ctx, c.client, action)
}
