package infrastructure

import (
	"fmt"

	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/provisioning"
)

// APIHost picks the name clients use for the Kubernetes API: the
// configured DNS name, else the reverse DNS name Hetzner assigned to the
// API load balancer, else its IPv4 address.
func APIHost(configured string, lbDNSName, lbIPv4 string) string {
	switch {
	case configured != "":
		return configured
	case lbDNSName != "":
		return lbDNSName
	default:
		return lbIPv4
	}
}

// ProvisionAPIName settles State.APIHost and publishes a configured name
// as a Cloudflare A record and as the load balancer's reverse DNS.
func (p *Provisioner) ProvisionAPIName(ctx *provisioning.Context) error {
	cfg := ctx.Config
	lb := ctx.State.APILoadBalancer
	if lb == nil {
		return fmt.Errorf("API load balancer must be provisioned before the API name")
	}

	ipv4 := hcloud_internal.LoadBalancerIPv4(lb)
	if ipv4 == "" {
		return fmt.Errorf("API load balancer %s has no public IPv4 address", lb.Name)
	}

	ctx.State.APIHost = APIHost(cfg.API.DNSName, hcloud_internal.LoadBalancerDNSName(lb), ipv4)
	ctx.Observer.Printf("[%s] Kubernetes API reachable at %s (load balancer %s)", phase, ctx.State.APIHost, ipv4)

	if cfg.API.DNSName == "" {
		return nil
	}

	if cfg.DNS.ReverseDNS && hcloud_internal.LoadBalancerDNSName(lb) != cfg.API.DNSName {
		if err := ctx.Infra.SetLoadBalancerRDNS(ctx, lb.ID, ipv4, cfg.API.DNSName); err != nil {
			return fmt.Errorf("failed to set reverse DNS of %s: %w", lb.Name, err)
		}
		ctx.Logger.Printf("[%s] Set IPv4 RDNS: %s → %s", phase, ipv4, cfg.API.DNSName)
	}

	if cfg.DNS.CloudflareZone != "" {
		if ctx.DNS == nil {
			return fmt.Errorf("dns.cloudflare_zone is set but no DNS publisher is configured")
		}
		zoneID, err := ctx.DNS.GetZoneID(ctx, cfg.DNS.CloudflareZone)
		if err != nil {
			return fmt.Errorf("failed to look up zone %s: %w", cfg.DNS.CloudflareZone, err)
		}
		if _, err := ctx.DNS.UpsertARecord(ctx, zoneID, cfg.API.DNSName, ipv4, cfg.ClusterName); err != nil {
			return fmt.Errorf("failed to publish %s: %w", cfg.API.DNSName, err)
		}
		ctx.Observer.Printf("[%s] Published A record %s → %s", phase, cfg.API.DNSName, ipv4)
	}
	return nil
}
