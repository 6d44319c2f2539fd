package infrastructure

import (
	"fmt"
	"net"
	"strconv"

	"github.com/imamik/kubestrap/internal/config"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/util/labels"
	"github.com/imamik/kubestrap/internal/util/naming"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ProvisionFirewall provisions the cluster firewall and applies it to every
// server of the cluster.
func (p *Provisioner) ProvisionFirewall(ctx *provisioning.Context) error {
	cfg := ctx.Config
	name := naming.Firewall(cfg.ClusterName)
	ctx.Observer.Printf("[%s] Reconciling firewall %s...", phase, name)

	adminSources := cfg.AdminAllowedCIDRs
	if len(adminSources) == 0 {
		ip, err := ctx.Infra.GetPublicIP(ctx)
		if err != nil {
			return fmt.Errorf("no admin_allowed_cidrs configured and the public IP lookup failed: %w", err)
		}
		ctx.State.PublicIP = ip
		adminSources = []string{ip + "/32"}
	}

	rules, err := FirewallRules(cfg, adminSources)
	if err != nil {
		return err
	}

	selector := labels.SelectorForCluster(cfg.ClusterName)
	fw, err := ctx.Infra.EnsureFirewall(ctx, name, rules, labels.NewLabelBuilder(cfg.ClusterName).Build(), selector)
	if err != nil {
		return fmt.Errorf("failed to ensure firewall: %w", err)
	}
	ctx.State.Firewall = fw
	ctx.Observer.Printf("[%s] Firewall %s applied to servers with label selector: %s", phase, name, selector)
	return nil
}

// FirewallRules builds the inbound rules: SSH and the Kubernetes API from
// the admin sources, the ingress port from anywhere, and all TCP and UDP
// traffic from inside the private network.
func FirewallRules(cfg *config.Config, adminSources []string) ([]hcloud.FirewallRule, error) {
	admin, err := parseCIDRs(adminSources)
	if err != nil {
		return nil, err
	}
	internal, err := parseCIDRs([]string{cfg.Network.IPv4CIDR})
	if err != nil {
		return nil, err
	}
	anywhere, _ := parseCIDRs([]string{"0.0.0.0/0", "::/0"})

	return []hcloud.FirewallRule{
		inbound("Allow SSH from admins", hcloud.FirewallRuleProtocolTCP, "22", admin),
		inbound("Allow Kube API from admins", hcloud.FirewallRuleProtocolTCP, strconv.Itoa(config.KubeAPIPort), admin),
		inbound("Allow ingress traffic", hcloud.FirewallRuleProtocolTCP, strconv.Itoa(cfg.Ingress.Port), anywhere),
		inbound("Allow TCP inside the network", hcloud.FirewallRuleProtocolTCP, "1-65535", internal),
		inbound("Allow UDP inside the network", hcloud.FirewallRuleProtocolUDP, "1-65535", internal),
		inbound("Allow ICMP", hcloud.FirewallRuleProtocolICMP, "", anywhere),
	}, nil
}

func inbound(description string, protocol hcloud.FirewallRuleProtocol, port string, sources []net.IPNet) hcloud.FirewallRule {
	r := hcloud.FirewallRule{
		Description: hcloud.Ptr(description),
		Direction:   hcloud.FirewallRuleDirectionIn,
		Protocol:    protocol,
		SourceIPs:   sources,
	}
	if port != "" {
		r.Port = hcloud.Ptr(port)
	}
	return r
}

// parseCIDRs parses a slice of CIDR strings into net.IPNet.
func parseCIDRs(cidrs []string) ([]net.IPNet, error) {
	nets := make([]net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid firewall source %q: %w", cidr, err)
		}
		nets = append(nets, *n)
	}
	return nets, nil
}
