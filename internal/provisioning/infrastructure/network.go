package infrastructure

import (
	"fmt"

	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/util/labels"
	"github.com/imamik/kubestrap/internal/util/naming"
)

// ProvisionNetwork provisions the private network and its subnets. The
// parent range itself is never a subnet; only the leaf subnets are, since
// Hetzner rejects overlapping subnets.
func (p *Provisioner) ProvisionNetwork(ctx *provisioning.Context) error {
	cfg := ctx.Config
	name := naming.Network(cfg.ClusterName)
	ctx.Observer.Printf("[%s] Reconciling network %s...", phase, name)

	network, err := ctx.Infra.EnsureNetwork(ctx, name, cfg.Network.IPv4CIDR, labels.NewLabelBuilder(cfg.ClusterName).Build())
	if err != nil {
		return fmt.Errorf("failed to ensure network: %w", err)
	}
	ctx.State.Network = network

	subnets := []struct {
		role string
		get  func() (string, error)
	}{
		{"control-plane", cfg.ControlPlaneSubnet},
		{"worker", cfg.WorkerSubnet},
		{"load-balancer", cfg.LoadBalancerSubnet},
	}
	for _, s := range subnets {
		cidr, err := s.get()
		if err != nil {
			return fmt.Errorf("failed to calculate %s subnet: %w", s.role, err)
		}
		if err := ctx.Infra.EnsureSubnet(ctx, network, cidr, cfg.Network.Zone); err != nil {
			return fmt.Errorf("failed to ensure %s subnet %s: %w", s.role, cidr, err)
		}
	}
	return nil
}
