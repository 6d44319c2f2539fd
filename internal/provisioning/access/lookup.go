package access

import (
	"fmt"

	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/provisioning/compute"
	"github.com/imamik/kubestrap/internal/provisioning/infrastructure"
	"github.com/imamik/kubestrap/internal/util/naming"
)

// LookupPhase fills the state from resources that already exist. It
// creates and changes nothing.
type LookupPhase struct{}

// NewLookupPhase creates the lookup phase.
func NewLookupPhase() *LookupPhase {
	return &LookupPhase{}
}

// Name implements the provisioning.Phase interface.
func (l *LookupPhase) Name() string {
	return "lookup"
}

// Provision implements the provisioning.Phase interface.
func (l *LookupPhase) Provision(ctx *provisioning.Context) error {
	cfg := ctx.Config

	network, err := ctx.Infra.GetNetwork(ctx, naming.Network(cfg.ClusterName))
	if err != nil {
		return fmt.Errorf("failed to look up network: %w", err)
	}
	if network == nil {
		return fmt.Errorf("cluster %s not found: network %s does not exist", cfg.ClusterName, naming.Network(cfg.ClusterName))
	}
	ctx.State.Network = network

	lbName := naming.KubeAPILoadBalancer(cfg.ClusterName)
	lb, err := ctx.Infra.GetLoadBalancer(ctx, lbName)
	if err != nil {
		return fmt.Errorf("failed to look up load balancer %s: %w", lbName, err)
	}
	if lb == nil {
		return fmt.Errorf("load balancer %s does not exist", lbName)
	}
	ctx.State.APILoadBalancer = lb
	ctx.State.APIHost = infrastructure.APIHost(cfg.API.DNSName,
		hcloud_internal.LoadBalancerDNSName(lb), hcloud_internal.LoadBalancerIPv4(lb))

	// The ingress load balancer is only reported, so its absence is fine.
	ingressName := naming.IngressLoadBalancer(cfg.ClusterName)
	ingress, err := ctx.Infra.GetLoadBalancer(ctx, ingressName)
	if err != nil {
		return fmt.Errorf("failed to look up load balancer %s: %w", ingressName, err)
	}
	ctx.State.IngressLoadBalancer = ingress

	nodes, err := compute.ListNodes(ctx, ctx.Infra, cfg.ClusterName, network.ID)
	if err != nil {
		return err
	}
	ctx.State.Nodes = nodes
	if _, ok := ctx.State.ControlPlane(); !ok {
		return fmt.Errorf("control plane server %s does not exist", naming.ControlPlane(cfg.ClusterName))
	}
	ctx.Observer.Printf("[lookup] Found %d nodes; API at %s", len(nodes), ctx.State.APIHost)
	return nil
}
