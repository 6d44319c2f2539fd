package infrastructure

import (
	"fmt"
	"net"
	"strconv"

	"github.com/imamik/kubestrap/internal/config"
	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/util/labels"
	"github.com/imamik/kubestrap/internal/util/naming"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// Pool label values of the two load balancers.
const (
	PoolKubeAPI = "kube-api"
	PoolIngress = "ingress"
)

type loadBalancerSpec struct {
	name      string
	pool      string
	lbType    string
	service   hcloud.LoadBalancerAddServiceOpts
	privateIP func() (string, error)
}

// ProvisionLoadBalancers provisions the API and ingress load balancers.
// Targets are not added here; the target pools are synchronized once the
// servers exist.
func (p *Provisioner) ProvisionLoadBalancers(ctx *provisioning.Context) error {
	cfg := ctx.Config
	ctx.Observer.Printf("[%s] Reconciling load balancers for %s...", phase, cfg.ClusterName)

	specs := []loadBalancerSpec{
		{
			name:      naming.KubeAPILoadBalancer(cfg.ClusterName),
			pool:      PoolKubeAPI,
			lbType:    cfg.API.LoadBalancerType,
			service:   hcloud_internal.TCPService(cfg.API.Port, config.KubeAPIPort),
			privateIP: cfg.APILoadBalancerIP,
		},
		{
			name:      naming.IngressLoadBalancer(cfg.ClusterName),
			pool:      PoolIngress,
			lbType:    cfg.Ingress.LoadBalancerType,
			service:   hcloud_internal.TCPService(cfg.Ingress.Port, cfg.Ingress.Port),
			privateIP: cfg.IngressLoadBalancerIP,
		},
	}

	for _, spec := range specs {
		lb, err := p.ensureLoadBalancer(ctx, spec)
		if err != nil {
			return err
		}
		switch spec.pool {
		case PoolKubeAPI:
			ctx.State.APILoadBalancer = lb
		case PoolIngress:
			ctx.State.IngressLoadBalancer = lb
		}
	}
	return nil
}

func (p *Provisioner) ensureLoadBalancer(ctx *provisioning.Context, spec loadBalancerSpec) (*hcloud.LoadBalancer, error) {
	ctx.Observer.Printf("[%s] Reconciling load balancer %s...", phase, spec.name)

	lbLabels := labels.NewLabelBuilder(ctx.Config.ClusterName).WithPool(spec.pool).Build()
	lb, err := ctx.Infra.EnsureLoadBalancer(ctx, spec.name, ctx.Config.Location, spec.lbType,
		hcloud.LoadBalancerAlgorithmTypeRoundRobin, lbLabels)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure load balancer %s: %w", spec.name, err)
	}

	if err := ctx.Infra.ConfigureService(ctx, lb, spec.service); err != nil {
		return nil, fmt.Errorf("failed to configure service on %s: %w", spec.name, err)
	}

	ipStr, err := spec.privateIP()
	if err != nil {
		return nil, fmt.Errorf("failed to calculate private IP of %s: %w", spec.name, err)
	}
	if ctx.State.Network == nil {
		return nil, fmt.Errorf("network must be provisioned before load balancer %s", spec.name)
	}
	if err := ctx.Infra.AttachToNetwork(ctx, lb, ctx.State.Network, net.ParseIP(ipStr)); err != nil {
		return nil, fmt.Errorf("failed to attach %s to the network: %w", spec.name, err)
	}

	// The object returned by Ensure predates the service and network changes.
	refreshed, err := ctx.Infra.GetLoadBalancer(ctx, spec.name)
	switch {
	case err != nil:
		ctx.Observer.Printf("[%s] Warning: failed to refresh %s after configuration: %v", phase, spec.name, err)
	case refreshed != nil:
		lb = refreshed
	}

	provisioning.LogResourceCreated(ctx.Observer, phase, "load balancer", spec.name, strconv.FormatInt(lb.ID, 10))
	return lb, nil
}
