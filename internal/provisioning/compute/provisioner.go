package compute

import (
	"fmt"

	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/userdata"
)

const phase = "compute"

// maxParallelCreates bounds concurrent server creations to stay clear of
// the API rate limit.
const maxParallelCreates = 5

// Provisioner handles server provisioning (control plane, workers).
type Provisioner struct{}

// NewProvisioner creates a new compute provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision creates the control plane, then the workers, and finally reads
// back every node of the cluster into State.Nodes.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	if ctx.State.Token.IsZero() {
		return fmt.Errorf("join token must be ensured before servers are created")
	}
	if ctx.State.Network == nil || ctx.State.APILoadBalancer == nil {
		return fmt.Errorf("infrastructure must be provisioned before servers are created")
	}

	api := apiEndpoint(ctx)

	if err := p.ProvisionControlPlane(ctx, api); err != nil {
		return err
	}
	if err := p.ProvisionWorkers(ctx, api); err != nil {
		return err
	}
	return p.DiscoverNodes(ctx)
}

// apiEndpoint collects the API names that go into the control plane's
// serving certificate.
func apiEndpoint(ctx *provisioning.Context) userdata.API {
	ipv4 := hcloud_internal.LoadBalancerIPv4(ctx.State.APILoadBalancer)
	api := userdata.API{LoadBalancerIP: ipv4}
	if ctx.State.APIHost != ipv4 {
		api.DNSName = ctx.State.APIHost
	}
	return api
}
