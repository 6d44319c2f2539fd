package infrastructure

import (
	"github.com/imamik/kubestrap/internal/provisioning"
)

const phase = "infrastructure"

// Provisioner creates the cluster's shared resources. Servers and
// target pools depend on all of them.
type Provisioner struct{}

// NewProvisioner returns the infrastructure phase.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface. The firewall
// needs the network range and the API name needs the API load balancer,
// so the steps run in this order.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	for _, step := range []func(*provisioning.Context) error{
		p.ProvisionNetwork,
		p.ProvisionFirewall,
		p.ProvisionLoadBalancers,
		p.ProvisionAPIName,
	} {
		if err := step(ctx); err != nil {
			return err
		}
	}
	return nil
}
