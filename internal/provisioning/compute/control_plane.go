package compute

import (
	"fmt"

	"github.com/imamik/kubestrap/internal/node"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/userdata"
	"github.com/imamik/kubestrap/internal/util/naming"
)

// ProvisionControlPlane ensures the single control-plane server.
func (p *Provisioner) ProvisionControlPlane(ctx *provisioning.Context, api userdata.API) error {
	ctx.Observer.Printf("[%s] Reconciling control plane...", phase)

	ip, err := ctx.Config.ControlPlaneIP()
	if err != nil {
		return fmt.Errorf("failed to calculate control plane IP: %w", err)
	}
	return p.ensureServer(ctx, serverSpec{
		name:       naming.ControlPlane(ctx.Config.ClusterName),
		role:       node.RoleControlPlane,
		index:      0,
		serverType: ctx.Config.ControlPlane.ServerType,
		image:      ctx.Config.ControlPlane.Image,
		privateIP:  ip,
	}, api)
}
