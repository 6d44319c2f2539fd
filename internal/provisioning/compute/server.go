package compute

import (
	"fmt"
	"strconv"

	"github.com/imamik/kubestrap/internal/node"
	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/userdata"
	"github.com/imamik/kubestrap/internal/util/labels"
)

// serverSpec describes one node's server.
type serverSpec struct {
	name       string
	role       node.Role
	index      int
	serverType string
	image      string
	privateIP  string
}

// ensureServer creates the server unless one with the same name exists.
// An existing server must carry the labels of the node it stands for.
func (p *Provisioner) ensureServer(ctx *provisioning.Context, spec serverSpec, api userdata.API) error {
	existing, err := ctx.Infra.GetServerByName(ctx, spec.name)
	if err != nil {
		return err
	}

	if existing != nil {
		id, err := node.FromLabels(existing.Name, existing.ID,
			hcloud_internal.ServerPrivateIP(existing, ctx.State.Network.ID),
			hcloud_internal.ServerIPv4(existing), existing.Labels)
		if err != nil {
			return fmt.Errorf("existing server is not a cluster node: %w", err)
		}
		if id.Role != spec.role || id.Index != spec.index {
			return fmt.Errorf("server %s is labeled %s %d, expected %s %d", spec.name, id.Role, id.Index, spec.role, spec.index)
		}
		if id.PrivateIP != "" && id.PrivateIP != spec.privateIP {
			ctx.Observer.Printf("[%s] Warning: %s has private IP %s, expected %s; keeping it", phase, spec.name, id.PrivateIP, spec.privateIP)
		}
		provisioning.LogResourceExists(ctx.Observer, phase, "server", spec.name, strconv.FormatInt(existing.ID, 10))
		return nil
	}

	data, err := userdata.ForNode(ctx.Config, spec.role, spec.index, ctx.State.Token, api)
	if err != nil {
		return fmt.Errorf("failed to render user data for %s: %w", spec.name, err)
	}

	provisioning.LogResourceCreating(ctx.Observer, phase, "server", spec.name)
	server, err := ctx.Infra.CreateServer(ctx, hcloud_internal.ServerCreateOpts{
		Name:       spec.name,
		Image:      spec.image,
		ServerType: spec.serverType,
		Location:   ctx.Config.Location,
		SSHKeys:    []string{ctx.Config.SSH.KeyName},
		Labels:     labels.NewLabelBuilder(ctx.Config.ClusterName).WithRole(string(spec.role)).WithIndex(spec.index).Build(),
		UserData:   string(data),
		NetworkID:  ctx.State.Network.ID,
		PrivateIP:  spec.privateIP,
	})
	if err != nil {
		return fmt.Errorf("failed to create server %s: %w", spec.name, err)
	}
	provisioning.LogResourceCreated(ctx.Observer, phase, "server", spec.name, strconv.FormatInt(server.ID, 10))
	return nil
}
