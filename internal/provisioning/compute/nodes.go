package compute

import (
	"fmt"

	"github.com/imamik/kubestrap/internal/node"
	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/util/labels"
)

// DiscoverNodes reads every server of the cluster back as a node identity.
// Workers whose index is at or beyond workers.count are recorded as
// surplus.
func (p *Provisioner) DiscoverNodes(ctx *provisioning.Context) error {
	nodes, err := ListNodes(ctx, ctx.Infra, ctx.Config.ClusterName, networkID(ctx))
	if err != nil {
		return err
	}

	ctx.State.Nodes = nil
	ctx.State.Surplus = nil
	for _, n := range nodes {
		ctx.State.SetNode(n)
		if n.Role == node.RoleWorker && n.Index >= ctx.Config.Workers.Count {
			ctx.State.Surplus = append(ctx.State.Surplus, n)
		}
	}

	if _, ok := ctx.State.ControlPlane(); !ok {
		return fmt.Errorf("control plane server not found after provisioning")
	}
	ctx.Observer.Printf("[%s] %d nodes: 1 control plane, %d workers (%d surplus)",
		phase, len(ctx.State.Nodes), len(ctx.State.Workers()), len(ctx.State.Surplus))
	return nil
}

// ListNodes returns the node identities of all servers labeled for the
// cluster. Servers without valid node labels are skipped.
func ListNodes(ctx *provisioning.Context, infra hcloud_internal.ServerProvisioner, clusterName string, networkID int64) ([]node.Identity, error) {
	servers, err := infra.GetServersByLabel(ctx, map[string]string{labels.KeyCluster: clusterName})
	if err != nil {
		return nil, fmt.Errorf("failed to list cluster servers: %w", err)
	}

	nodes := make([]node.Identity, 0, len(servers))
	for _, s := range servers {
		n, err := node.FromLabels(s.Name, s.ID,
			hcloud_internal.ServerPrivateIP(s, networkID),
			hcloud_internal.ServerIPv4(s), s.Labels)
		if err != nil {
			ctx.Observer.Printf("[%s] Skipping %v", phase, err)
			continue
		}
		nodes = append(nodes, n)
	}
	node.Sort(nodes)
	return nodes, nil
}

func networkID(ctx *provisioning.Context) int64 {
	if ctx.State.Network == nil {
		return 0
	}
	return ctx.State.Network.ID
}
