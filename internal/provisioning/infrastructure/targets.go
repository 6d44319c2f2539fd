package infrastructure

import (
	"fmt"

	"github.com/imamik/kubestrap/internal/config"
	"github.com/imamik/kubestrap/internal/fabric"
	"github.com/imamik/kubestrap/internal/node"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/util/naming"
)

// Pools returns the two target pools of the cluster: the control plane
// behind the API load balancer and workers.count workers behind the
// ingress load balancer.
func Pools(cfg *config.Config) []fabric.Pool {
	return []fabric.Pool{
		{
			Name: naming.KubeAPILoadBalancer(cfg.ClusterName),
			Role: node.RoleControlPlane,
			Port: config.KubeAPIPort,
			Size: 1,
		},
		{
			Name: naming.IngressLoadBalancer(cfg.ClusterName),
			Role: node.RoleWorker,
			Port: cfg.Ingress.Port,
			Size: cfg.Workers.Count,
		},
	}
}

// TargetsPhase makes every pool's targets match the live nodes.
type TargetsPhase struct{}

// NewTargetsPhase creates the target pool phase.
func NewTargetsPhase() *TargetsPhase {
	return &TargetsPhase{}
}

// Name implements the provisioning.Phase interface.
func (t *TargetsPhase) Name() string {
	return "targets"
}

// Provision implements the provisioning.Phase interface.
func (t *TargetsPhase) Provision(ctx *provisioning.Context) error {
	sync := fabric.NewSynchronizer(ctx.Infra)
	for _, pool := range Pools(ctx.Config) {
		plan, err := sync.Sync(ctx, pool, ctx.State.Nodes)
		ctx.State.Plans[pool.Name] = plan
		if err != nil {
			return fmt.Errorf("failed to sync target pool %s: %w", pool.Name, err)
		}

		for _, e := range plan.Add {
			provisioning.LogTargetChange(ctx.Observer, t.Name(), pool.Name, e.NodeName, e.ServerID, true)
		}
		for _, e := range plan.Remove {
			provisioning.LogTargetChange(ctx.Observer, t.Name(), pool.Name, e.NodeName, e.ServerID, false)
		}
		if plan.Empty() {
			ctx.Observer.Printf("[%s] %s: %d targets, nothing to change", t.Name(), pool.Name, len(fabric.Desired(pool, ctx.State.Nodes)))
		}
	}

	for _, n := range ctx.State.Surplus {
		ctx.Observer.Printf("[%s] %s is beyond workers.count and no longer receives traffic; delete it manually if it is not needed", t.Name(), n.Name)
	}
	return nil
}
