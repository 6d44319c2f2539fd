package compute

import (
	"context"
	"fmt"

	"github.com/imamik/kubestrap/internal/node"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/userdata"
	"github.com/imamik/kubestrap/internal/util/async"
	"github.com/imamik/kubestrap/internal/util/naming"
)

// ProvisionWorkers ensures workers 0..workers.count-1 in parallel.
// Workers beyond the count are never deleted here.
func (p *Provisioner) ProvisionWorkers(ctx *provisioning.Context, api userdata.API) error {
	count := ctx.Config.Workers.Count
	if count == 0 {
		ctx.Observer.Printf("[%s] No workers configured", phase)
		return nil
	}
	ctx.Observer.Printf("[%s] Reconciling %d workers...", phase, count)

	tasks := make([]async.Task, 0, count)
	for i := 0; i < count; i++ {
		ip, err := ctx.Config.WorkerIP(i)
		if err != nil {
			return fmt.Errorf("failed to calculate worker %d IP: %w", i, err)
		}
		spec := serverSpec{
			name:       naming.Worker(ctx.Config.ClusterName, i),
			role:       node.RoleWorker,
			index:      i,
			serverType: ctx.Config.Workers.ServerType,
			image:      ctx.Config.Workers.Image,
			privateIP:  ip,
		}
		tasks = append(tasks, async.Task{
			Name: spec.name,
			Func: func(taskCtx context.Context) error {
				return p.ensureServer(withContext(ctx, taskCtx), spec, api)
			},
		})
	}

	if err := async.RunParallel(ctx, tasks, maxParallelCreates); err != nil {
		return fmt.Errorf("failed to provision workers: %w", err)
	}
	return nil
}

// withContext returns a shallow copy of pctx bound to ctx.
func withContext(pctx *provisioning.Context, ctx context.Context) *provisioning.Context {
	c := *pctx
	c.Context = ctx
	return &c
}
