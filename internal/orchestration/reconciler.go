package orchestration

import (
	"context"

	"github.com/imamik/kubestrap/internal/config"
	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/provisioning/access"
	"github.com/imamik/kubestrap/internal/provisioning/compute"
	"github.com/imamik/kubestrap/internal/provisioning/destroy"
	"github.com/imamik/kubestrap/internal/provisioning/infrastructure"
)

// Reconciler orchestrates the cluster provisioning workflow.
type Reconciler struct {
	infra  hcloud_internal.InfrastructureManager
	config *config.Config

	contextOptions []provisioning.Option
	accessOptions  []access.Option
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithContextOptions are applied to every provisioning context the
// reconciler creates.
func WithContextOptions(opts ...provisioning.Option) Option {
	return func(r *Reconciler) {
		r.contextOptions = append(r.contextOptions, opts...)
	}
}

// WithAccessOptions configure the kubeconfig retrieval phase.
func WithAccessOptions(opts ...access.Option) Option {
	return func(r *Reconciler) {
		r.accessOptions = append(r.accessOptions, opts...)
	}
}

// NewReconciler creates a new orchestration reconciler.
func NewReconciler(infra hcloud_internal.InfrastructureManager, cfg *config.Config, opts ...Option) *Reconciler {
	r := &Reconciler{infra: infra, config: cfg}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ApplyPhases returns the phases of a full reconcile in execution order.
func (r *Reconciler) ApplyPhases() []provisioning.Phase {
	return []provisioning.Phase{
		provisioning.NewValidationPhase(),
		provisioning.NewCredentialsPhase(),
		infrastructure.NewProvisioner(),
		compute.NewProvisioner(),
		infrastructure.NewTargetsPhase(),
		access.NewProvisioner(r.accessOptions...),
	}
}

// KubeconfigPhases returns the phases that retrieve credentials from an
// existing cluster.
func (r *Reconciler) KubeconfigPhases() []provisioning.Phase {
	return []provisioning.Phase{
		access.NewLookupPhase(),
		access.NewProvisioner(r.accessOptions...),
	}
}

// DestroyPhases returns the teardown phases.
func (r *Reconciler) DestroyPhases() []provisioning.Phase {
	return []provisioning.Phase{destroy.NewProvisioner()}
}

// Apply brings the cluster to the configured state and retrieves the admin
// kubeconfig. The returned state is filled as far as the run got, also on
// error.
func (r *Reconciler) Apply(ctx context.Context, opts ...provisioning.Option) (*provisioning.State, error) {
	return r.run(ctx, r.ApplyPhases(), opts)
}

// Kubeconfig retrieves the admin kubeconfig of an existing cluster.
func (r *Reconciler) Kubeconfig(ctx context.Context, opts ...provisioning.Option) (*provisioning.State, error) {
	return r.run(ctx, r.KubeconfigPhases(), opts)
}

// Lookup reads the state of an existing cluster without changing it.
func (r *Reconciler) Lookup(ctx context.Context, opts ...provisioning.Option) (*provisioning.State, error) {
	return r.run(ctx, []provisioning.Phase{access.NewLookupPhase()}, opts)
}

// Destroy deletes every resource of the cluster.
func (r *Reconciler) Destroy(ctx context.Context, opts ...provisioning.Option) error {
	_, err := r.run(ctx, r.DestroyPhases(), opts)
	return err
}

func (r *Reconciler) run(ctx context.Context, phases []provisioning.Phase, extra []provisioning.Option) (*provisioning.State, error) {
	opts := append(append([]provisioning.Option{}, r.contextOptions...), extra...)
	pCtx := provisioning.NewContext(ctx, r.config, r.infra, opts...)
	err := provisioning.RunPhases(pCtx, phases)
	return pCtx.State, err
}
