package access

import (
	"fmt"

	"github.com/imamik/kubestrap/internal/kubeconfig"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/util/netutil"
)

const phase = "access"

// Provisioner retrieves the admin kubeconfig from the control plane.
type Provisioner struct {
	sshPort int
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithSSHPort sets the port waited on before retrieval starts.
func WithSSHPort(port int) Option {
	return func(p *Provisioner) {
		p.sshPort = port
	}
}

// NewProvisioner creates a new access provisioner.
func NewProvisioner(opts ...Option) *Provisioner {
	p := &Provisioner{sshPort: netutil.SSHPort}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return phase
}

// Provision implements the provisioning.Phase interface.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	cp, ok := ctx.State.ControlPlane()
	if !ok {
		return fmt.Errorf("control plane is not known; provision the cluster first")
	}
	if cp.PublicIP == "" {
		return fmt.Errorf("control plane %s has no public IPv4 address", cp.Name)
	}
	if ctx.State.APIHost == "" {
		return fmt.Errorf("API host is not known; provision the cluster first")
	}
	if ctx.Dialer == nil {
		return fmt.Errorf("no dialer configured to reach %s", cp.Name)
	}

	ctx.Observer.Printf("[%s] Waiting for SSH on %s (%s)...", phase, cp.Name, cp.PublicIP)
	if err := netutil.WaitForPort(ctx, cp.PublicIP, p.sshPort, 0); err != nil {
		return fmt.Errorf("control plane %s is unreachable: %w", cp.Name, err)
	}

	remote, err := ctx.Dialer.Dial(cp.PublicIP)
	if err != nil {
		return fmt.Errorf("failed to prepare connection to %s: %w", cp.Name, err)
	}

	cfg := ctx.Config
	r := &kubeconfig.Retriever{
		Remote: remote,
		Options: kubeconfig.Options{
			Interval:    cfg.Retrieval.PollInterval,
			MaxAttempts: cfg.Retrieval.MaxAttempts,
			VerifyAPI:   cfg.Retrieval.ShouldVerifyAPI(),
			Notify: func(attempt int, err error) {
				ctx.Observer.Printf("[%s] Control plane not ready yet (attempt %d): %v", phase, attempt, err)
			},
		},
		APIHost:    ctx.State.APIHost,
		APIPort:    cfg.API.Port,
		OutputPath: cfg.KubeconfigPath,
	}

	ctx.Observer.Printf("[%s] Waiting for the admin kubeconfig on %s...", phase, cp.Name)
	data, err := r.Retrieve(ctx)
	if err != nil {
		return err
	}
	ctx.State.Kubeconfig = data
	ctx.Observer.Printf("[%s] Admin kubeconfig written to %s (server https://%s:%d)", phase, cfg.KubeconfigPath, ctx.State.APIHost, cfg.API.Port)
	return nil
}
