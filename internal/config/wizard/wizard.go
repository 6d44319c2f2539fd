package wizard

import (
	"context"
	"fmt"
)

// WizardResult holds all the answers from the interactive wizard.
type WizardResult struct {
	ClusterName string
	Location    string

	SSHKeyName     string
	PrivateKeyPath string

	// Architecture and ServerCategory only filter the server type lists.
	Architecture   string
	ServerCategory string

	ControlPlaneType string

	WorkerType  string
	WorkerCount int

	KubernetesVersion string

	// Admin access
	AdminCIDRs []string
	APIDNSName string

	// AdvancedOptions is nil unless the wizard ran in advanced mode.
	AdvancedOptions *AdvancedOptions
}

// AdvancedOptions holds advanced configuration options.
type AdvancedOptions struct {
	NetworkCIDR string
	PodCIDR     string
	ServiceCIDR string

	// Join token state in S3-compatible storage. Empty bucket keeps the
	// token set in a local file.
	StateBucket   string
	StateEndpoint string
	StateRegion   string
}

type step struct {
	name string
	run  func(context.Context, *WizardResult) error
}

// RunWizard asks the questions of a cluster config. Advanced mode adds
// the network ranges and the join token storage. Cancelling ctx, or
// pressing Ctrl+C, aborts the current form.
func RunWizard(ctx context.Context, advanced bool) (*WizardResult, error) {
	steps := []step{
		{"cluster identity", runClusterIdentityGroup},
		{"ssh access", runSSHAccessGroup},
		// The architecture narrows down the server types offered next.
		{"architecture", runArchitectureGroup},
		{"nodes", runNodesGroup},
		{"access", runAccessGroup},
	}
	if advanced {
		steps = append(steps,
			step{"network", func(ctx context.Context, r *WizardResult) error { return runNetworkGroup(ctx, r.advanced()) }},
			step{"state", func(ctx context.Context, r *WizardResult) error { return runStateGroup(ctx, r.advanced()) }},
		)
	}

	result := &WizardResult{}
	for _, s := range steps {
		if err := s.run(ctx, result); err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
	}
	return result, nil
}

func (r *WizardResult) advanced() *AdvancedOptions {
	if r.AdvancedOptions == nil {
		r.AdvancedOptions = &AdvancedOptions{}
	}
	return r.AdvancedOptions
}
