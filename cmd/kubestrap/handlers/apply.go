// Package handlers implements the business logic for CLI commands.
//
// This package contains handler functions that are called by command definitions
// in the commands package. Clients are created through package-level factory
// variables so handlers can be tested without Hetzner, S3 or SSH access.
package handlers

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/imamik/kubestrap/internal/config"
	"github.com/imamik/kubestrap/internal/kubeconfig"
	"github.com/imamik/kubestrap/internal/node"
	"github.com/imamik/kubestrap/internal/orchestration"
	"github.com/imamik/kubestrap/internal/platform/cloudflare"
	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/platform/s3"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/provisioning/access"
	"github.com/imamik/kubestrap/internal/token"
	"github.com/imamik/kubestrap/internal/util/naming"
	"github.com/imamik/kubestrap/internal/util/prerequisites"

	"k8s.io/utils/ptr"
)

// DefaultConfigFile is used when no --config is given.
const DefaultConfigFile = "kubestrap.yaml"

// Reconciler interface for testing - matches orchestration.Reconciler.
type Reconciler interface {
	Apply(ctx context.Context, opts ...provisioning.Option) (*provisioning.State, error)
	Kubeconfig(ctx context.Context, opts ...provisioning.Option) (*provisioning.State, error)
	Lookup(ctx context.Context, opts ...provisioning.Option) (*provisioning.State, error)
	Destroy(ctx context.Context, opts ...provisioning.Option) error
}

// Factory function variables - can be replaced in tests for dependency injection.
var (
	// newInfraClient creates a new infrastructure client.
	newInfraClient = func(token string) hcloud_internal.InfrastructureManager {
		return hcloud_internal.NewRealClient(token)
	}

	// newReconciler creates the phase orchestrator.
	newReconciler = func(infra hcloud_internal.InfrastructureManager, cfg *config.Config, opts ...orchestration.Option) Reconciler {
		return orchestration.NewReconciler(infra, cfg, opts...)
	}

	// newDNSPublisher creates the Cloudflare client used for the API name.
	newDNSPublisher = func(apiToken string) provisioning.DNSPublisher {
		return cloudflare.NewClient(apiToken)
	}

	// newDialer creates the SSH dialer used to reach the control plane.
	newDialer = func(cfg *config.Config, timeouts *config.Timeouts) (provisioning.RemoteDialer, error) {
		return access.NewSSHDialer(cfg, timeouts)
	}

	// newObjectStorage creates the S3 client behind the remote token store.
	newObjectStorage = func(ctx context.Context, s config.S3Config) (token.ObjectStorage, error) {
		return s3.NewClient(ctx, s.Endpoint, s.Region, s.AccessKey, s.SecretKey)
	}

	// loadConfigFile loads config from file (for testing injection).
	loadConfigFile = config.LoadFile

	// loadTimeouts reads timeouts from the environment.
	loadTimeouts = config.LoadTimeouts

	// checkDefaultPrereqs runs prerequisite checks.
	checkDefaultPrereqs = prerequisites.CheckDefault

	// out receives command output.
	out io.Writer = os.Stdout
)

// ApplyOptions are the flags of the apply command.
type ApplyOptions struct {
	// RotateToken appends a new join token version before provisioning.
	RotateToken bool
	// SkipAPICheck only waits for the admin kubeconfig, not /readyz.
	SkipAPICheck bool
}

// Apply provisions or converges the cluster described by the config file.
//
// The phases run in order: validation, join token, network and load
// balancers, servers, load balancer targets and finally the admin
// kubeconfig retrieval, which blocks until the control plane is ready or
// ctx is cancelled.
func Apply(ctx context.Context, configPath string, opts ApplyOptions) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if opts.SkipAPICheck {
		cfg.Retrieval.VerifyAPI = ptr.To(false)
	}

	checkPrerequisites()

	log.Printf("Applying configuration for cluster: %s", cfg.ClusterName)

	reconciler, err := buildReconciler(ctx, cfg)
	if err != nil {
		return err
	}

	state, err := reconciler.Apply(ctx, provisioning.WithTokenRotation(opts.RotateToken))
	if err != nil {
		return fmt.Errorf("apply failed: %w", err)
	}

	printApplySuccess(cfg, state)
	return nil
}

// loadConfig loads and validates the configuration, defaulting to
// kubestrap.yaml in the current directory.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w\nRun 'kubestrap init' to create one", configPath, err)
	}
	return cfg, nil
}

// buildReconciler wires the clients the configuration asks for.
func buildReconciler(ctx context.Context, cfg *config.Config) (Reconciler, error) {
	timeouts := loadTimeouts()

	store, err := newTokenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []provisioning.Option{
		provisioning.WithTokenStore(store),
		provisioning.WithTimeouts(timeouts),
		// The private key is only read once a node has to be reached, so
		// destroy works without it.
		provisioning.WithDialer(provisioning.RemoteDialerFunc(func(host string) (kubeconfig.Remote, error) {
			dialer, err := newDialer(cfg, timeouts)
			if err != nil {
				return nil, err
			}
			return dialer.Dial(host)
		})),
	}
	if cfg.DNS.CloudflareZone != "" {
		opts = append(opts, provisioning.WithDNS(newDNSPublisher(cfg.DNS.CloudflareAPIToken)))
	}

	infra := newInfraClient(cfg.HCloudToken)
	return newReconciler(infra, cfg, orchestration.WithContextOptions(opts...)), nil
}

// newTokenStore selects where the join token set lives: an S3 object when
// a bucket is configured, a local file otherwise.
func newTokenStore(ctx context.Context, cfg *config.Config) (token.Store, error) {
	if !cfg.State.S3.Enabled() {
		return token.NewFileStore(cfg.State.Path), nil
	}
	client, err := newObjectStorage(ctx, cfg.State.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return token.NewS3Store(client, cfg.State.S3.Bucket, naming.StateObject(cfg.ClusterName)), nil
}

// checkPrerequisites reports missing client tools. None is required.
func checkPrerequisites() {
	results := checkDefaultPrereqs()
	for _, tool := range results.Missing {
		log.Printf("Note: %s not found in PATH (%s): %s", tool.Name, tool.Description, tool.InstallURL)
	}
}

// printApplySuccess outputs completion message and next steps for the user.
func printApplySuccess(cfg *config.Config, state *provisioning.State) {
	fmt.Fprintf(out, "\nCluster %s is ready.\n", cfg.ClusterName)
	fmt.Fprintf(out, "  API:     https://%s:%d\n", state.APIHost, cfg.API.Port)

	workers := state.Workers()
	fmt.Fprintf(out, "  Nodes:   1 control plane, %d/%d workers\n", len(workers)-len(state.Surplus), cfg.Workers.Count)
	for _, n := range state.Surplus {
		fmt.Fprintf(out, "  Surplus: %s (%s) was removed from the ingress pool, delete it manually when drained\n", n.Name, n.PrivateIP)
	}

	for _, name := range []string{naming.KubeAPILoadBalancer(cfg.ClusterName), naming.IngressLoadBalancer(cfg.ClusterName)} {
		if plan, ok := state.Plans[name]; ok && !plan.Empty() {
			fmt.Fprintf(out, "  Targets: %s +%d -%d\n", name, len(plan.Add), len(plan.Remove))
		}
	}

	if state.TokenCreated {
		fmt.Fprintf(out, "  Token:   new join token %s stored in %s\n", state.Token.Redacted(), tokenLocation(cfg))
	}

	fmt.Fprintf(out, "\nKubeconfig saved to: %s\n", cfg.KubeconfigPath)
	fmt.Fprintf(out, "\nYou can now access your cluster with:\n")
	fmt.Fprintf(out, "  export KUBECONFIG=%s\n", cfg.KubeconfigPath)
	fmt.Fprintf(out, "  kubectl get nodes\n")
}

// tokenLocation describes where the token set is stored.
func tokenLocation(cfg *config.Config) string {
	if cfg.State.S3.Enabled() {
		return fmt.Sprintf("s3://%s/%s", cfg.State.S3.Bucket, naming.StateObject(cfg.ClusterName))
	}
	return cfg.State.Path
}

// roleOf parses a role flag.
func roleOf(s string) (node.Role, error) {
	role, err := node.ParseRole(s)
	if err != nil {
		return "", fmt.Errorf("invalid --role: %w", err)
	}
	return role, nil
}
