package destroy

import (
	"errors"
	"fmt"

	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/token"
	"github.com/imamik/kubestrap/internal/util/labels"
)

// Provisioner handles cluster destruction.
type Provisioner struct{}

// NewProvisioner creates a new destroy provisioner.
func NewProvisioner() *Provisioner {
	return &Provisioner{}
}

// Name implements the provisioning.Phase interface.
func (p *Provisioner) Name() string {
	return "destroy"
}

// Provision destroys the cluster and all associated resources.
func (p *Provisioner) Provision(ctx *provisioning.Context) error {
	cfg := ctx.Config
	ctx.Observer.Printf("[destroy] Starting cluster destruction for: %s", cfg.ClusterName)

	// Only the cluster label: resources created by older releases may
	// carry a different managed-by value.
	clusterLabels := map[string]string{labels.KeyCluster: cfg.ClusterName}
	if err := ctx.Infra.CleanupByLabel(ctx, clusterLabels); err != nil {
		return fmt.Errorf("failed to cleanup cluster resources: %w", err)
	}

	if cfg.DNS.CloudflareZone != "" && ctx.DNS != nil {
		zoneID, err := ctx.DNS.GetZoneID(ctx, cfg.DNS.CloudflareZone)
		if err != nil {
			return fmt.Errorf("failed to look up zone %s: %w", cfg.DNS.CloudflareZone, err)
		}
		n, err := ctx.DNS.CleanupClusterRecords(ctx, zoneID, cfg.ClusterName)
		if err != nil {
			return fmt.Errorf("failed to remove DNS records: %w", err)
		}
		ctx.Observer.Printf("[destroy] Removed %d DNS records from %s", n, cfg.DNS.CloudflareZone)
	}

	if ctx.Tokens != nil {
		if err := ctx.Tokens.Delete(ctx); err != nil && !errors.Is(err, token.ErrNotFound) {
			return fmt.Errorf("failed to delete join token set: %w", err)
		}
		ctx.Observer.Printf("[destroy] Join token set deleted")
	}

	ctx.Observer.Printf("[destroy] Cluster %s destroyed successfully", cfg.ClusterName)
	return nil
}
