package handlers

import (
	"context"
	"fmt"
	"log"
)

// Destroy deletes every resource labeled for the cluster, the published
// API name and the join token set.
func Destroy(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	log.Printf("Destroying cluster: %s", cfg.ClusterName)

	reconciler, err := buildReconciler(ctx, cfg)
	if err != nil {
		return err
	}
	if err := reconciler.Destroy(ctx); err != nil {
		return fmt.Errorf("destroy failed: %w", err)
	}

	log.Printf("Cluster %s destroyed successfully", cfg.ClusterName)
	return nil
}
