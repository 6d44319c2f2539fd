package handlers

import (
	"context"
	"fmt"
	"log"

	"k8s.io/utils/ptr"
)

// Kubeconfig fetches the admin kubeconfig of an existing cluster without
// provisioning anything.
func Kubeconfig(ctx context.Context, configPath, outputPath string, skipAPICheck bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if outputPath != "" {
		cfg.KubeconfigPath = outputPath
	}
	if skipAPICheck {
		cfg.Retrieval.VerifyAPI = ptr.To(false)
	}

	log.Printf("Retrieving kubeconfig for cluster: %s", cfg.ClusterName)

	reconciler, err := buildReconciler(ctx, cfg)
	if err != nil {
		return err
	}
	state, err := reconciler.Kubeconfig(ctx)
	if err != nil {
		return fmt.Errorf("kubeconfig retrieval failed: %w", err)
	}

	fmt.Fprintf(out, "Kubeconfig saved to: %s (server https://%s:%d)\n", cfg.KubeconfigPath, state.APIHost, cfg.API.Port)
	return nil
}
