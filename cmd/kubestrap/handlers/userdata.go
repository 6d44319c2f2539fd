package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/kubestrap/internal/node"
	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/provisioning/infrastructure"
	"github.com/imamik/kubestrap/internal/token"
	"github.com/imamik/kubestrap/internal/userdata"
	"github.com/imamik/kubestrap/internal/util/naming"
)

// Userdata prints the boot script a server of the given role and index
// receives. The cluster's join token must exist; the API load balancer is
// used when it already exists.
func Userdata(ctx context.Context, configPath, roleName string, index int) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	role, err := roleOf(roleName)
	if err != nil {
		return err
	}
	switch {
	case index < 0:
		return fmt.Errorf("--index must not be negative")
	case role == node.RoleControlPlane && index != 0:
		return fmt.Errorf("the control plane always has index 0")
	}

	store, err := newTokenStore(ctx, cfg)
	if err != nil {
		return err
	}
	set, err := store.Load(ctx)
	if errors.Is(err, token.ErrNotFound) {
		return fmt.Errorf("cluster %s has no join token yet, run 'kubestrap apply' or 'kubestrap token rotate' first", cfg.ClusterName)
	}
	if err != nil {
		return fmt.Errorf("failed to load join token: %w", err)
	}
	tok, err := set.CurrentToken()
	if err != nil {
		return err
	}

	infra := newInfraClient(cfg.HCloudToken)
	lb, err := infra.GetLoadBalancer(ctx, naming.KubeAPILoadBalancer(cfg.ClusterName))
	if err != nil {
		return fmt.Errorf("failed to look up API load balancer: %w", err)
	}
	api := userdata.API{DNSName: cfg.API.DNSName}
	if lb != nil {
		ipv4 := hcloud_internal.LoadBalancerIPv4(lb)
		api.LoadBalancerIP = ipv4
		if host := infrastructure.APIHost(cfg.API.DNSName, hcloud_internal.LoadBalancerDNSName(lb), ipv4); host != ipv4 {
			api.DNSName = host
		}
	}

	script, err := userdata.ForNode(cfg, role, index, tok, api)
	if err != nil {
		return err
	}
	_, err = out.Write(script)
	return err
}
