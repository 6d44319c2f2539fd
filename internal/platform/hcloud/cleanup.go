package hcloud

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/imamik/kubestrap/internal/util/labels"
	"github.com/imamik/kubestrap/internal/util/retry"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// cleanupPollInterval paces the waits for servers to disappear and for
// firewalls to be released.
var cleanupPollInterval = 5 * time.Second

// CleanupError represents accumulated errors from cleanup operations.
type CleanupError struct {
	Errors []error
}

func (e *CleanupError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("cleanup encountered %d errors: %v", len(e.Errors), e.Errors)
}

func (e *CleanupError) Unwrap() error {
	return errors.Join(e.Errors...)
}

// Add records err if it is not nil.
func (e *CleanupError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors reports whether any error was recorded.
func (e *CleanupError) HasErrors() bool {
	return len(e.Errors) > 0
}

// resource is a constraint for Hetzner Cloud resources that have Name and ID fields.
type resource interface {
	*hcloud.Server | *hcloud.LoadBalancer | *hcloud.Firewall | *hcloud.Network | *hcloud.SSHKey
}

// resourceInfo extracts name and ID from various resource types.
func resourceInfo[T resource](r T) (string, int64) {
	switch v := any(r).(type) {
	case *hcloud.Server:
		return v.Name, v.ID
	case *hcloud.LoadBalancer:
		return v.Name, v.ID
	case *hcloud.Firewall:
		return v.Name, v.ID
	case *hcloud.Network:
		return v.Name, v.ID
	case *hcloud.SSHKey:
		return v.Name, v.ID
	}
	return "", 0
}

// CleanupByLabel deletes all cluster resources matching the labels.
// Every resource type is attempted even if earlier ones fail; the
// failures are returned as a *CleanupError.
func (c *RealClient) CleanupByLabel(ctx context.Context, selectorLabels map[string]string) error {
	selector := labels.Selector(selectorLabels)
	if selector == "" {
		return fmt.Errorf("refusing to clean up without a label selector")
	}
	c.logf("[Cleanup] Starting cleanup for resources with labels: %s", selector)
	cleanupErrs := &CleanupError{}

	// Servers go first: load balancers, firewalls and networks still
	// reference them.
	cleanupErrs.Add(wrapCleanup("servers", c.deleteServersByLabel(ctx, selector)))
	cleanupErrs.Add(wrapCleanup("load balancers", deleteByLabel(ctx, c, "load balancer",
		func(ctx context.Context) ([]*hcloud.LoadBalancer, error) {
			return c.client.LoadBalancer.AllWithOpts(ctx, hcloud.LoadBalancerListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: selector},
			})
		},
		func(ctx context.Context, lb *hcloud.LoadBalancer) error {
			_, err := c.client.LoadBalancer.Delete(ctx, lb)
			return err
		})))
	cleanupErrs.Add(wrapCleanup("firewalls", deleteByLabel(ctx, c, "firewall",
		func(ctx context.Context) ([]*hcloud.Firewall, error) {
			return c.client.Firewall.AllWithOpts(ctx, hcloud.FirewallListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: selector},
			})
		},
		c.deleteFirewallWhenReleased)))
	cleanupErrs.Add(wrapCleanup("networks", deleteByLabel(ctx, c, "network",
		func(ctx context.Context) ([]*hcloud.Network, error) {
			return c.client.Network.AllWithOpts(ctx, hcloud.NetworkListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: selector},
			})
		},
		func(ctx context.Context, n *hcloud.Network) error {
			_, err := c.client.Network.Delete(ctx, n)
			return err
		})))
	cleanupErrs.Add(wrapCleanup("SSH keys", deleteByLabel(ctx, c, "SSH key",
		func(ctx context.Context) ([]*hcloud.SSHKey, error) {
			return c.client.SSHKey.AllWithOpts(ctx, hcloud.SSHKeyListOpts{
				ListOpts: hcloud.ListOpts{LabelSelector: selector},
			})
		},
		func(ctx context.Context, k *hcloud.SSHKey) error {
			_, err := c.client.SSHKey.Delete(ctx, k)
			return err
		})))

	if cleanupErrs.HasErrors() {
		c.logf("[Cleanup] Cleanup completed with %d errors", len(cleanupErrs.Errors))
		return cleanupErrs
	}
	c.logf("[Cleanup] Cleanup complete")
	return nil
}

// deleteByLabel lists resources with listFn and deletes each with
// deleteFn, joining the failures.
func deleteByLabel[T resource](
	ctx context.Context,
	c *RealClient,
	resourceType string,
	listFn func(context.Context) ([]T, error),
	deleteFn func(context.Context, T) error,
) error {
	resources, err := listFn(ctx)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", resourceType, err)
	}

	var deleteErrs []error
	for _, r := range resources {
		name, id := resourceInfo(r)
		c.logf("[Cleanup] Deleting %s: %s (ID: %d)", resourceType, name, id)
		if err := deleteFn(ctx, r); err != nil {
			deleteErrs = append(deleteErrs, fmt.Errorf("%s %q: %w", resourceType, name, err))
		}
	}
	return errors.Join(deleteErrs...)
}

func wrapCleanup(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", what, err)
}

// deleteServersByLabel deletes all servers matching the label selector
// and waits for them to be gone.
func (c *RealClient) deleteServersByLabel(ctx context.Context, selector string) error {
	list := func(ctx context.Context) ([]*hcloud.Server, error) {
		return c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
			ListOpts: hcloud.ListOpts{LabelSelector: selector},
		})
	}
	err := deleteByLabel(ctx, c, "server", list, func(ctx context.Context, s *hcloud.Server) error {
		_, _, err := c.client.Server.DeleteWithResult(ctx, s)
		return err
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Delete)
	defer cancel()
	return retry.Poll(ctx, cleanupPollInterval, retry.Unlimited, func() error {
		remaining, err := list(ctx)
		if err != nil {
			return retry.Fatal(fmt.Errorf("failed to check remaining servers: %w", err))
		}
		if len(remaining) > 0 {
			return fmt.Errorf("%d servers still deleting", len(remaining))
		}
		return nil
	})
}

// deleteFirewallWhenReleased retries while the firewall is still applied
// to servers that are shutting down.
func (c *RealClient) deleteFirewallWhenReleased(ctx context.Context, fw *hcloud.Firewall) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Delete)
	defer cancel()
	return retry.Poll(ctx, cleanupPollInterval, retry.Unlimited, func() error {
		_, err := c.client.Firewall.Delete(ctx, fw)
		if err == nil || IsNotFound(err) {
			return nil
		}
		if IsResourceInUse(err) {
			c.logf("[Cleanup] Firewall %s still in use, waiting...", fw.Name)
			return err
		}
		return retry.Fatal(err)
	})
}
