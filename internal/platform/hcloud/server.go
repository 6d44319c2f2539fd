package hcloud

import (
	"context"
	"fmt"

	"github.com/imamik/kubestrap/internal/util/labels"
	"github.com/imamik/kubestrap/internal/util/retry"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// CreateServer creates a server and waits until it is running.
func (c *RealClient) CreateServer(ctx context.Context, opts ServerCreateOpts) (*hcloud.Server, error) {
	// Both must be provided together or both empty
	if (opts.NetworkID != 0) != (opts.PrivateIP != "") {
		return nil, fmt.Errorf("networkID and privateIP must both be provided or both be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.ServerCreate)
	defer cancel()

	createOpts, err := c.buildServerCreateOpts(ctx, opts)
	if err != nil {
		return nil, err
	}

	result, err := c.createServerWithRetry(ctx, createOpts)
	if err != nil {
		return nil, err
	}

	if opts.NetworkID != 0 {
		if err := c.attachServerToNetwork(ctx, result.Server, opts.NetworkID, opts.PrivateIP); err != nil {
			return nil, err
		}
	}

	server, _, err := c.client.Server.GetByID(ctx, result.Server.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh server %s: %w", opts.Name, err)
	}
	if server == nil {
		return result.Server, nil
	}
	return server, nil
}

// buildServerCreateOpts resolves all dependencies and builds server creation options.
func (c *RealClient) buildServerCreateOpts(ctx context.Context, opts ServerCreateOpts) (hcloud.ServerCreateOpts, error) {
	serverType, _, err := c.client.ServerType.Get(ctx, opts.ServerType)
	if err != nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("failed to get server type: %w", err)
	}
	if serverType == nil {
		return hcloud.ServerCreateOpts{}, fmt.Errorf("server type not found: %s", opts.ServerType)
	}

	image, err := c.resolveImage(ctx, opts.Image, serverType)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	sshKeys, err := c.resolveSSHKeys(ctx, opts.SSHKeys)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	location, err := c.resolveLocation(ctx, opts.Location)
	if err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	// Servers with a fixed private IP boot only after they are attached,
	// so the agent sees its address from the start.
	var startAfterCreate *bool
	if opts.NetworkID != 0 {
		startAfterCreate = hcloud.Ptr(false)
	}

	return hcloud.ServerCreateOpts{
		Name:             opts.Name,
		ServerType:       serverType,
		Image:            image,
		SSHKeys:          sshKeys,
		Labels:           opts.Labels,
		UserData:         opts.UserData,
		Location:         location,
		StartAfterCreate: startAfterCreate,
		PublicNet: &hcloud.ServerCreatePublicNet{
			EnableIPv4: true,
			EnableIPv6: true,
		},
	}, nil
}

// createServerWithRetry creates a server with exponential backoff retry logic.
func (c *RealClient) createServerWithRetry(ctx context.Context, opts hcloud.ServerCreateOpts) (hcloud.ServerCreateResult, error) {
	var result hcloud.ServerCreateResult

	err := retry.WithExponentialBackoff(ctx, func() error {
		res, _, err := c.client.Server.Create(ctx, opts)
		if err != nil {
			if isInvalidParameter(err) {
				return retry.Fatal(err)
			}
			return err
		}
		result = res
		return nil
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
	if err != nil {
		return result, fmt.Errorf("failed to create server %s: %w", opts.Name, err)
	}

	if err := waitForActions(ctx, c.client, append([]*hcloud.Action{result.Action}, result.NextActions...)...); err != nil {
		return result, fmt.Errorf("failed to wait for server creation: %w", err)
	}
	return result, nil
}

// DeleteServer deletes the server with the given name.
func (c *RealClient) DeleteServer(ctx context.Context, name string) error {
	return deleteNamed(ctx, c, "server", name, c.client.Server.Get,
		func(ctx context.Context, server *hcloud.Server) error {
			res, _, err := c.client.Server.DeleteWithResult(ctx, server)
			if err != nil {
				return err
			}
			return waitForActions(ctx, c.client, res.Action)
		})
}

// GetServerByName returns the server with the given name, or nil.
func (c *RealClient) GetServerByName(ctx context.Context, name string) (*hcloud.Server, error) {
	server, _, err := c.client.Server.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get server %s: %w", name, err)
	}
	return server, nil
}

// GetServersByLabel returns all servers matching the given labels.
func (c *RealClient) GetServersByLabel(ctx context.Context, serverLabels map[string]string) ([]*hcloud.Server, error) {
	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{LabelSelector: labels.Selector(serverLabels)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

// CheckServerType verifies that the server type exists and offers at
// least minDiskGB of disk.
func (c *RealClient) CheckServerType(ctx context.Context, name string, minDiskGB int) (*hcloud.ServerType, error) {
	serverType, _, err := c.client.ServerType.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get server type %s: %w", name, err)
	}
	if serverType == nil {
		return nil, fmt.Errorf("server type not found: %s", name)
	}
	if minDiskGB > 0 && serverType.Disk < minDiskGB {
		return nil, fmt.Errorf("server type %s has a %d GB disk, %d GB required", name, serverType.Disk, minDiskGB)
	}
	return serverType, nil
}
