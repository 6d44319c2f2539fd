package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// GetSSHKey returns the SSH key with the given name, or nil.
func (c *RealClient) GetSSHKey(ctx context.Context, name string) (*hcloud.SSHKey, error) {
	key, _, err := c.client.SSHKey.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get ssh key %s: %w", name, err)
	}
	return key, nil
}

// CreateSSHKey uploads a public key.
func (c *RealClient) CreateSSHKey(ctx context.Context, name, publicKey string, labels map[string]string) (*hcloud.SSHKey, error) {
	key, _, err := c.client.SSHKey.Create(ctx, hcloud.SSHKeyCreateOpts{
		Name:      name,
		PublicKey: publicKey,
		Labels:    labels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ssh key: %w", err)
	}
	return key, nil
}

// DeleteSSHKey deletes the SSH key with the given name.
func (c *RealClient) DeleteSSHKey(ctx context.Context, name string) error {
	return deleteNamed(ctx, c, "ssh key", name, c.client.SSHKey.Get, responseOnly(c.client.SSHKey.Delete))
}
