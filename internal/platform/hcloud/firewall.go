package hcloud

import (
	"context"
	"fmt"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// EnsureFirewall ensures that a firewall exists with exactly the given
// rules and is applied to the servers matching applyToLabelSelector.
func (c *RealClient) EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string, applyToLabelSelector string) (*hcloud.Firewall, error) {
	var applyTo []hcloud.FirewallResource
	if applyToLabelSelector != "" {
		applyTo = []hcloud.FirewallResource{labelSelectorResource(applyToLabelSelector)}
	}

	fw, err := ensureNamed(ctx, c, "firewall", name, c.client.Firewall.Get,
		func(ctx context.Context) (*hcloud.Firewall, []*hcloud.Action, error) {
			res, _, err := c.client.Firewall.Create(ctx, hcloud.FirewallCreateOpts{
				Name:    name,
				Rules:   rules,
				Labels:  labels,
				ApplyTo: applyTo,
			})
			if err != nil {
				return nil, nil, err
			}
			return res.Firewall, res.Actions, nil
		},
		func(ctx context.Context, fw *hcloud.Firewall) ([]*hcloud.Action, error) {
			actions, _, err := c.client.Firewall.SetRules(ctx, fw, hcloud.FirewallSetRulesOpts{Rules: rules})
			if err != nil {
				return nil, fmt.Errorf("failed to update firewall %s rules: %w", name, err)
			}
			return actions, nil
		})
	if err != nil {
		return nil, err
	}

	if applyToLabelSelector == "" || firewallAppliedTo(fw, applyToLabelSelector) {
		return fw, nil
	}
	actions, _, err := c.client.Firewall.ApplyResources(ctx, fw, applyTo)
	if err != nil {
		return nil, fmt.Errorf("failed to apply firewall %s: %w", name, err)
	}
	if err := waitForActions(ctx, c.client, actions...); err != nil {
		return nil, fmt.Errorf("failed to wait for firewall %s to apply: %w", name, err)
	}
	return fw, nil
}

func labelSelectorResource(selector string) hcloud.FirewallResource {
	return hcloud.FirewallResource{
		Type:          hcloud.FirewallResourceTypeLabelSelector,
		LabelSelector: &hcloud.FirewallResourceLabelSelector{Selector: selector},
	}
}

func firewallAppliedTo(fw *hcloud.Firewall, selector string) bool {
	for _, r := range fw.AppliedTo {
		if r.Type == hcloud.FirewallResourceTypeLabelSelector && r.LabelSelector != nil && r.LabelSelector.Selector == selector {
			return true
		}
	}
	return false
}

// DeleteFirewall deletes the firewall with the given name.
func (c *RealClient) DeleteFirewall(ctx context.Context, name string) error {
	return deleteNamed(ctx, c, "firewall", name, c.client.Firewall.Get, responseOnly(c.client.Firewall.Delete))
}

// GetFirewall returns the firewall with the given name.
func (c *RealClient) GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error) {
	fw, _, err := c.client.Firewall.Get(ctx, name)
	return fw, err
}
