package hcloud

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

const (
	healthCheckInterval = 10 * time.Second
	healthCheckTimeout  = 5 * time.Second
)

func (c *RealClient) loadBalancerByName(ctx context.Context, name string) (*hcloud.LoadBalancer, error) {
	lb, _, err := c.client.LoadBalancer.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get load balancer %s: %w", name, err)
	}
	if lb == nil {
		return nil, fmt.Errorf("load balancer not found: %s", name)
	}
	return lb, nil
}

// ServerTargetIDs returns the IDs of the servers registered as direct
// targets, sorted. Label selector targets are ignored.
func ServerTargetIDs(lb *hcloud.LoadBalancer) []int64 {
	var ids []int64
	for _, t := range lb.Targets {
		if t.Type == hcloud.LoadBalancerTargetTypeServer && t.Server != nil && t.Server.Server != nil {
			ids = append(ids, t.Server.Server.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ListServerTargets returns the server IDs targeted by the load balancer.
func (c *RealClient) ListServerTargets(ctx context.Context, lbName string) ([]int64, error) {
	lb, err := c.loadBalancerByName(ctx, lbName)
	if err != nil {
		return nil, err
	}
	return ServerTargetIDs(lb), nil
}

// AddServerTarget registers a server, reached over the private network.
func (c *RealClient) AddServerTarget(ctx context.Context, lbName string, serverID int64) error {
	lb, err := c.loadBalancerByName(ctx, lbName)
	if err != nil {
		return err
	}
	action, _, err := c.client.LoadBalancer.AddServerTarget(ctx, lb, hcloud.LoadBalancerAddServerTargetOpts{
		Server:       &hcloud.Server{ID: serverID},
		UsePrivateIP: hcloud.Ptr(true),
	})
	if err != nil {
		if isTargetAlreadyDefined(err) {
			return nil
		}
		return fmt.Errorf("failed to add server %d to %s: %w", serverID, lbName, err)
	}
	return waitForActions(ctx, c.client, action)
}

// RemoveServerTarget deregisters a server. Removing a server that is not
// a target succeeds.
func (c *RealClient) RemoveServerTarget(ctx context.Context, lbName string, serverID int64) error {
	lb, err := c.loadBalancerByName(ctx, lbName)
	if err != nil {
		return err
	}
	action, _, err := c.client.LoadBalancer.RemoveServerTarget(ctx, lb, &hcloud.Server{ID: serverID})
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to remove server %d from %s: %w", serverID, lbName, err)
	}
	return waitForActions(ctx, c.client, action)
}

// TargetHealth is the health of one server target on one listen port.
type TargetHealth struct {
	ServerID   int64
	ListenPort int
	Status     string
}

// TargetHealths flattens the health status of the load balancer's server
// targets.
func TargetHealths(lb *hcloud.LoadBalancer) []TargetHealth {
	var out []TargetHealth
	for _, t := range lb.Targets {
		if t.Type != hcloud.LoadBalancerTargetTypeServer || t.Server == nil || t.Server.Server == nil {
			continue
		}
		for _, hs := range t.HealthStatus {
			out = append(out, TargetHealth{
				ServerID:   t.Server.Server.ID,
				ListenPort: hs.ListenPort,
				Status:     string(hs.Status),
			})
		}
	}
	return out
}
