// Package fabric keeps load balancer target pools in step with the
// cluster's nodes.
//
// The desired membership of a pool is a pure function of the live node
// identities: every node of the pool's role whose ordinal is below the
// pool's size. [Diff] compares that with what the load balancer currently
// targets and [Synchronizer] applies the difference.
package fabric

import (
	"context"
	"fmt"
	"sort"

	"github.com/imamik/kubestrap/internal/node"
)

// Pool is one load balancer target pool.
type Pool struct {
	// Name is the load balancer name.
	Name string
	Role node.Role
	Port int
	// Size is the number of ordinals that belong in the pool.
	Size int
}

// Entry is one target of a pool.
type Entry struct {
	Pool     string
	NodeName string
	ServerID int64
	Port     int
}

// Plan is the set of changes that turns current into desired.
type Plan struct {
	Add    []Entry
	Remove []Entry
}

// Empty reports whether the plan changes nothing.
func (p Plan) Empty() bool {
	return len(p.Add) == 0 && len(p.Remove) == 0
}

// Desired returns the entries pool should have given nodes, ordered by
// node index.
func Desired(pool Pool, nodes []node.Identity) []Entry {
	members := make([]node.Identity, 0, len(nodes))
	for _, n := range nodes {
		if n.Role == pool.Role && n.Index >= 0 && n.Index < pool.Size {
			members = append(members, n)
		}
	}
	sort.Slice(members, func(a, b int) bool { return members[a].Index < members[b].Index })

	entries := make([]Entry, 0, len(members))
	seen := make(map[int64]bool, len(members))
	for _, n := range members {
		if seen[n.ServerID] {
			continue
		}
		seen[n.ServerID] = true
		entries = append(entries, Entry{
			Pool:     pool.Name,
			NodeName: n.Name,
			ServerID: n.ServerID,
			Port:     pool.Port,
		})
	}
	return entries
}

// Diff returns the entries to add and to remove, matching by server ID.
func Diff(current, desired []Entry) Plan {
	have := make(map[int64]bool, len(current))
	for _, e := range current {
		have[e.ServerID] = true
	}
	want := make(map[int64]bool, len(desired))
	for _, e := range desired {
		want[e.ServerID] = true
	}

	var plan Plan
	for _, e := range desired {
		if !have[e.ServerID] {
			plan.Add = append(plan.Add, e)
		}
	}
	for _, e := range current {
		if !want[e.ServerID] {
			plan.Remove = append(plan.Remove, e)
		}
	}
	return plan
}

// TargetManager reads and edits the server targets of a load balancer.
type TargetManager interface {
	ListServerTargets(ctx context.Context, lbName string) ([]int64, error)
	AddServerTarget(ctx context.Context, lbName string, serverID int64) error
	RemoveServerTarget(ctx context.Context, lbName string, serverID int64) error
}

// Synchronizer applies pool plans through a TargetManager.
type Synchronizer struct {
	Targets TargetManager
}

// NewSynchronizer returns a Synchronizer using targets.
func NewSynchronizer(targets TargetManager) *Synchronizer {
	return &Synchronizer{Targets: targets}
}

// Current returns the pool's present entries. Node names are filled in
// for servers that appear in nodes.
func (s *Synchronizer) Current(ctx context.Context, pool Pool, nodes []node.Identity) ([]Entry, error) {
	ids, err := s.Targets.ListServerTargets(ctx, pool.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets of %s: %w", pool.Name, err)
	}

	names := make(map[int64]string, len(nodes))
	for _, n := range nodes {
		names[n.ServerID] = n.Name
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, Entry{Pool: pool.Name, NodeName: names[id], ServerID: id, Port: pool.Port})
	}
	return entries, nil
}

// Sync makes the pool's targets equal to Desired(pool, nodes) and returns
// the plan it applied. Additions run before removals.
func (s *Synchronizer) Sync(ctx context.Context, pool Pool, nodes []node.Identity) (Plan, error) {
	current, err := s.Current(ctx, pool, nodes)
	if err != nil {
		return Plan{}, err
	}

	plan := Diff(current, Desired(pool, nodes))
	for _, e := range plan.Add {
		if err := s.Targets.AddServerTarget(ctx, pool.Name, e.ServerID); err != nil {
			return plan, fmt.Errorf("failed to add %s to %s: %w", describe(e), pool.Name, err)
		}
	}
	for _, e := range plan.Remove {
		if err := s.Targets.RemoveServerTarget(ctx, pool.Name, e.ServerID); err != nil {
			return plan, fmt.Errorf("failed to remove %s from %s: %w", describe(e), pool.Name, err)
		}
	}
	return plan, nil
}

func describe(e Entry) string {
	if e.NodeName != "" {
		return e.NodeName
	}
	return fmt.Sprintf("server %d", e.ServerID)
}
