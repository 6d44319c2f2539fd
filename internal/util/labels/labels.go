package labels

import (
	"sort"
	"strconv"
	"strings"
)

// Standard label keys for Hetzner Cloud resources.
const (
	// KeyCluster identifies which cluster a resource belongs to
	KeyCluster = "kubestrap.io/cluster"

	// KeyRole identifies the role of a server (control-plane, worker)
	KeyRole = "kubestrap.io/role"

	// KeyIndex holds the ordinal of a server within its role
	KeyIndex = "kubestrap.io/index"

	// KeyPool identifies the load balancer pool (kube-api, ingress)
	KeyPool = "kubestrap.io/pool"

	// KeyManagedBy identifies the management system
	KeyManagedBy = "kubestrap.io/managed-by"
)

// Role values
const (
	RoleControlPlane = "control-plane"
	RoleWorker       = "worker"
)

// ManagedByKubestrap is the managed-by value set on every resource.
const ManagedByKubestrap = "kubestrap"

// LabelBuilder provides a fluent interface for building Hetzner Cloud resource labels.
type LabelBuilder struct {
	labels map[string]string
}

// NewLabelBuilder creates a new label builder with the cluster name pre-set.
func NewLabelBuilder(clusterName string) *LabelBuilder {
	return &LabelBuilder{
		labels: map[string]string{
			KeyCluster:   clusterName,
			KeyManagedBy: ManagedByKubestrap,
		},
	}
}

// WithRole adds a role label (e.g., "control-plane", "worker").
func (lb *LabelBuilder) WithRole(role string) *LabelBuilder {
	lb.labels[KeyRole] = role
	return lb
}

// WithIndex adds the ordinal index label.
func (lb *LabelBuilder) WithIndex(index int) *LabelBuilder {
	lb.labels[KeyIndex] = strconv.Itoa(index)
	return lb
}

// WithPool adds a load balancer pool label.
func (lb *LabelBuilder) WithPool(pool string) *LabelBuilder {
	lb.labels[KeyPool] = pool
	return lb
}

// Build returns a copy of the labels map.
func (lb *LabelBuilder) Build() map[string]string {
	result := make(map[string]string, len(lb.labels))
	for k, v := range lb.labels {
		result[k] = v
	}
	return result
}

// SelectorForCluster returns a label selector string for all resources in a cluster.
func SelectorForCluster(clusterName string) string {
	return KeyCluster + "=" + clusterName
}

// SelectorForRole returns a label selector string for the servers of one role.
func SelectorForRole(clusterName, role string) string {
	return Selector(map[string]string{KeyCluster: clusterName, KeyRole: role})
}

// Selector renders a label map as a Hetzner label selector.
// Keys are sorted so the result is stable.
func Selector(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, ",")
}

// Index parses the ordinal index label. It returns -1 when the label is
// missing or malformed.
func Index(labels map[string]string) int {
	v, ok := labels[KeyIndex]
	if !ok {
		return -1
	}
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return -1
	}
	return i
}
