// Package node describes the identity of a provisioned cluster node.
package node

import (
	"fmt"
	"sort"

	"github.com/imamik/kubestrap/internal/util/labels"
)

// Role is the part a node plays in the cluster.
type Role string

// Roles.
const (
	RoleControlPlane Role = labels.RoleControlPlane
	RoleWorker       Role = labels.RoleWorker
)

// ParseRole accepts the label value of a role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleControlPlane, RoleWorker:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown node role %q: expected %q or %q", s, RoleControlPlane, RoleWorker)
}

// Identity is fixed once the server exists.
type Identity struct {
	Role      Role
	Index     int
	Name      string
	ServerID  int64
	PrivateIP string
	PublicIP  string
}

func (i Identity) String() string {
	return fmt.Sprintf("%s %s (id %d, %s)", i.Role, i.Name, i.ServerID, i.PrivateIP)
}

// FromLabels builds an Identity from a server's name, ID, addresses and
// labels. Servers without a valid role or index label are rejected.
func FromLabels(name string, id int64, privateIP, publicIP string, serverLabels map[string]string) (Identity, error) {
	role, err := ParseRole(serverLabels[labels.KeyRole])
	if err != nil {
		return Identity{}, fmt.Errorf("server %s: %w", name, err)
	}
	index := labels.Index(serverLabels)
	if index < 0 {
		return Identity{}, fmt.Errorf("server %s: missing or invalid %s label", name, labels.KeyIndex)
	}
	return Identity{
		Role:      role,
		Index:     index,
		Name:      name,
		ServerID:  id,
		PrivateIP: privateIP,
		PublicIP:  publicIP,
	}, nil
}

// Labels returns the labels that identify the node on its server.
func (i Identity) Labels(clusterName string) map[string]string {
	return labels.NewLabelBuilder(clusterName).
		WithRole(string(i.Role)).
		WithIndex(i.Index).
		Build()
}

// Filter returns the nodes with the given role.
func Filter(nodes []Identity, role Role) []Identity {
	var out []Identity
	for _, n := range nodes {
		if n.Role == role {
			out = append(out, n)
		}
	}
	return out
}

// Sort orders nodes by role (control plane first) then index.
func Sort(nodes []Identity) {
	sort.SliceStable(nodes, func(a, b int) bool {
		if nodes[a].Role != nodes[b].Role {
			return nodes[a].Role == RoleControlPlane
		}
		return nodes[a].Index < nodes[b].Index
	})
}
