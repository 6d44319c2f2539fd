package provisioning

import (
	"github.com/imamik/kubestrap/internal/fabric"
	"github.com/imamik/kubestrap/internal/node"
	"github.com/imamik/kubestrap/internal/token"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes and is passed
// to subsequent phases that need earlier results.
type State struct {
	// Join token (populated by the credentials phase)
	Token        token.Token
	TokenCreated bool

	// Infrastructure results (populated by infrastructure provisioner)
	Network             *hcloud.Network
	Firewall            *hcloud.Firewall
	APILoadBalancer     *hcloud.LoadBalancer
	IngressLoadBalancer *hcloud.LoadBalancer
	PublicIP            string // Current execution environment's public IPv4
	// APIHost is the name clients use for the Kubernetes API.
	APIHost string

	// Compute results (populated by compute provisioner)
	Nodes []node.Identity
	// Surplus lists workers beyond workers.count. They are taken out of
	// the ingress pool but never deleted.
	Surplus []node.Identity

	// Target pool results, keyed by load balancer name
	Plans map[string]fabric.Plan

	// Access results
	Kubeconfig []byte
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{
		Plans: make(map[string]fabric.Plan),
	}
}

// ControlPlane returns the control-plane node, if known.
func (s *State) ControlPlane() (node.Identity, bool) {
	for _, n := range s.Nodes {
		if n.Role == node.RoleControlPlane {
			return n, true
		}
	}
	return node.Identity{}, false
}

// Workers returns the known worker nodes ordered by index.
func (s *State) Workers() []node.Identity {
	workers := node.Filter(s.Nodes, node.RoleWorker)
	node.Sort(workers)
	return workers
}

// SetNode records n, replacing a node with the same role and index.
func (s *State) SetNode(n node.Identity) {
	for i := range s.Nodes {
		if s.Nodes[i].Role == n.Role && s.Nodes[i].Index == n.Index {
			s.Nodes[i] = n
			return
		}
	}
	s.Nodes = append(s.Nodes, n)
	node.Sort(s.Nodes)
}
