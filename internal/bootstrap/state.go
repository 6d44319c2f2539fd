package bootstrap

import "github.com/imamik/kubestrap/internal/node"

// State is one step of the agent's sequence.
type State string

// States in the order they run.
const (
	StateOSPrep         State = "OS_PREP"
	StatePackageInstall State = "PACKAGE_INSTALL"
	StateRuntimeReady   State = "RUNTIME_READY"
	StateClusterInit    State = "CLUSTER_INIT"
	StateNetworkPlugin  State = "NETWORK_PLUGIN_INSTALLED"
	StateJoinArtifact   State = "JOIN_ARTIFACT_PUBLISHED"
	StateJoined         State = "JOINED"
)

// Sequence returns the states a node of role walks through.
func Sequence(role node.Role) []State {
	common := []State{StateOSPrep, StatePackageInstall, StateRuntimeReady}
	switch role {
	case node.RoleControlPlane:
		return append(common, StateClusterInit, StateNetworkPlugin, StateJoinArtifact)
	case node.RoleWorker:
		return append(common, StateJoined)
	}
	return nil
}
