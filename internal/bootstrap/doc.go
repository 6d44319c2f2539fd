// Package bootstrap is the node boot agent.
//
// Every server runs `kubestrap agent run` from its user data. The agent
// reads its [Config], then walks the state sequence for its role:
//
//	control-plane: OS_PREP → PACKAGE_INSTALL → RUNTIME_READY → CLUSTER_INIT →
//	               NETWORK_PLUGIN_INSTALLED → JOIN_ARTIFACT_PUBLISHED
//	worker:        OS_PREP → PACKAGE_INSTALL → RUNTIME_READY → JOINED
//
// PACKAGE_INSTALL and JOINED are retried at a fixed interval; RUNTIME_READY
// polls the container runtime until it answers. Any other failure stops the
// agent with an error, which cloud-init records in the boot log. Completed
// states are written to a progress file so a rerun resumes where the last
// one stopped.
//
// All host interaction goes through [System], which tests replace.
package bootstrap
