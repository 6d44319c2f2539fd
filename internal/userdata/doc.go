// Package userdata renders the cloud-init user data that boots a node.
//
// Each server receives a cloud-config document that writes the node
// agent's configuration, downloads the kubestrap binary and runs
// `kubestrap agent run`. The agent then walks the role's bootstrap states
// (see package bootstrap). Control-plane and worker documents differ only
// in the agent configuration they carry.
package userdata
