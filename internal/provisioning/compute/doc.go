// Package compute provisions the cluster's servers.
//
// The control plane is created first, then the workers in parallel. Every
// server is created with the user data of its role, which installs and
// starts the node agent, and with a fixed private address derived from its
// role and index. Servers that already exist are left untouched: a node's
// identity is fixed once its server exists.
package compute
