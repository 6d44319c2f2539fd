// Package token generates and persists the cluster join token.
//
// A join token has the kubeadm bootstrap token shape "<id>.<secret>" with a
// 6 character id and a 16 character secret drawn from [a-z0-9]. One token
// is generated per cluster before any boot script is rendered and is then
// shared by the control plane (which registers it with ttl 0) and every
// worker (which presents it to join).
//
// Tokens are kept in a versioned [Set]. Rotation appends a version and
// never edits an existing one; the highest version is current.
package token
