// Package access retrieves the cluster's admin kubeconfig.
//
// The control plane writes the admin kubeconfig once kubeadm init has
// finished. The access phase reaches the control plane over SSH, polls
// until the file exists (and, optionally, until the API server answers
// /readyz), copies it, points it at the API load balancer and writes it
// to the configured path.
//
// The lookup phase rebuilds the state the access phase needs from the
// cluster's existing resources, so credentials can be retrieved without
// provisioning anything.
package access
