// Package kubeconfig retrieves the admin kubeconfig from the control plane.
//
// Retrieval waits until kubeadm has written /etc/kubernetes/admin.conf
// (and, optionally, until the API server reports ready), copies the file
// over SSH, points every cluster entry at the public API name and saves
// the result locally with owner-only permissions.
package kubeconfig
