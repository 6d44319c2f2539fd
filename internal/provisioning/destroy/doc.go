// Package destroy handles cluster teardown and resource cleanup.
//
// It removes all Hetzner Cloud resources associated with a cluster by
// querying resources with the cluster label. Resources are deleted in
// dependency order: servers first, then load balancers, firewalls,
// networks and SSH keys. DNS records owned by the cluster and the stored
// join token set are removed afterwards.
package destroy
