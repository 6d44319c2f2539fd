// Package provisioning provides shared types and interfaces for cluster provisioning.
//
// The provisioning domain is organized into focused subpackages:
//   - infrastructure/: Network, Firewall, Load Balancers, API DNS name, target pools
//   - compute/: Control-plane and worker servers with their boot agents
//   - access/: Admin kubeconfig retrieval
//   - destroy/: Label based teardown
//
// This root package contains the phase pipeline, the shared state that
// phases fill in, pre-flight validation and the join token phase.
package provisioning
