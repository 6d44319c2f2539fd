// Package orchestration provides high-level workflow coordination for cluster provisioning.
//
// This package orchestrates the provisioning workflow by delegating to specialized
// provisioners in the internal/provisioning subpackages. It defines the execution order
// and coordinates state flow between provisioning phases.
//
// # Workflow
//
// Apply executes the following phases in order:
//  1. Validation - Pre-flight configuration and project checks
//  2. Credentials - Join token load, creation or rotation
//  3. Infrastructure - Network, firewall, load balancers, API name
//  4. Compute - Control plane, then workers in parallel
//  5. Targets - Load balancer target pools from the live nodes
//  6. Access - Admin kubeconfig retrieval
//
// Kubeconfig runs only the retrieval against an existing cluster and
// Destroy removes everything the cluster owns.
//
// # Usage
//
//	reconciler := orchestration.NewReconciler(infraClient, cfg,
//	    orchestration.WithContextOptions(provisioning.WithTokenStore(store)))
//	state, err := reconciler.Apply(ctx)
//
// Apply is idempotent: it can be run multiple times and will only make the
// changes necessary to reach the desired state.
package orchestration
