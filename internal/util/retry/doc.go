// Package retry provides retry loops for transient failures.
//
// [WithExponentialBackoff] retries Hetzner Cloud API calls and SSH dials with
// growing delays. [Poll] retries at a fixed interval and, with [Unlimited],
// keeps going until the operation succeeds or the context is cancelled; it
// drives every wait in the node boot agent and in kubeconfig retrieval.
package retry
