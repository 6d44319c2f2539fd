// Package s3 provides a small client for S3-compatible object storage.
//
// kubestrap keeps the cluster's versioned join token set in a single
// object when state.s3 is configured, so that several operators can run
// apply against the same cluster.
package s3
