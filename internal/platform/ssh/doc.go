// Package ssh provides an SSH client for running commands on cluster nodes
// and reading files from them over SFTP.
//
// Each call opens its own connection. Retrying is left to the caller, which
// polls nodes that are still booting. Authentication failures are reported
// as [ErrAuthentication] so callers can stop polling instead of waiting for
// a key that will never be accepted.
//
// Security: host key verification is disabled by default because servers
// are created fresh by kubestrap. Set HostKeyCallback to verify keys.
package ssh
