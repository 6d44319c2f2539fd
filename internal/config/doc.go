// Package config defines the cluster configuration file consumed by the
// kubestrap CLI.
//
// A [Config] is loaded from YAML with [LoadFile], filled with defaults and
// validated. Secrets (Hetzner token, Cloudflare token, S3 credentials) are
// taken from the environment when the file leaves them empty. Operational
// timeouts and poll intervals come from [LoadTimeouts].
package config
