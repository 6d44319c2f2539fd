// Package naming provides consistent naming functions for Hetzner Cloud resources.
//
// Infrastructure follows {cluster}-{type}; servers follow
// {cluster}-control-plane and {cluster}-worker-{index}.
package naming
