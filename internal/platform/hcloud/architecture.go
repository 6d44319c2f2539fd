package hcloud

import (
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// GoArch maps a Hetzner architecture to the GOARCH of the agent binary
// that runs on it.
func GoArch(arch hcloud.Architecture) string {
	if arch == hcloud.ArchitectureARM {
		return "arm64"
	}
	return "amd64"
}

// ServerTypeArchitecture infers the architecture from a server type name
// without an API call. Only the cax family is Ampere based.
func ServerTypeArchitecture(serverType string) hcloud.Architecture {
	if strings.HasPrefix(strings.ToLower(serverType), "cax") {
		return hcloud.ArchitectureARM
	}
	return hcloud.ArchitectureX86
}
