package userdata

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/imamik/kubestrap/internal/bootstrap"
	"github.com/imamik/kubestrap/internal/config"
	"github.com/imamik/kubestrap/internal/node"
	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/token"
	"github.com/imamik/kubestrap/internal/util/naming"

	"sigs.k8s.io/yaml"
)

// AgentBinaryPath is where the boot script installs the node agent.
const AgentBinaryPath = "/usr/local/bin/kubestrap"

// API carries what the control plane must put into its serving
// certificate. Both fields may be empty before the load balancer exists.
type API struct {
	DNSName        string
	LoadBalancerIP string
}

// AgentConfig builds the node agent configuration for the node with the
// given role and ordinal. Every node of a cluster receives the same token.
func AgentConfig(cfg *config.Config, role node.Role, index int, tok token.Token, api API) (*bootstrap.Config, error) {
	if tok.IsZero() {
		return nil, fmt.Errorf("join token is required to render user data")
	}
	controlPlaneIP, err := cfg.ControlPlaneIP()
	if err != nil {
		return nil, err
	}

	agent := &bootstrap.Config{
		Role:                 role,
		Token:                tok.String(),
		KubernetesVersion:    cfg.Kubernetes.Version,
		ControlPlaneIP:       controlPlaneIP,
		PackageRetryInterval: cfg.Agent.PackageRetryInterval,
		JoinRetryInterval:    cfg.Agent.JoinRetryInterval,
		JoinMaxAttempts:      cfg.Agent.JoinMaxAttempts,
	}

	switch role {
	case node.RoleControlPlane:
		agent.NodeName = naming.ControlPlane(cfg.ClusterName)
		agent.PrivateIP = controlPlaneIP
		agent.PodCIDR = cfg.Network.PodIPv4CIDR
		agent.ServiceCIDR = cfg.Network.ServiceIPv4CIDR
		agent.PodNetworkManifest = cfg.Kubernetes.PodNetworkManifest
		agent.APIDNSName = api.DNSName
		agent.APILoadBalancerIP = api.LoadBalancerIP
	case node.RoleWorker:
		agent.NodeName = naming.Worker(cfg.ClusterName, index)
		if agent.PrivateIP, err = cfg.WorkerIP(index); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown node role %q", role)
	}

	agent.ApplyDefaults()
	if err := agent.Validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config for %s: %w", agent.NodeName, err)
	}
	return agent, nil
}

type writeFile struct {
	Path        string `json:"path"`
	Permissions string `json:"permissions"`
	Owner       string `json:"owner"`
	Content     string `json:"content"`
}

type cloudConfig struct {
	PackageUpdate bool        `json:"package_update"`
	Packages      []string    `json:"packages"`
	WriteFiles    []writeFile `json:"write_files"`
	RunCmd        [][]string  `json:"runcmd"`
}

// The download is retried because networking may still be settling when
// cloud-init reaches runcmd.
var bootScript = template.Must(template.New("boot").Parse(`set -o errexit
set -o nounset
set -o pipefail
for i in $(seq 1 30); do
  if curl -fsSL --retry 3 -o {{.Binary}}.tmp '{{.URL}}'; then
    break
  fi
  echo "agent download failed (attempt $i), retrying in 10s" >&2
  sleep 10
done
test -s {{.Binary}}.tmp
chmod 0755 {{.Binary}}.tmp
mv {{.Binary}}.tmp {{.Binary}}
exec {{.Binary}} agent run --config {{.Config}}
`))

// Render returns the cloud-config document for a node.
func Render(agent *bootstrap.Config, downloadURL string) ([]byte, error) {
	if downloadURL == "" {
		return nil, fmt.Errorf("agent download URL is required")
	}
	if strings.ContainsAny(downloadURL, "'\n") {
		return nil, fmt.Errorf("agent download URL %q contains invalid characters", downloadURL)
	}
	agentYAML, err := agent.Marshal()
	if err != nil {
		return nil, err
	}

	var script bytes.Buffer
	err = bootScript.Execute(&script, map[string]string{
		"Binary": AgentBinaryPath,
		"URL":    downloadURL,
		"Config": bootstrap.DefaultConfigPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render boot script: %w", err)
	}

	doc := cloudConfig{
		PackageUpdate: true,
		Packages:      []string{"curl", "ca-certificates"},
		WriteFiles: []writeFile{{
			Path:        bootstrap.DefaultConfigPath,
			Permissions: "0600",
			Owner:       "root:root",
			Content:     string(agentYAML),
		}},
		RunCmd: [][]string{{"bash", "-c", script.String()}},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render cloud-config: %w", err)
	}
	return append([]byte("#cloud-config\n"), out...), nil
}

// ArchPlaceholder in the agent download URL is replaced with the CPU
// architecture of the node's server type.
const ArchPlaceholder = "{arch}"

// DownloadURL returns the agent download URL for a node of the given role.
func DownloadURL(cfg *config.Config, role node.Role) string {
	serverType := cfg.Workers.ServerType
	if role == node.RoleControlPlane {
		serverType = cfg.ControlPlane.ServerType
	}
	arch := hcloud_internal.GoArch(hcloud_internal.ServerTypeArchitecture(serverType))
	return strings.ReplaceAll(cfg.Agent.DownloadURL, ArchPlaceholder, arch)
}

// ForNode renders the user data of one node of the cluster.
func ForNode(cfg *config.Config, role node.Role, index int, tok token.Token, api API) ([]byte, error) {
	agent, err := AgentConfig(cfg, role, index, tok, api)
	if err != nil {
		return nil, err
	}
	return Render(agent, DownloadURL(cfg, role))
}
