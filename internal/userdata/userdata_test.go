package userdata

import (
	"strings"
	"testing"

	"github.com/imamik/kubestrap/internal/bootstrap"
	"github.com/imamik/kubestrap/internal/config"
	"github.com/imamik/kubestrap/internal/node"
	"github.com/imamik/kubestrap/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		ClusterName: "demo",
		Location:    "nbg1",
		Workers:     config.WorkerConfig{Count: 2},
	}
	cfg.ApplyDefaults()
	return cfg
}

func testToken(t *testing.T) token.Token {
	t.Helper()
	tok, err := token.Parse("abcdef.0123456789abcdef")
	require.NoError(t, err)
	return tok
}

func TestAgentConfig_ControlPlane(t *testing.T) {
	t.Parallel()
	agent, err := AgentConfig(testConfig(), node.RoleControlPlane, 0, testToken(t),
		API{DNSName: "api.example.com", LoadBalancerIP: "203.0.113.99"})
	require.NoError(t, err)

	assert.Equal(t, "demo-control-plane", agent.NodeName)
	assert.Equal(t, "10.0.1.10", agent.PrivateIP)
	assert.Equal(t, "10.0.1.10", agent.ControlPlaneIP)
	assert.Equal(t, "10.244.0.0/16", agent.PodCIDR)
	assert.Equal(t, "10.96.0.0/12", agent.ServiceCIDR)
	assert.Equal(t, "api.example.com", agent.APIDNSName)
	assert.Equal(t, "203.0.113.99", agent.APILoadBalancerIP)
	assert.Equal(t, config.DefaultPodNetworkManifest, agent.PodNetworkManifest)
	assert.Equal(t, "1.31", agent.KubernetesVersion)
}

func TestAgentConfig_WorkersShareTokenAndControlPlane(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	tok := testToken(t)

	for i := range 2 {
		agent, err := AgentConfig(cfg, node.RoleWorker, i, tok, API{})
		require.NoError(t, err)
		assert.Equal(t, tok.String(), agent.Token)
		assert.Equal(t, "10.0.1.10", agent.ControlPlaneIP)
		assert.Empty(t, agent.PodNetworkManifest)
	}

	w1, err := AgentConfig(cfg, node.RoleWorker, 1, tok, API{})
	require.NoError(t, err)
	assert.Equal(t, "demo-worker-1", w1.NodeName)
	assert.Equal(t, "10.0.2.11", w1.PrivateIP)
}

func TestAgentConfig_Errors(t *testing.T) {
	t.Parallel()
	cfg := testConfig()

	_, err := AgentConfig(cfg, node.RoleWorker, 0, token.Token{}, API{})
	assert.ErrorContains(t, err, "join token is required")

	_, err = AgentConfig(cfg, "etcd", 0, testToken(t), API{})
	assert.ErrorContains(t, err, "unknown node role")
}

func TestForNode_CloudConfig(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Agent.JoinMaxAttempts = 20

	data, err := ForNode(cfg, node.RoleWorker, 0, testToken(t), API{})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "#cloud-config\n"))

	var doc cloudConfig
	require.NoError(t, sigsyaml.Unmarshal(data, &doc))

	require.Len(t, doc.WriteFiles, 1)
	file := doc.WriteFiles[0]
	assert.Equal(t, bootstrap.DefaultConfigPath, file.Path)
	assert.Equal(t, "0600", file.Permissions)

	var agent bootstrap.Config
	require.NoError(t, yaml.Unmarshal([]byte(file.Content), &agent))
	assert.Equal(t, node.RoleWorker, agent.Role)
	assert.Equal(t, "abcdef.0123456789abcdef", agent.Token)
	assert.Equal(t, 20, agent.JoinMaxAttempts)
	assert.Equal(t, config.DefaultJoinRetryInterval, agent.JoinRetryInterval)

	require.Len(t, doc.RunCmd, 1)
	script := doc.RunCmd[0][2]
	assert.Contains(t, script, "releases/latest/download/kubestrap-linux-amd64")
	assert.Contains(t, script, "exec /usr/local/bin/kubestrap agent run --config /etc/kubestrap/agent.yaml")
}

func TestRender_RejectsUnsafeURL(t *testing.T) {
	t.Parallel()
	agent, err := AgentConfig(testConfig(), node.RoleWorker, 0, testToken(t), API{})
	require.NoError(t, err)

	_, err = Render(agent, "https://example.com/'; rm -rf /")
	assert.ErrorContains(t, err, "invalid characters")

	_, err = Render(agent, "")
	assert.ErrorContains(t, err, "download URL is required")
}

func TestDownloadURL_Architecture(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Agent.DownloadURL = "https://example.com/agent-{arch}"
	cfg.ControlPlane.ServerType = "cax21"
	cfg.Workers.ServerType = "cpx31"

	assert.Equal(t, "https://example.com/agent-arm64", DownloadURL(cfg, node.RoleControlPlane))
	assert.Equal(t, "https://example.com/agent-amd64", DownloadURL(cfg, node.RoleWorker))

	cfg.Agent.DownloadURL = "https://example.com/agent"
	assert.Equal(t, "https://example.com/agent", DownloadURL(cfg, node.RoleWorker))
}
