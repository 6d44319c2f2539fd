package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/imamik/kubestrap/internal/bootstrap"
	"github.com/imamik/kubestrap/internal/node"
	kstest "github.com/imamik/kubestrap/internal/testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// stubSystem serves files from memory and refuses to run commands.
type stubSystem struct {
	files    map[string][]byte
	commands []string
}

func (s *stubSystem) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	s.commands = append(s.commands, name)
	return nil, fmt.Errorf("%s: not available in tests", name)
}

func (s *stubSystem) ReadFile(path string) ([]byte, error) {
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	return data, nil
}

func (s *stubSystem) WriteFile(path string, data []byte, _ fs.FileMode) error {
	s.files[path] = data
	return nil
}

func (s *stubSystem) Exists(path string) bool {
	_, ok := s.files[path]
	return ok
}

func writeAgentConfig(t *testing.T) (string, *bootstrap.Config) {
	t.Helper()
	cfg := &bootstrap.Config{
		Role:              node.RoleWorker,
		NodeName:          "test-cluster-worker-0",
		Token:             "abcdef.0123456789abcdef",
		KubernetesVersion: "1.31",
		PrivateIP:         "10.0.2.10",
		PublicIP:          "203.0.113.20",
		ControlPlaneIP:    "10.0.1.10",
		PodCIDR:           "10.244.0.0/16",
		ServiceCIDR:       "10.96.0.0/12",
		ProgressPath:      filepath.Join(t.TempDir(), "progress.yaml"),
		MetricsPath:       filepath.Join(t.TempDir(), "kubestrap.prom"),
	}
	cfg.ApplyDefaults()
	data, err := cfg.Marshal()
	require.NoError(t, err)
	return kstest.WriteFile(t, "agent.yaml", data), cfg
}

func TestAgentRun_ResumesCompletedSequence(t *testing.T) {
	saveAndRestoreFactories(t)
	path, cfg := writeAgentConfig(t)

	progress, err := yaml.Marshal(bootstrap.Progress{Completed: bootstrap.Sequence(node.RoleWorker)})
	require.NoError(t, err)
	sys := &stubSystem{files: map[string][]byte{cfg.ProgressPath: progress}}

	var logs bytes.Buffer
	agentLog = &logs
	newHostSystem = func(logr.Logger) bootstrap.System { return sys }

	require.NoError(t, AgentRun(context.Background(), path, 0))
	assert.Empty(t, sys.commands)
	assert.Contains(t, logs.String(), "boot sequence complete")
	assert.FileExists(t, cfg.MetricsPath)
}

func TestAgentRun_StateFailure(t *testing.T) {
	saveAndRestoreFactories(t)
	path, _ := writeAgentConfig(t)

	sys := &stubSystem{files: map[string][]byte{}}
	agentLog = &bytes.Buffer{}
	newHostSystem = func(logr.Logger) bootstrap.System { return sys }

	err := AgentRun(context.Background(), path, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boot sequence failed")

	var stateErr *bootstrap.StateError
	require.True(t, errors.As(err, &stateErr))
	assert.Equal(t, bootstrap.StateOSPrep, stateErr.State)
}

func TestAgentRun_InvalidConfig(t *testing.T) {
	saveAndRestoreFactories(t)

	path := kstest.WriteFile(t, "agent.yaml", []byte("role: etcd\n"))
	err := AgentRun(context.Background(), path, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid agent config")
}

func TestAgentRun_DefaultConfigPath(t *testing.T) {
	saveAndRestoreFactories(t)

	var loaded string
	loadAgentConfig = func(path string) (*bootstrap.Config, error) {
		loaded = path
		return nil, errors.New("missing")
	}

	require.Error(t, AgentRun(context.Background(), "", 0))
	assert.Equal(t, bootstrap.DefaultConfigPath, loaded)
}
