package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/token"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserdata_Worker(t *testing.T) {
	output := saveAndRestoreFactories(t)
	cfg := testConfig(t)
	seedTokens(t, cfg.State.Path, token.Version{Version: 1, Token: "abcdef.0123456789abcdef", CreatedAt: time.Now()})

	newInfraClient = func(string) hcloud_internal.InfrastructureManager {
		return &hcloud_internal.MockClient{}
	}

	require.NoError(t, Userdata(context.Background(), "", "worker", 1))

	got := output.String()
	assert.Contains(t, got, "#cloud-config")
	assert.Contains(t, got, "agent run --config")
	assert.Contains(t, got, "test-cluster-worker-1")
	assert.Contains(t, got, "abcdef.0123456789abcdef")
}

func TestUserdata_ControlPlaneUsesLoadBalancerName(t *testing.T) {
	output := saveAndRestoreFactories(t)
	cfg := testConfig(t)
	seedTokens(t, cfg.State.Path, token.Version{Version: 1, Token: "abcdef.0123456789abcdef", CreatedAt: time.Now()})

	var lookedUp string
	newInfraClient = func(string) hcloud_internal.InfrastructureManager {
		return &hcloud_internal.MockClient{
			GetLoadBalancerFunc: func(_ context.Context, name string) (*hcloud.LoadBalancer, error) {
				lookedUp = name
				lb := &hcloud.LoadBalancer{ID: 7, Name: name}
				lb.PublicNet.IPv4.IP = []byte{203, 0, 113, 10}
				return lb, nil
			},
		}
	}

	require.NoError(t, Userdata(context.Background(), "", "control-plane", 0))
	assert.Equal(t, "test-cluster-kube-api", lookedUp)
	assert.Contains(t, output.String(), "203.0.113.10")
}

func TestUserdata_InvalidArguments(t *testing.T) {
	saveAndRestoreFactories(t)
	testConfig(t)

	tests := []struct {
		name  string
		role  string
		index int
		want  string
	}{
		{"unknown role", "etcd", 0, "--role"},
		{"negative index", "worker", -1, "negative"},
		{"control plane index", "control-plane", 1, "index 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Userdata(context.Background(), "", tt.role, tt.index)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestUserdata_NoToken(t *testing.T) {
	saveAndRestoreFactories(t)
	testConfig(t)

	err := Userdata(context.Background(), "", "worker", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kubestrap token rotate")
}

func TestUserdata_LoadBalancerLookupError(t *testing.T) {
	saveAndRestoreFactories(t)
	cfg := testConfig(t)
	seedTokens(t, cfg.State.Path, token.Version{Version: 1, Token: "abcdef.0123456789abcdef", CreatedAt: time.Now()})

	newInfraClient = func(string) hcloud_internal.InfrastructureManager {
		return &hcloud_internal.MockClient{
			GetLoadBalancerFunc: func(context.Context, string) (*hcloud.LoadBalancer, error) {
				return nil, errors.New("unauthorized")
			},
		}
	}

	err := Userdata(context.Background(), "", "worker", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API load balancer")
}
