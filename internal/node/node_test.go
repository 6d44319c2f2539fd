package node

import (
	"testing"

	"github.com/imamik/kubestrap/internal/util/labels"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	role, err := ParseRole("worker")
	require.NoError(t, err)
	assert.Equal(t, RoleWorker, role)

	role, err = ParseRole("control-plane")
	require.NoError(t, err)
	assert.Equal(t, RoleControlPlane, role)

	_, err = ParseRole("etcd")
	assert.Error(t, err)
}

func TestFromLabels(t *testing.T) {
	t.Parallel()

	id := Identity{Role: RoleWorker, Index: 3}
	l := id.Labels("demo")
	assert.Equal(t, "demo", l[labels.KeyCluster])

	got, err := FromLabels("demo-worker-3", 42, "10.0.2.13", "1.2.3.4", l)
	require.NoError(t, err)
	assert.Equal(t, Identity{
		Role:      RoleWorker,
		Index:     3,
		Name:      "demo-worker-3",
		ServerID:  42,
		PrivateIP: "10.0.2.13",
		PublicIP:  "1.2.3.4",
	}, got)
}

func TestFromLabels_Invalid(t *testing.T) {
	t.Parallel()

	_, err := FromLabels("x", 1, "", "", map[string]string{labels.KeyIndex: "0"})
	assert.ErrorContains(t, err, "unknown node role")

	_, err = FromLabels("x", 1, "", "", map[string]string{labels.KeyRole: "worker"})
	assert.ErrorContains(t, err, labels.KeyIndex)
}

func TestFilterAndSort(t *testing.T) {
	t.Parallel()

	nodes := []Identity{
		{Role: RoleWorker, Index: 2, Name: "w2"},
		{Role: RoleWorker, Index: 0, Name: "w0"},
		{Role: RoleControlPlane, Index: 0, Name: "cp"},
		{Role: RoleWorker, Index: 1, Name: "w1"},
	}

	Sort(nodes)
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"cp", "w0", "w1", "w2"}, names)

	assert.Len(t, Filter(nodes, RoleWorker), 3)
	assert.Len(t, Filter(nodes, RoleControlPlane), 1)
}
