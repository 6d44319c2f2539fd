package handlers

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/imamik/kubestrap/internal/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedTokens(t *testing.T, path string, versions ...token.Version) {
	t.Helper()
	set := &token.Set{Cluster: "test-cluster", Versions: versions}
	require.NoError(t, token.NewFileStore(path).Save(context.Background(), set))
}

func TestTokenShow_RedactsByDefault(t *testing.T) {
	output := saveAndRestoreFactories(t)
	cfg := testConfig(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	seedTokens(t, cfg.State.Path,
		token.Version{Version: 1, Token: "abcdef.0123456789abcdef", CreatedAt: created},
		token.Version{Version: 2, Token: "ghijkl.0123456789abcdef", CreatedAt: created.Add(time.Hour)},
	)

	require.NoError(t, TokenShow(context.Background(), "", false))

	got := output.String()
	assert.Contains(t, got, "VERSION")
	assert.Contains(t, got, "abcdef.****************")
	assert.Contains(t, got, "ghijkl.****************")
	assert.Contains(t, got, "2024-05-01T13:00:00Z")
	assert.Contains(t, got, "current")
	assert.NotContains(t, got, "0123456789abcdef")
}

func TestTokenShow_Reveal(t *testing.T) {
	output := saveAndRestoreFactories(t)
	cfg := testConfig(t)
	seedTokens(t, cfg.State.Path, token.Version{Version: 1, Token: "abcdef.0123456789abcdef", CreatedAt: time.Now()})

	require.NoError(t, TokenShow(context.Background(), "", true))
	assert.Contains(t, output.String(), "abcdef.0123456789abcdef")
}

func TestTokenShow_NoTokenYet(t *testing.T) {
	saveAndRestoreFactories(t)
	testConfig(t)

	err := TokenShow(context.Background(), "", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kubestrap apply")
}

func TestTokenRotate(t *testing.T) {
	output := saveAndRestoreFactories(t)
	cfg := testConfig(t)
	seedTokens(t, cfg.State.Path, token.Version{Version: 1, Token: "abcdef.0123456789abcdef", CreatedAt: time.Now()})

	require.NoError(t, TokenRotate(context.Background(), ""))

	set, err := token.NewFileStore(cfg.State.Path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, set.Versions, 2)
	current, err := set.CurrentToken()
	require.NoError(t, err)
	assert.NotEqual(t, "abcdef.0123456789abcdef", current.String())

	got := output.String()
	assert.Contains(t, got, current.Redacted())
	assert.Contains(t, got, "kubeadm token create "+current.String()+" --ttl 0")
}

func TestTokenRotate_CreatesFirstVersion(t *testing.T) {
	saveAndRestoreFactories(t)
	cfg := testConfig(t)

	require.NoError(t, TokenRotate(context.Background(), ""))

	_, err := os.Stat(cfg.State.Path)
	require.NoError(t, err)
	set, err := token.NewFileStore(cfg.State.Path).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, set.Versions, 1)
}
