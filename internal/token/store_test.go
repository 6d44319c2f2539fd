package token

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/imamik/kubestrap/internal/platform/s3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryObjects implements ObjectStorage in memory.
type memoryObjects struct {
	mu       sync.Mutex
	buckets  map[string]bool
	objects  map[string][]byte
	getError error
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (m *memoryObjects) EnsureBucket(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[bucket] = true
	return nil
}

func (m *memoryObjects) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getError != nil {
		return nil, m.getError
	}
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, s3.ErrObjectNotFound)
	}
	return data, nil
}

func (m *memoryObjects) PutObject(_ context.Context, bucket, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.buckets[bucket] {
		return errors.New("no such bucket")
	}
	m.objects[bucket+"/"+key] = data
	return nil
}

func (m *memoryObjects) DeleteObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+key)
	return nil
}

func TestEnsure_FileStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "kubestrap-state.yaml")
	store := NewFileStore(path)

	first, created, err := Ensure(ctx, store, "demo", false)
	require.NoError(t, err)
	assert.True(t, created)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, created, err := Ensure(ctx, store, "demo", false)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, again, "an existing token is reused without explicit rotation")

	rotated, created, err := Ensure(ctx, store, "demo", true)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first, rotated)

	set, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, set.Versions, 2)
	assert.Equal(t, first.String(), set.Versions[0].Token)
	assert.Equal(t, "demo", set.Cluster)

	current, err := set.CurrentToken()
	require.NoError(t, err)
	assert.Equal(t, rotated, current)
}

func TestEnsure_RejectsForeignCluster(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "state.yaml"))

	_, _, err := Ensure(ctx, store, "alpha", false)
	require.NoError(t, err)

	_, _, err = Ensure(ctx, store, "beta", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `belongs to cluster "alpha"`)
}

func TestFileStore_LoadMissing(t *testing.T) {
	t.Parallel()
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "state.yaml")
	require.NoError(t, os.WriteFile(path, []byte("versions:\n  - version: 1\n    token: nope\n"), 0o600))

	_, err := NewFileStore(path).Load(context.Background())
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = Ensure(context.Background(), NewFileStore(path), "demo", false)
	assert.Error(t, err)
}

func TestFileStore_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.yaml")
	store := NewFileStore(path)

	_, _, err := Ensure(ctx, store, "demo", false)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx), "deleting twice is fine")
}

func TestEnsure_S3Store(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	objects := newMemoryObjects()
	store := NewS3Store(objects, "kubestrap", "demo/kubestrap-state.yaml")

	first, created, err := Ensure(ctx, store, "demo", false)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, objects.buckets["kubestrap"])

	again, created, err := Ensure(ctx, store, "demo", false)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first, again)

	require.NoError(t, store.Delete(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Store_LoadError(t *testing.T) {
	t.Parallel()
	objects := newMemoryObjects()
	objects.getError = errors.New("access denied")
	store := NewS3Store(objects, "kubestrap", "demo/kubestrap-state.yaml")

	_, _, err := Ensure(context.Background(), store, "demo", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
