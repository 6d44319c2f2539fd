package handlers

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/imamik/kubestrap/internal/config"
	"github.com/imamik/kubestrap/internal/platform/s3"
	"github.com/imamik/kubestrap/internal/provisioning"
	kstest "github.com/imamik/kubestrap/internal/testing"
	"github.com/imamik/kubestrap/internal/util/prerequisites"
)

// saveAndRestoreFactories saves all factory functions and restores them
// when the test finishes. Output is captured into the returned buffer.
func saveAndRestoreFactories(t *testing.T) *bytes.Buffer {
	t.Helper()

	origInfraClient := newInfraClient
	origReconciler := newReconciler
	origDNSPublisher := newDNSPublisher
	origDialer := newDialer
	origObjectStorage := newObjectStorage
	origLoadConfigFile := loadConfigFile
	origLoadTimeouts := loadTimeouts
	origCheckPrereqs := checkDefaultPrereqs
	origOut := out
	origReadKubeconfig := readKubeconfig
	origKubeClient := newKubeClient
	origInteractive := isInteractiveTTY
	origFileExists := fileExists
	origConfirmOverwrite := confirmOverwrite
	origRunWizard := runWizard
	origWriteConfig := writeConfig
	origGenerateKeyPair := generateKeyPair
	origLoadAgentConfig := loadAgentConfig
	origHostSystem := newHostSystem
	origAgentLog := agentLog

	t.Cleanup(func() {
		newInfraClient = origInfraClient
		newReconciler = origReconciler
		newDNSPublisher = origDNSPublisher
		newDialer = origDialer
		newObjectStorage = origObjectStorage
		loadConfigFile = origLoadConfigFile
		loadTimeouts = origLoadTimeouts
		checkDefaultPrereqs = origCheckPrereqs
		out = origOut
		readKubeconfig = origReadKubeconfig
		newKubeClient = origKubeClient
		isInteractiveTTY = origInteractive
		fileExists = origFileExists
		confirmOverwrite = origConfirmOverwrite
		runWizard = origRunWizard
		writeConfig = origWriteConfig
		generateKeyPair = origGenerateKeyPair
		loadAgentConfig = origLoadAgentConfig
		newHostSystem = origHostSystem
		agentLog = origAgentLog
	})

	checkDefaultPrereqs = func() *prerequisites.CheckResults {
		return &prerequisites.CheckResults{}
	}
	var buf bytes.Buffer
	out = &buf
	return &buf
}

// testConfig returns a config whose token set and kubeconfig live in a
// temporary directory, and makes loadConfigFile return it.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := kstest.NewConfigBuilder().
		WithStatePath(dir + "/state.yaml").
		WithKubeconfigPath(dir + "/kubeconfig").
		Build()
	loadConfigFile = func(string) (*config.Config, error) {
		return cfg, nil
	}
	return cfg
}

// mockReconciler implements Reconciler with optional Func fields.
type mockReconciler struct {
	ApplyFunc      func(ctx context.Context, opts ...provisioning.Option) (*provisioning.State, error)
	KubeconfigFunc func(ctx context.Context, opts ...provisioning.Option) (*provisioning.State, error)
	LookupFunc     func(ctx context.Context, opts ...provisioning.Option) (*provisioning.State, error)
	DestroyFunc    func(ctx context.Context, opts ...provisioning.Option) error
}

func (m *mockReconciler) Apply(ctx context.Context, opts ...provisioning.Option) (*provisioning.State, error) {
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, opts...)
	}
	return provisioning.NewState(), nil
}

func (m *mockReconciler) Kubeconfig(ctx context.Context, opts ...provisioning.Option) (*provisioning.State, error) {
	if m.KubeconfigFunc != nil {
		return m.KubeconfigFunc(ctx, opts...)
	}
	return provisioning.NewState(), nil
}

func (m *mockReconciler) Lookup(ctx context.Context, opts ...provisioning.Option) (*provisioning.State, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, opts...)
	}
	return provisioning.NewState(), nil
}

func (m *mockReconciler) Destroy(ctx context.Context, opts ...provisioning.Option) error {
	if m.DestroyFunc != nil {
		return m.DestroyFunc(ctx, opts...)
	}
	return nil
}

// memObjectStorage is an in-memory token.ObjectStorage.
type memObjectStorage struct {
	mu      sync.Mutex
	buckets map[string]bool
	objects map[string][]byte
}

func newMemObjectStorage() *memObjectStorage {
	return &memObjectStorage{buckets: map[string]bool{}, objects: map[string][]byte{}}
}

func (m *memObjectStorage) EnsureBucket(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets[bucket] = true
	return nil
}

func (m *memObjectStorage) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, s3.ErrObjectNotFound
	}
	return data, nil
}

func (m *memObjectStorage) PutObject(_ context.Context, bucket, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	return nil
}

func (m *memObjectStorage) DeleteObject(_ context.Context, bucket, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, bucket+"/"+key)
	return nil
}
