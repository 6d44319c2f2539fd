package token

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/imamik/kubestrap/internal/platform/s3"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Store.Load when no token set exists yet.
var ErrNotFound = errors.New("token set not found")

// Store persists a cluster's token set.
type Store interface {
	Load(ctx context.Context) (*Set, error)
	Save(ctx context.Context, set *Set) error
	Delete(ctx context.Context) error
}

// ObjectStorage is the subset of the S3 client used by S3Store.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context, bucket string) error
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	PutObject(ctx context.Context, bucket, key string, data []byte) error
	DeleteObject(ctx context.Context, bucket, key string) error
}

// Ensure returns the current token of the cluster, creating version 1 when
// the store is empty. With rotate, a new version is appended even when one
// exists. The boolean reports whether a new token was created.
func Ensure(ctx context.Context, store Store, clusterName string, rotate bool) (Token, bool, error) {
	set, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		set = &Set{Cluster: clusterName}
	case err != nil:
		return Token{}, false, fmt.Errorf("failed to load token set: %w", err)
	}

	if set.Cluster != "" && set.Cluster != clusterName {
		return Token{}, false, fmt.Errorf("token set belongs to cluster %q, not %q", set.Cluster, clusterName)
	}
	set.Cluster = clusterName

	if _, ok := set.Current(); ok && !rotate {
		tok, err := set.CurrentToken()
		if err != nil {
			return Token{}, false, fmt.Errorf("stored token is unusable: %w", err)
		}
		return tok, false, nil
	}

	tok, err := Generate()
	if err != nil {
		return Token{}, false, err
	}
	set.Append(tok, time.Now())
	if err := store.Save(ctx, set); err != nil {
		return Token{}, false, fmt.Errorf("failed to save token set: %w", err)
	}
	return tok, true, nil
}

func decodeSet(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse token set: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

func encodeSet(set *Set) ([]byte, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	data, err := yaml.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token set: %w", err)
	}
	return data, nil
}

// FileStore keeps the token set in a local YAML file readable only by
// its owner.
type FileStore struct {
	Path string
}

// NewFileStore returns a FileStore at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the token set.
func (f *FileStore) Load(_ context.Context) (*Set, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
	}
	return decodeSet(data)
}

// Save writes the token set atomically with mode 0600.
func (f *FileStore) Save(_ context.Context, set *Set) error {
	data, err := encodeSet(set)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".kubestrap-state-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write token set: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write token set: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", f.Path, err)
	}
	return nil
}

// Delete removes the file. A missing file is not an error.
func (f *FileStore) Delete(_ context.Context) error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", f.Path, err)
	}
	return nil
}

// S3Store keeps the token set as a single object.
type S3Store struct {
	Client ObjectStorage
	Bucket string
	Key    string
}

// NewS3Store returns an S3Store for key in bucket.
func NewS3Store(client ObjectStorage, bucket, key string) *S3Store {
	return &S3Store{Client: client, Bucket: bucket, Key: key}
}

// Load downloads the token set.
func (s *S3Store) Load(ctx context.Context) (*Set, error) {
	data, err := s.Client.GetObject(ctx, s.Bucket, s.Key)
	if err != nil {
		if errors.Is(err, s3.ErrObjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeSet(data)
}

// Save uploads the token set, creating the bucket when needed.
func (s *S3Store) Save(ctx context.Context, set *Set) error {
	data, err := encodeSet(set)
	if err != nil {
		return err
	}
	if err := s.Client.EnsureBucket(ctx, s.Bucket); err != nil {
		return err
	}
	return s.Client.PutObject(ctx, s.Bucket, s.Key, data)
}

// Delete removes the object.
func (s *S3Store) Delete(ctx context.Context) error {
	return s.Client.DeleteObject(ctx, s.Bucket, s.Key)
}
