package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient creates a Client backed by a test HTTP server.
// The handler receives real S3 XML-protocol requests.
func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := s3.New(s3.Options{
		Region:       "fsn1",
		BaseEndpoint: aws.String(server.URL),
		UsePathStyle: true,
		Credentials:  credentials.NewStaticCredentialsProvider("test-key", "test-secret", ""),
		HTTPClient: &http.Client{
			Transport: &http.Transport{},
		},
	})

	return &Client{s3: client, region: "fsn1"}
}

// xmlResponse is a helper to write S3-style XML responses.
func xmlResponse(w http.ResponseWriter, statusCode int, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(body))
}

const noSuchKeyBody = `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>NoSuchKey</Code>
  <Message>The specified key does not exist.</Message>
</Error>`

// memoryBucket is a single-bucket in-memory S3 stand-in.
type memoryBucket struct {
	mu      sync.Mutex
	created bool
	objects map[string][]byte
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: make(map[string][]byte)}
}

func (b *memoryBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Path-style: /<bucket>[/<key>]
	parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch {
	case key == "" && r.Method == http.MethodHead:
		if !b.created {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case key == "" && r.Method == http.MethodPut:
		b.created = true
		xmlResponse(w, http.StatusOK, `<?xml version="1.0" encoding="UTF-8"?><CreateBucketResult/>`)
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		b.objects[key] = body
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet:
		data, ok := b.objects[key]
		if !ok {
			xmlResponse(w, http.StatusNotFound, noSuchKeyBody)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case r.Method == http.MethodDelete:
		delete(b.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	client, err := NewClient(context.Background(), "https://fsn1.your-objectstorage.com", "fsn1", "ak", "sk")
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "fsn1", client.region)

	client, err = NewClient(context.Background(), "", "eu-central-1", "", "")
	require.NoError(t, err)
	assert.Equal(t, "eu-central-1", client.region)
}

func TestEnsureBucket_CreatesMissingBucket(t *testing.T) {
	t.Parallel()

	bucket := newMemoryBucket()
	client := testClient(t, bucket)

	require.NoError(t, client.EnsureBucket(context.Background(), "state"))
	assert.True(t, bucket.created)

	// Second call only checks.
	require.NoError(t, client.EnsureBucket(context.Background(), "state"))
}

func TestEnsureBucket_AlreadyOwnedByYou(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		xmlResponse(w, http.StatusConflict, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>BucketAlreadyOwnedByYou</Code>
  <Message>Your previous request to create the named bucket succeeded and you already own it.</Message>
</Error>`)
	}))

	assert.NoError(t, client.EnsureBucket(context.Background(), "state"))
}

func TestEnsureBucket_Error(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		xmlResponse(w, http.StatusForbidden, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>AccessDenied</Code>
  <Message>Access Denied</Message>
</Error>`)
	}))

	err := client.EnsureBucket(context.Background(), "state")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create bucket state")
}

func TestObjectRoundTrip(t *testing.T) {
	t.Parallel()

	client := testClient(t, newMemoryBucket())
	ctx := context.Background()

	require.NoError(t, client.PutObject(ctx, "state", "demo/kubestrap-state.yaml", []byte("versions: []\n")))

	data, err := client.GetObject(ctx, "state", "demo/kubestrap-state.yaml")
	require.NoError(t, err)
	assert.True(t, bytes.Equal([]byte("versions: []\n"), data))

	require.NoError(t, client.DeleteObject(ctx, "state", "demo/kubestrap-state.yaml"))

	_, err = client.GetObject(ctx, "state", "demo/kubestrap-state.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestGetObject_OtherError(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		xmlResponse(w, http.StatusInternalServerError, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>InternalError</Code>
  <Message>We encountered an internal error.</Message>
</Error>`)
	}))

	_, err := client.GetObject(context.Background(), "state", "key")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrObjectNotFound))
	assert.Contains(t, err.Error(), "failed to get object key from bucket state")
}

func TestPutObject_Error(t *testing.T) {
	t.Parallel()

	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		xmlResponse(w, http.StatusForbidden, `<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>AccessDenied</Code>
  <Message>Access Denied</Message>
</Error>`)
	}))

	err := client.PutObject(context.Background(), "state", "key", []byte("data"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to put object key in bucket state")
}

func TestIsBucketAlreadyOwnedByYou(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"wrapped BucketAlreadyOwnedByYou", fmt.Errorf("outer: %w", &s3types.BucketAlreadyOwnedByYou{}), true},
		{"owned by someone else", fmt.Errorf("outer: %w", &s3types.BucketAlreadyExists{}), false},
		{"generic", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isBucketAlreadyOwnedByYou(tt.err))
		})
	}
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"wrapped NoSuchBucket", fmt.Errorf("outer: %w", &s3types.NoSuchBucket{}), true},
		{"wrapped NoSuchKey", fmt.Errorf("outer: %w", &s3types.NoSuchKey{}), true},
		{"wrapped NotFound", fmt.Errorf("outer: %w", &s3types.NotFound{}), true},
		{"generic", fmt.Errorf("outer: %w", errors.New("inner error")), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, isNotFoundError(tt.err))
		})
	}
}
