package testing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/imamik/kubestrap/internal/util/keygen"

	"golang.org/x/crypto/ssh"
)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t testing.TB) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// WriteFile writes data below t.TempDir() and returns the path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// SSHKeyPair generates a key pair and writes the private key to a file.
// It returns the file path and the public key.
func SSHKeyPair(t testing.TB) (string, ssh.PublicKey) {
	t.Helper()
	kp, err := keygen.GenerateRSAKeyPair(2048, "")
	if err != nil {
		t.Fatalf("failed to generate SSH key: %v", err)
	}
	pub, _, _, _, err := ssh.ParseAuthorizedKey(kp.PublicKey)
	if err != nil {
		t.Fatalf("failed to parse public key: %v", err)
	}
	return WriteFile(t, "id_rsa", kp.PrivateKey), pub
}
