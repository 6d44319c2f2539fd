package kubeconfig

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/imamik/kubestrap/internal/bootstrap"
	"github.com/imamik/kubestrap/internal/platform/ssh"
	kstest "github.com/imamik/kubestrap/internal/testing"
	"github.com/imamik/kubestrap/internal/util/keygen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cryptossh "golang.org/x/crypto/ssh"
)

func TestRetriever_OverSSH(t *testing.T) {
	kp, err := keygen.GenerateRSAKeyPair(2048, "")
	require.NoError(t, err)
	pub, _, _, _, err := cryptossh.ParseAuthorizedKey(kp.PublicKey)
	require.NoError(t, err)

	server := kstest.NewSSHServer(t, pub)
	var booted atomic.Bool
	server.HandleExec(func(_, command string) (string, int) {
		if !booted.Load() {
			return "", 1
		}
		return "ok", 0
	})

	client, err := ssh.NewClient(&ssh.Config{
		Host:       server.Host,
		Port:       server.Port,
		User:       "root",
		PrivateKey: kp.PrivateKey,
	})
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "kubeconfig")
	r := &Retriever{
		Remote: client,
		Options: Options{
			Interval:  10 * time.Millisecond,
			VerifyAPI: true,
			Notify: func(attempt int, _ error) {
				if attempt == 3 {
					server.PutFile(bootstrap.AdminKubeconfigPath, []byte(adminConf))
					booted.Store(true)
				}
			},
		},
		APIHost:    "api.example.com",
		APIPort:    6443,
		OutputPath: out,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	saved, err := r.Retrieve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com:6443", serverOf(t, saved))

	onDisk, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, saved, onDisk)

	assert.Contains(t, server.Commands(), "kubectl --kubeconfig /etc/kubernetes/admin.conf get --raw=/readyz")
}
