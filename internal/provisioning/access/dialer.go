package access

import (
	"fmt"
	"os"
	"time"

	"github.com/imamik/kubestrap/internal/config"
	"github.com/imamik/kubestrap/internal/kubeconfig"
	"github.com/imamik/kubestrap/internal/platform/ssh"
	"github.com/imamik/kubestrap/internal/util/netutil"
)

// SSHDialer opens SSH connections to nodes with one private key.
type SSHDialer struct {
	User        string
	Port        int
	PrivateKey  []byte
	DialTimeout time.Duration
}

// NewSSHDialer reads the private key configured in ssh.private_key_path.
func NewSSHDialer(cfg *config.Config, timeouts *config.Timeouts) (*SSHDialer, error) {
	if cfg.SSH.PrivateKeyPath == "" {
		return nil, fmt.Errorf("ssh.private_key_path is required to reach the control plane")
	}
	key, err := os.ReadFile(cfg.SSH.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read SSH private key: %w", err)
	}
	d := &SSHDialer{
		User:       cfg.SSH.User,
		Port:       netutil.SSHPort,
		PrivateKey: key,
	}
	if timeouts != nil {
		d.DialTimeout = timeouts.SSHDial
	}
	return d, nil
}

// Dial implements provisioning.RemoteDialer. No connection is made until
// the first command runs.
func (d *SSHDialer) Dial(host string) (kubeconfig.Remote, error) {
	return ssh.NewClient(&ssh.Config{
		Host:        host,
		Port:        d.Port,
		User:        d.User,
		PrivateKey:  d.PrivateKey,
		DialTimeout: d.DialTimeout,
	})
}
