package kubeconfig

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/imamik/kubestrap/internal/bootstrap"
	"github.com/imamik/kubestrap/internal/platform/ssh"
	"github.com/imamik/kubestrap/internal/util/retry"

	"k8s.io/client-go/tools/clientcmd"
)

// DefaultInterval is the readiness poll interval.
const DefaultInterval = 10 * time.Second

// Remote is the control plane as seen over SSH.
type Remote interface {
	Run(ctx context.Context, command string) (string, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)
	User() string
}

// Options tune readiness polling.
type Options struct {
	// Path of the admin kubeconfig on the node. Defaults to
	// bootstrap.AdminKubeconfigPath, where the agent's kubeadm init writes it.
	Path string
	// Interval between readiness checks. Defaults to DefaultInterval.
	Interval time.Duration
	// MaxAttempts bounds readiness checks. retry.Unlimited polls until ctx ends.
	MaxAttempts int
	// VerifyAPI additionally requires /readyz of the API server to answer.
	VerifyAPI bool
	// Notify is called after every failed readiness check.
	Notify func(attempt int, err error)
}

func (o Options) path() string {
	if o.Path == "" {
		return bootstrap.AdminKubeconfigPath
	}
	return o.Path
}

func (o Options) interval() time.Duration {
	if o.Interval <= 0 {
		return DefaultInterval
	}
	return o.Interval
}

// privileged prefixes a command with sudo unless the remote user is root.
func privileged(remote Remote, command string) string {
	if remote.User() == "root" {
		return command
	}
	return "sudo -n " + command
}

// WaitReady polls the node until the admin kubeconfig exists and is
// non-empty. Connection failures are retried. Rejected SSH credentials
// end the wait at once.
func WaitReady(ctx context.Context, remote Remote, opts Options) error {
	path := opts.path()
	check := func() error {
		if _, err := remote.Run(ctx, privileged(remote, "test -s "+path)); err != nil {
			return classify(fmt.Errorf("%s not ready: %w", path, err))
		}
		if opts.VerifyAPI {
			cmd := privileged(remote, "kubectl --kubeconfig "+path+" get --raw=/readyz")
			if _, err := remote.Run(ctx, cmd); err != nil {
				return classify(fmt.Errorf("API server not ready: %w", err))
			}
		}
		return nil
	}

	var notify []retry.Option
	if opts.Notify != nil {
		notify = append(notify, retry.WithNotify(opts.Notify))
	}
	if err := retry.Poll(ctx, opts.interval(), opts.MaxAttempts, check, notify...); err != nil {
		return fmt.Errorf("waiting for admin kubeconfig: %w", err)
	}
	return nil
}

func classify(err error) error {
	if errors.Is(err, ssh.ErrAuthentication) {
		return retry.Fatal(err)
	}
	return err
}

// Fetch copies the admin kubeconfig from the node: over SFTP as root,
// through `sudo cat` as any other user.
func Fetch(ctx context.Context, remote Remote, path string) ([]byte, error) {
	if path == "" {
		path = bootstrap.AdminKubeconfigPath
	}
	if remote.User() == "root" {
		data, err := remote.ReadFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
		}
		return data, nil
	}
	out, err := remote.Run(ctx, privileged(remote, "cat "+path))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	return []byte(out), nil
}

// Rewrite points the server URL of every cluster entry at host:port over
// https. The port kubeadm wrote is replaced, since the API load balancer
// may listen on a different port than kube-apiserver.
func Rewrite(raw []byte, host string, port int) ([]byte, error) {
	if host == "" {
		return nil, fmt.Errorf("API host is required")
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid API port %d", port)
	}
	hostPort := net.JoinHostPort(host, strconv.Itoa(port))
	cfg, err := clientcmd.Load(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kubeconfig: %w", err)
	}
	if len(cfg.Clusters) == 0 {
		return nil, fmt.Errorf("kubeconfig has no clusters")
	}

	for name, cluster := range cfg.Clusters {
		u, err := url.Parse(cluster.Server)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("cluster %s has an invalid server URL %q", name, cluster.Server)
		}
		u.Scheme = "https"
		u.Host = hostPort
		cluster.Server = u.String()
	}

	out, err := clientcmd.Write(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize kubeconfig: %w", err)
	}
	return out, nil
}

// Save writes the kubeconfig with owner-only permissions, creating parent
// directories as needed. The content goes to a temporary file in the same
// directory that is renamed over path, so the credentials are never
// readable by others and readers never see a partial file.
func Save(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory for kubeconfig: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".kubeconfig-*")
	if err != nil {
		return fmt.Errorf("failed to write kubeconfig: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	// CreateTemp already uses 0600; this guards against an unusual umask.
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to restrict kubeconfig permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write kubeconfig: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write kubeconfig: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write kubeconfig: %w", err)
	}
	return nil
}

// Retriever runs the whole retrieval against one control plane.
type Retriever struct {
	Remote  Remote
	Options Options
	// APIHost replaces the host of every cluster server URL.
	APIHost string
	// APIPort is the listen port of the API load balancer.
	APIPort int
	// OutputPath is where the kubeconfig is saved.
	OutputPath string
}

// Retrieve waits for the control plane, then fetches, rewrites and saves
// the admin kubeconfig. It returns the saved content.
func (r *Retriever) Retrieve(ctx context.Context) ([]byte, error) {
	if err := WaitReady(ctx, r.Remote, r.Options); err != nil {
		return nil, err
	}
	raw, err := Fetch(ctx, r.Remote, r.Options.path())
	if err != nil {
		return nil, err
	}
	rewritten, err := Rewrite(raw, r.APIHost, r.APIPort)
	if err != nil {
		return nil, err
	}
	if err := Save(r.OutputPath, rewritten); err != nil {
		return nil, err
	}
	return rewritten, nil
}
