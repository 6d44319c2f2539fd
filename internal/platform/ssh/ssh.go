package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
)

// ErrAuthentication means the server rejected the client's credentials.
var ErrAuthentication = errors.New("ssh authentication failed")

// Config holds SSH client configuration.
type Config struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// DialTimeout bounds the TCP connect and handshake.
	// If zero, defaultDialTimeout is used.
	DialTimeout time.Duration

	// HostKeyCallback handles host key verification.
	// If nil, ssh.InsecureIgnoreHostKey() is used.
	HostKeyCallback ssh.HostKeyCallback
}

// Client runs commands on one remote host.
// It parses the private key once during construction and
// creates a connection per call.
type Client struct {
	config *Config
	signer ssh.Signer
}

// NewClient creates a new SSH client and validates the private key.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("config host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("config user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("config private key cannot be empty")
	}

	// Copy config to avoid mutating caller's struct
	configCopy := *cfg
	if configCopy.Port == 0 {
		configCopy.Port = defaultPort
	}
	if configCopy.DialTimeout == 0 {
		configCopy.DialTimeout = defaultDialTimeout
	}
	if configCopy.HostKeyCallback == nil {
		configCopy.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // servers are created fresh by kubestrap
	}

	signer, err := ssh.ParsePrivateKey(configCopy.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Client{
		config: &configCopy,
		signer: signer,
	}, nil
}

// Host returns the address the client connects to.
func (c *Client) Host() string {
	return c.config.Host
}

// User returns the login user.
func (c *Client) User() string {
	return c.config.User
}

// Run executes a command on the remote host and returns its combined
// output. A non-zero exit status is returned as *CommandError.
func (c *Client) Run(ctx context.Context, command string) (string, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create SSH session on %s: %w", c.config.Host, err)
	}
	defer func() { _ = session.Close() }()

	stop := closeOnDone(ctx, client)
	defer stop()

	output, err := session.CombinedOutput(command)
	if err != nil {
		if ctx.Err() != nil {
			return string(output), ctx.Err()
		}
		return string(output), &CommandError{Host: c.config.Host, Command: command, Output: string(output), Err: err}
	}
	return string(output), nil
}

// ReadFile reads a remote file over SFTP.
func (c *Client) ReadFile(ctx context.Context, path string) ([]byte, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Close() }()

	stop := closeOnDone(ctx, client)
	defer stop()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return nil, fmt.Errorf("failed to start SFTP session on %s: %w", c.config.Host, err)
	}
	defer func() { _ = sftpClient.Close() }()

	f, err := sftpClient.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s on %s: %w", path, c.config.Host, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("failed to read %s on %s: %w", path, c.config.Host, err)
	}
	return data, nil
}

// connect dials the host once, honoring ctx and the dial timeout.
func (c *Client) connect(ctx context.Context) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(c.signer)},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}
	addr := net.JoinHostPort(c.config.Host, strconv.Itoa(c.config.Port))

	dialCtx, cancel := context.WithTimeout(ctx, c.config.DialTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	if deadline, ok := dialCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		_ = conn.Close()
		if isAuthError(err) {
			return nil, fmt.Errorf("%w as %s on %s: %w", ErrAuthentication, c.config.User, addr, err)
		}
		return nil, fmt.Errorf("SSH handshake with %s failed: %w", addr, err)
	}
	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(sshConn, chans, reqs), nil
}

// closeOnDone closes the connection when ctx ends, unblocking a running
// session. The returned func stops the watcher.
func closeOnDone(ctx context.Context, client *ssh.Client) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// x/crypto/ssh reports rejected credentials only through the error text.
func isAuthError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain")
}

// CommandError is returned when a remote command exits unsuccessfully.
type CommandError struct {
	Host    string
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("command %q failed on %s: %v", e.Command, e.Host, e.Err)
	}
	return fmt.Sprintf("command %q failed on %s: %v: %s", e.Command, e.Host, e.Err, out)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitStatus returns the remote exit code, or -1 when the command did not
// exit normally.
func (e *CommandError) ExitStatus() int {
	var exitErr *ssh.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitStatus()
	}
	return -1
}
