// Package netutil provides network utility functions for port checking and network operations.
package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/imamik/kubestrap/internal/util/retry"
)

// SSHPort is the port node agents and kubeconfig retrieval reach nodes on.
const SSHPort = 22

const (
	pollInterval = time.Second
	dialTimeout  = 2 * time.Second
)

// WaitForPort waits for a TCP port to be open on the target host.
// It checks once per second until the port accepts a connection or the
// timeout is reached. A zero timeout waits until ctx is done.
func WaitForPort(ctx context.Context, host string, port int, timeout time.Duration, opts ...retry.Option) error {
	address := net.JoinHostPort(host, strconv.Itoa(port))

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var dialer net.Dialer
	err := retry.Poll(ctx, pollInterval, retry.Unlimited, func() error {
		dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
		defer cancel()
		conn, err := dialer.DialContext(dialCtx, "tcp", address)
		if err != nil {
			return err
		}
		return conn.Close()
	}, opts...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timeout waiting for %s: %w", address, err)
		}
		return fmt.Errorf("waiting for %s: %w", address, err)
	}
	return nil
}
