package provisioning

import (
	"context"
	"log"

	"github.com/imamik/kubestrap/internal/kubeconfig"
	"github.com/imamik/kubestrap/internal/platform/cloudflare"
)

// Phase defines the interface for a provisioning phase.
type Phase interface {
	// Name returns the human-readable name of this phase.
	Name() string

	// Provision executes the provisioning logic for this phase.
	Provision(ctx *Context) error
}

// Logger is the printf style logging every phase uses.
type Logger interface {
	Printf(format string, v ...interface{})
}

// DefaultLogger logs through the standard logger.
type DefaultLogger struct{}

// Printf implements Logger.
func (l *DefaultLogger) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// DNSPublisher publishes the API name. Implemented by cloudflare.Client.
type DNSPublisher interface {
	GetZoneID(ctx context.Context, domain string) (string, error)
	UpsertARecord(ctx context.Context, zoneID, name, ip, clusterName string) (*cloudflare.Record, error)
	CleanupClusterRecords(ctx context.Context, zoneID, clusterName string) (int, error)
}

// RemoteDialer opens the remote execution channel to a node.
type RemoteDialer interface {
	Dial(host string) (kubeconfig.Remote, error)
}

// RemoteDialerFunc adapts a function to RemoteDialer.
type RemoteDialerFunc func(host string) (kubeconfig.Remote, error)

// Dial implements RemoteDialer.
func (f RemoteDialerFunc) Dial(host string) (kubeconfig.Remote, error) {
	return f(host)
}
