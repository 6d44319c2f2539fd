package provisioning

import (
	"context"

	"github.com/imamik/kubestrap/internal/config"
	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/token"
)

// Context wraps all dependencies and state needed for a provisioning phase.
type Context struct {
	context.Context
	Config   *config.Config
	State    *State
	Infra    hcloud_internal.InfrastructureManager
	Observer Observer
	Logger   Logger
	Timeouts *config.Timeouts

	// Tokens persists the join token set.
	Tokens token.Store
	// RotateToken appends a new token version instead of reusing the current one.
	RotateToken bool
	// DNS publishes the API name; nil disables publishing.
	DNS DNSPublisher
	// Dialer reaches nodes for credential retrieval.
	Dialer RemoteDialer
}

// Option configures a Context.
type Option func(*Context)

// WithObserver replaces the console observer.
func WithObserver(o Observer) Option {
	return func(c *Context) {
		c.Observer = o
		c.Logger = o
	}
}

// WithTokenStore sets where the join token set lives.
func WithTokenStore(s token.Store) Option {
	return func(c *Context) {
		c.Tokens = s
	}
}

// WithTokenRotation requests a new join token version.
func WithTokenRotation(rotate bool) Option {
	return func(c *Context) {
		c.RotateToken = rotate
	}
}

// WithDNS enables publishing of the API name.
func WithDNS(p DNSPublisher) Option {
	return func(c *Context) {
		c.DNS = p
	}
}

// WithDialer sets how nodes are reached.
func WithDialer(d RemoteDialer) Option {
	return func(c *Context) {
		c.Dialer = d
	}
}

// WithTimeouts overrides the timeouts loaded from the environment.
func WithTimeouts(t *config.Timeouts) Option {
	return func(c *Context) {
		c.Timeouts = t
	}
}

// NewContext creates a new provisioning context.
func NewContext(
	ctx context.Context,
	cfg *config.Config,
	infra hcloud_internal.InfrastructureManager,
	opts ...Option,
) *Context {
	observer := NewConsoleObserver()
	c := &Context{
		Context:  ctx,
		Config:   cfg,
		State:    NewState(),
		Infra:    infra,
		Observer: observer,
		Logger:   observer,
		Timeouts: config.LoadTimeouts(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
