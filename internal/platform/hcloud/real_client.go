package hcloud

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/imamik/kubestrap/internal/config"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

const publicIPEndpoint = "https://ipv4.icanhazip.com"

// RealClient implements InfrastructureManager using the Hetzner Cloud API.
type RealClient struct {
	client     *hcloud.Client
	timeouts   *config.Timeouts
	httpClient *http.Client
	ipEndpoint string
	logf       func(format string, args ...any)
}

// ClientOption configures a RealClient.
type ClientOption func(*RealClient)

// WithTimeouts sets custom timeouts for the client.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *RealClient) {
		c.timeouts = t
	}
}

// WithHTTPClient sets a custom HTTP client for external requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *RealClient) {
		c.httpClient = hc
	}
}

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *RealClient) {
		c.client = hc
	}
}

// WithPublicIPEndpoint overrides the service GetPublicIP asks.
func WithPublicIPEndpoint(url string) ClientOption {
	return func(c *RealClient) {
		c.ipEndpoint = url
	}
}

// WithLogger routes progress messages of long operations such as cleanup.
func WithLogger(logf func(format string, args ...any)) ClientOption {
	return func(c *RealClient) {
		c.logf = logf
	}
}

// NewRealClient creates a new RealClient with optional configuration.
func NewRealClient(token string, opts ...ClientOption) *RealClient {
	c := &RealClient{
		client:     hcloud.NewClient(hcloud.WithToken(token), hcloud.WithApplication("kubestrap", "")),
		timeouts:   config.LoadTimeouts(),
		httpClient: http.DefaultClient,
		ipEndpoint: publicIPEndpoint,
		logf:       log.Printf,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HCloudClient returns the underlying hcloud.Client.
func (c *RealClient) HCloudClient() *hcloud.Client {
	return c.client
}

// GetPublicIP returns the public IPv4 address of the host.
func (c *RealClient) GetPublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ipEndpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to look up public IP: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to look up public IP: %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", err
	}
	ip := strings.TrimSpace(string(body))
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("public IP service returned %q", ip)
	}
	return ip, nil
}
