package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hetznercloud/hcloud-go/v2/hcloud/metadata"
)

// lookupPublicIP asks the server metadata service for the primary IPv4.
func lookupPublicIP(endpoint string) (string, error) {
	client := metadata.NewClient(
		metadata.WithEndpoint(endpoint),
		metadata.WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
	)
	ip, err := client.PublicIPv4()
	if err != nil {
		return "", fmt.Errorf("failed to query public IPv4 from metadata service: %w", err)
	}
	return ip.String(), nil
}
