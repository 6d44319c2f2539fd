package config

import (
	"fmt"
	"net"

	"github.com/apparentlymart/go-cidr/cidr"
)

// parseIPv4Prefix parses prefix and rejects IPv6 networks, which the
// cluster network does not support.
func parseIPv4Prefix(prefix string) (*net.IPNet, error) {
	_, network, err := net.ParseCIDR(prefix)
	if err != nil {
		return nil, fmt.Errorf("invalid CIDR prefix: %w", err)
	}
	if network.IP.To4() == nil {
		return nil, fmt.Errorf("only IPv4 addresses are supported, got IPv6: %s", prefix)
	}
	return network, nil
}

// CIDRSubnet returns subnet netnum of prefix after extending its mask by
// newbits, like Terraform's cidrsubnet.
func CIDRSubnet(prefix string, newbits int, netnum int) (string, error) {
	network, err := parseIPv4Prefix(prefix)
	if err != nil {
		return "", err
	}
	subnet, err := cidr.Subnet(network, newbits, netnum)
	if err != nil {
		return "", fmt.Errorf("no subnet %d of %s with %d new bits: %w", netnum, prefix, newbits, err)
	}
	return subnet.String(), nil
}

// CIDRHost returns address hostnum of prefix, like Terraform's cidrhost.
// Negative numbers count back from the broadcast address, which is -1.
func CIDRHost(prefix string, hostnum int) (string, error) {
	network, err := parseIPv4Prefix(prefix)
	if err != nil {
		return "", err
	}
	ip, err := cidr.Host(network, hostnum)
	if err != nil {
		return "", fmt.Errorf("no host %d in %s: %w", hostnum, prefix, err)
	}
	return ip.String(), nil
}

// cidrsOverlap reports whether two valid networks share addresses.
// Unparseable input never overlaps.
func cidrsOverlap(a, b string) bool {
	_, na, errA := net.ParseCIDR(a)
	_, nb, errB := net.ParseCIDR(b)
	if errA != nil || errB != nil {
		return false
	}
	return na.Contains(nb.IP) || nb.Contains(na.IP)
}
