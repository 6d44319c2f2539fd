// Package cloudflare publishes the cluster's API name as a DNS record.
//
// Only the few DNS endpoints the coordinator needs are implemented. Every
// record it writes carries OwnerComment so that destroy removes exactly
// the records of its cluster.
package cloudflare
