package infrastructure

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/imamik/kubestrap/internal/config"
	"github.com/imamik/kubestrap/internal/platform/cloudflare"
	"github.com/imamik/kubestrap/internal/provisioning"
	kstest "github.com/imamik/kubestrap/internal/testing"
)

func newTestContext(t *testing.T, cfg *config.Config, cloud *kstest.FakeCloud, opts ...provisioning.Option) *provisioning.Context {
	t.Helper()
	opts = append([]provisioning.Option{
		provisioning.WithObserver(provisioning.NewConsoleObserverTo(io.Discard)),
	}, opts...)
	return provisioning.NewContext(kstest.TestContext(t), cfg, cloud.Client(), opts...)
}

type fakeDNS struct {
	zones   map[string]string
	records map[string]string
	upserts int
}

func newFakeDNS() *fakeDNS {
	return &fakeDNS{
		zones:   map[string]string{"example.com": "zone-1"},
		records: map[string]string{},
	}
}

func (d *fakeDNS) GetZoneID(_ context.Context, domain string) (string, error) {
	id, ok := d.zones[domain]
	if !ok {
		return "", fmt.Errorf("no zone found for domain %s", domain)
	}
	return id, nil
}

func (d *fakeDNS) UpsertARecord(_ context.Context, zoneID, name, ip, clusterName string) (*cloudflare.Record, error) {
	d.upserts++
	d.records[name] = ip
	return &cloudflare.Record{ID: "rec-1", Type: "A", Name: name, Content: ip, Comment: cloudflare.OwnerComment(clusterName)}, nil
}

func (d *fakeDNS) CleanupClusterRecords(_ context.Context, _, _ string) (int, error) {
	n := len(d.records)
	d.records = map[string]string{}
	return n, nil
}
