package compute

import (
	"io"
	"testing"

	"github.com/imamik/kubestrap/internal/config"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/provisioning/infrastructure"
	kstest "github.com/imamik/kubestrap/internal/testing"
	"github.com/imamik/kubestrap/internal/token"

	"github.com/stretchr/testify/require"
)

// newReadyContext returns a context whose infrastructure and join token
// are in place, as they are when the compute phase runs.
func newReadyContext(t *testing.T, cfg *config.Config, cloud *kstest.FakeCloud) *provisioning.Context {
	t.Helper()
	ctx := provisioning.NewContext(kstest.TestContext(t), cfg, cloud.Client(),
		provisioning.WithObserver(provisioning.NewConsoleObserverTo(io.Discard)))
	require.NoError(t, infrastructure.NewProvisioner().Provision(ctx))

	tok, err := token.Parse("abcdef.0123456789abcdef")
	require.NoError(t, err)
	ctx.State.Token = tok
	return ctx
}
