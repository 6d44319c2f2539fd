package provisioning

import (
	"fmt"

	"github.com/imamik/kubestrap/internal/token"
)

// CredentialsPhase makes sure the cluster has a join token before any
// boot script is rendered.
type CredentialsPhase struct{}

// NewCredentialsPhase creates the join token phase.
func NewCredentialsPhase() *CredentialsPhase {
	return &CredentialsPhase{}
}

// Name implements the Phase interface.
func (p *CredentialsPhase) Name() string {
	return "credentials"
}

// Provision loads the current join token, generating the first version
// when none exists and a new version when rotation was requested.
func (p *CredentialsPhase) Provision(ctx *Context) error {
	if ctx.Tokens == nil {
		return fmt.Errorf("no token store configured")
	}

	tok, created, err := token.Ensure(ctx, ctx.Tokens, ctx.Config.ClusterName, ctx.RotateToken)
	if err != nil {
		return fmt.Errorf("failed to ensure join token: %w", err)
	}
	ctx.State.Token = tok
	ctx.State.TokenCreated = created

	if created {
		LogResourceCreated(ctx.Observer, p.Name(), "join token", ctx.Config.ClusterName, tok.ID())
	} else {
		LogResourceExists(ctx.Observer, p.Name(), "join token", ctx.Config.ClusterName, tok.ID())
	}
	return nil
}
