package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/imamik/kubestrap/internal/bootstrap"

	"github.com/go-logr/logr"
)

// Factory function variables for the node agent.
var (
	loadAgentConfig = bootstrap.LoadConfig

	newHostSystem = func(log logr.Logger) bootstrap.System {
		return bootstrap.NewHostSystem(log)
	}

	// agentLog receives the agent's log. cloud-init captures stderr.
	agentLog io.Writer = os.Stderr
)

// AgentRun runs the boot sequence of this node. It is what the user data
// of every server executes.
func AgentRun(ctx context.Context, configPath string, verbosity int) error {
	if configPath == "" {
		configPath = bootstrap.DefaultConfigPath
	}
	cfg, err := loadAgentConfig(configPath)
	if err != nil {
		return err
	}

	log := bootstrap.NewLogger(agentLog, verbosity)
	agent := bootstrap.New(cfg, newHostSystem(log), log)
	if err := agent.Run(ctx); err != nil {
		return fmt.Errorf("boot sequence failed: %w", err)
	}
	return nil
}
