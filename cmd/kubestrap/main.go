// Package main is the entry point for the kubestrap CLI.
//
// kubestrap provisions a kubeadm cluster of one control plane and a pool of
// workers on Hetzner Cloud. The same binary runs on every node as the
// bootstrap agent that cloud-init starts.
//
// For detailed usage information, run:
//
//	kubestrap --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/kubestrap/cmd/kubestrap/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
