package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/imamik/kubestrap/internal/token"

	"github.com/charmbracelet/lipgloss/table"
)

// TokenShow prints every version of the cluster's join token. Secrets are
// redacted unless reveal is set.
func TokenShow(ctx context.Context, configPath string, reveal bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := newTokenStore(ctx, cfg)
	if err != nil {
		return err
	}

	set, err := store.Load(ctx)
	if errors.Is(err, token.ErrNotFound) {
		return fmt.Errorf("cluster %s has no join token yet, run 'kubestrap apply' first", cfg.ClusterName)
	}
	if err != nil {
		return fmt.Errorf("failed to load join token: %w", err)
	}
	current, _ := set.Current()

	fmt.Fprintf(out, "Join tokens of %s (%s)\n", cfg.ClusterName, tokenLocation(cfg))
	t := table.New().Headers("VERSION", "TOKEN", "CREATED", "")
	for _, v := range set.Versions {
		shown := v.Token
		if !reveal {
			shown = "(invalid)"
			if tok, err := token.Parse(v.Token); err == nil {
				shown = tok.Redacted()
			}
		}
		marker := ""
		if v.Version == current.Version {
			marker = "current"
		}
		t.Row(strconv.Itoa(v.Version), shown, v.CreatedAt.Format(time.RFC3339), marker)
	}
	fmt.Fprintln(out, t.Render())
	return nil
}

// TokenRotate appends a new join token version. Servers created afterwards
// carry the new token.
func TokenRotate(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := newTokenStore(ctx, cfg)
	if err != nil {
		return err
	}

	tok, _, err := token.Ensure(ctx, store, cfg.ClusterName, true)
	if err != nil {
		return fmt.Errorf("failed to rotate join token: %w", err)
	}

	fmt.Fprintf(out, "New join token %s stored in %s\n", tok.Redacted(), tokenLocation(cfg))
	fmt.Fprintln(out, "Joined nodes are not affected. Before adding workers, register the token on the control plane:")
	fmt.Fprintf(out, "  kubeadm token create %s --ttl 0\n", tok.String())
	return nil
}
