package hcloud

import (
	"context"
	"fmt"

	"github.com/imamik/kubestrap/internal/util/retry"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// ensureNamed returns the resource called name, where get returns nil for
// a missing one. An existing resource is passed to reconcile, when set.
// A missing one is created. Either way the returned actions are awaited.
func ensureNamed[E any](
	ctx context.Context,
	c *RealClient,
	kind, name string,
	get func(ctx context.Context, name string) (*E, *hcloud.Response, error),
	create func(ctx context.Context) (*E, []*hcloud.Action, error),
	reconcile func(ctx context.Context, existing *E) ([]*hcloud.Action, error),
) (*E, error) {
	existing, _, err := get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s: %w", kind, name, err)
	}

	if existing != nil {
		if reconcile == nil {
			return existing, nil
		}
		actions, err := reconcile(ctx, existing)
		if err != nil {
			return nil, err
		}
		if err := waitForActions(ctx, c.client, actions...); err != nil {
			return nil, fmt.Errorf("failed to wait for %s %s update: %w", kind, name, err)
		}
		return existing, nil
	}

	created, actions, err := create(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s %s: %w", kind, name, err)
	}
	if err := waitForActions(ctx, c.client, actions...); err != nil {
		return nil, fmt.Errorf("failed to wait for %s %s creation: %w", kind, name, err)
	}
	return created, nil
}

// deleteNamed deletes the resource called name within the delete
// timeout. A missing resource is not an error. Locked or still
// referenced resources are retried with backoff.
func deleteNamed[E any](
	ctx context.Context,
	c *RealClient,
	kind, name string,
	get func(ctx context.Context, name string) (*E, *hcloud.Response, error),
	del func(ctx context.Context, resource *E) error,
) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.Delete)
	defer cancel()

	attempt := func() error {
		resource, _, err := get(ctx, name)
		if err != nil {
			return retry.Fatal(fmt.Errorf("failed to get %s %s: %w", kind, name, err))
		}
		if resource == nil {
			return nil
		}
		err = del(ctx, resource)
		switch {
		case err == nil:
			return nil
		case isResourceLocked(err), IsResourceInUse(err):
			return err
		default:
			return retry.Fatal(fmt.Errorf("failed to delete %s %s: %w", kind, name, err))
		}
	}
	return retry.WithExponentialBackoff(ctx, attempt,
		retry.WithMaxRetries(c.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(c.timeouts.RetryInitialDelay))
}

// responseOnly adapts hcloud delete calls to deleteNamed.
func responseOnly[E any](fn func(context.Context, *E) (*hcloud.Response, error)) func(context.Context, *E) error {
	return func(ctx context.Context, resource *E) error {
		_, err := fn(ctx, resource)
		return err
	}
}

// waitForActions waits for the non-nil actions to complete.
func waitForActions(ctx context.Context, client *hcloud.Client, actions ...*hcloud.Action) error {
	pending := make([]*hcloud.Action, 0, len(actions))
	for _, a := range actions {
		if a != nil {
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	return client.Action.WaitFor(ctx, pending...)
}
