package provisioning

import (
	"context"
	"errors"
	"testing"

	"github.com/imamik/kubestrap/internal/config"
	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type phaseFuncImpl struct {
	name string
	fn   func(*Context) error
}

func phaseFunc(name string, fn func(*Context) error) Phase {
	return &phaseFuncImpl{name: name, fn: fn}
}

func (p *phaseFuncImpl) Name() string                 { return p.name }
func (p *phaseFuncImpl) Provision(ctx *Context) error { return p.fn(ctx) }

func newTestContext(t *testing.T) (*Context, *MockObserver) {
	t.Helper()
	observer := NewMockObserver()
	ctx := NewContext(context.Background(), &config.Config{ClusterName: "demo"}, &hcloud_internal.MockClient{},
		WithObserver(observer))
	return ctx, observer
}

func TestRunPhases_Success(t *testing.T) {
	t.Parallel()
	ctx, _ := newTestContext(t)

	var order []string
	phases := []Phase{
		phaseFunc("first", func(*Context) error { order = append(order, "first"); return nil }),
		phaseFunc("second", func(*Context) error { order = append(order, "second"); return nil }),
		phaseFunc("third", func(*Context) error { order = append(order, "third"); return nil }),
	}

	require.NoError(t, RunPhases(ctx, phases))
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestRunPhases_StopsOnError(t *testing.T) {
	t.Parallel()
	ctx, observer := newTestContext(t)

	ran := false
	phases := []Phase{
		phaseFunc("ok", func(*Context) error { return nil }),
		phaseFunc("broken", func(*Context) error { return errors.New("boom") }),
		phaseFunc("never", func(*Context) error { ran = true; return nil }),
	}

	err := RunPhases(ctx, phases)
	require.Error(t, err)
	assert.Equal(t, "broken phase failed: boom", err.Error())
	assert.False(t, ran)

	var failed []Event
	for _, e := range observer.events {
		if e.Type == EventPhaseFailed {
			failed = append(failed, e)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, "broken (2/3)", failed[0].Phase)
}

func TestRunPhases_Empty(t *testing.T) {
	t.Parallel()
	ctx, observer := newTestContext(t)

	require.NoError(t, RunPhases(ctx, nil))
	assert.Empty(t, observer.events)
}

func TestRunPhases_LogsPhaseEvents(t *testing.T) {
	t.Parallel()
	ctx, observer := newTestContext(t)

	require.NoError(t, RunPhases(ctx, []Phase{phaseFunc("only", func(*Context) error { return nil })}))

	types := make([]EventType, 0, len(observer.events))
	for _, e := range observer.events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []EventType{EventPhaseStarted, EventPhaseCompleted, EventProgress}, types)
	assert.Equal(t, "1", observer.events[2].Fields["current"])
}

func TestRunPhases_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, _ := newTestContext(t)
	cancelled, cancel := context.WithCancel(ctx.Context)
	ctx.Context = cancelled

	phases := []Phase{
		phaseFunc("cancel", func(*Context) error { cancel(); return nil }),
		phaseFunc("skipped", func(*Context) error { t.Error("phase ran after cancellation"); return nil }),
	}

	err := RunPhases(ctx, phases)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "before skipped")
}

func TestRunPhases_SharesState(t *testing.T) {
	t.Parallel()
	ctx, _ := newTestContext(t)

	phases := []Phase{
		phaseFunc("produce", func(c *Context) error { c.State.APIHost = "api.example.com"; return nil }),
		phaseFunc("consume", func(c *Context) error {
			if c.State.APIHost != "api.example.com" {
				return errors.New("state not shared")
			}
			return nil
		}),
	}
	require.NoError(t, RunPhases(ctx, phases))
}
