package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func clearTimeoutEnvVars(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"HCLOUD_TIMEOUT_SERVER_CREATE",
		"HCLOUD_TIMEOUT_SERVER_IP",
		"HCLOUD_TIMEOUT_DELETE",
		"HCLOUD_TIMEOUT_ACTION",
		"KUBESTRAP_TIMEOUT_SSH_DIAL",
		"HCLOUD_RETRY_MAX_ATTEMPTS",
		"HCLOUD_RETRY_INITIAL_DELAY",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadTimeouts_Defaults(t *testing.T) {
	clearTimeoutEnvVars(t)

	timeouts := LoadTimeouts()

	assert.Equal(t, 10*time.Minute, timeouts.ServerCreate)
	assert.Equal(t, 60*time.Second, timeouts.ServerIP)
	assert.Equal(t, 5*time.Minute, timeouts.Delete)
	assert.Equal(t, 5*time.Minute, timeouts.Action)
	assert.Equal(t, 10*time.Second, timeouts.SSHDial)
	assert.Equal(t, 5, timeouts.RetryMaxAttempts)
	assert.Equal(t, 1*time.Second, timeouts.RetryInitialDelay)
}

func TestLoadTimeouts_FromEnv(t *testing.T) {
	clearTimeoutEnvVars(t)
	t.Setenv("HCLOUD_TIMEOUT_SERVER_CREATE", "20m")
	t.Setenv("KUBESTRAP_TIMEOUT_SSH_DIAL", "3s")
	t.Setenv("HCLOUD_RETRY_MAX_ATTEMPTS", "9")

	timeouts := LoadTimeouts()

	assert.Equal(t, 20*time.Minute, timeouts.ServerCreate)
	assert.Equal(t, 3*time.Second, timeouts.SSHDial)
	assert.Equal(t, 9, timeouts.RetryMaxAttempts)
}

func TestLoadTimeouts_InvalidValuesFallBack(t *testing.T) {
	clearTimeoutEnvVars(t)
	t.Setenv("HCLOUD_TIMEOUT_DELETE", "soon")
	t.Setenv("HCLOUD_TIMEOUT_SERVER_IP", "-5s")
	t.Setenv("HCLOUD_RETRY_MAX_ATTEMPTS", "0")

	timeouts := LoadTimeouts()

	assert.Equal(t, 5*time.Minute, timeouts.Delete)
	assert.Equal(t, 60*time.Second, timeouts.ServerIP)
	assert.Equal(t, 5, timeouts.RetryMaxAttempts)
}
