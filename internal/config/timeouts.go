package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts bound the cloud and SSH calls of a run. They are read from the
// environment so a slow project can raise them without touching the
// cluster config.
type Timeouts struct {
	// ServerCreate covers creating a server and attaching it to the network.
	ServerCreate time.Duration
	// ServerIP is how long a new server may go without a public address.
	ServerIP time.Duration
	// Delete bounds every delete, retries included.
	Delete time.Duration
	// Action bounds waiting for a single hcloud action.
	Action time.Duration
	// SSHDial bounds one SSH connection attempt to the control plane.
	SSHDial time.Duration

	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
}

// LoadTimeouts reads the timeouts from the environment. Unset, malformed
// and non-positive values fall back to the defaults:
//
//	HCLOUD_TIMEOUT_SERVER_CREATE  10m
//	HCLOUD_TIMEOUT_SERVER_IP      60s
//	HCLOUD_TIMEOUT_DELETE         5m
//	HCLOUD_TIMEOUT_ACTION         5m
//	KUBESTRAP_TIMEOUT_SSH_DIAL    10s
//	HCLOUD_RETRY_MAX_ATTEMPTS     5
//	HCLOUD_RETRY_INITIAL_DELAY    1s
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		ServerCreate:      envPositive("HCLOUD_TIMEOUT_SERVER_CREATE", 10*time.Minute, time.ParseDuration),
		ServerIP:          envPositive("HCLOUD_TIMEOUT_SERVER_IP", 60*time.Second, time.ParseDuration),
		Delete:            envPositive("HCLOUD_TIMEOUT_DELETE", 5*time.Minute, time.ParseDuration),
		Action:            envPositive("HCLOUD_TIMEOUT_ACTION", 5*time.Minute, time.ParseDuration),
		SSHDial:           envPositive("KUBESTRAP_TIMEOUT_SSH_DIAL", 10*time.Second, time.ParseDuration),
		RetryMaxAttempts:  envPositive("HCLOUD_RETRY_MAX_ATTEMPTS", 5, strconv.Atoi),
		RetryInitialDelay: envPositive("HCLOUD_RETRY_INITIAL_DELAY", time.Second, time.ParseDuration),
	}
}

func envPositive[T int | time.Duration](name string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(name)
	if !ok || raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
