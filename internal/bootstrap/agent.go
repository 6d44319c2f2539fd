package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/imamik/kubestrap/internal/util/retry"

	"github.com/go-logr/logr"
)

// StateError reports the state an agent run stopped in.
type StateError struct {
	State State
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s failed: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// Agent walks a node through its boot states.
type Agent struct {
	cfg     *Config
	sys     System
	log     logr.Logger
	metrics *Metrics

	now            func() time.Time
	lookupPublicIP func(endpoint string) (string, error)
}

// New returns an agent for cfg.
func New(cfg *Config, sys System, log logr.Logger) *Agent {
	return &Agent{
		cfg:            cfg,
		sys:            sys,
		log:            log.WithValues("node", cfg.NodeName, "role", cfg.Role),
		metrics:        NewMetrics(cfg.NodeName, string(cfg.Role)),
		now:            time.Now,
		lookupPublicIP: lookupPublicIP,
	}
}

// Metrics returns the metrics recorded by the agent.
func (a *Agent) Metrics() *Metrics {
	return a.metrics
}

// Run executes every state of the node's role that has not completed yet.
func (a *Agent) Run(ctx context.Context) error {
	states := Sequence(a.cfg.Role)
	if len(states) == 0 {
		return fmt.Errorf("no boot sequence for role %q", a.cfg.Role)
	}

	progress, err := loadProgress(a.sys, a.cfg.ProgressPath)
	if err != nil {
		return err
	}
	defer a.writeMetrics()

	for _, s := range states {
		log := a.log.WithValues("state", s)
		if progress.Done(s) {
			log.Info("state already completed, skipping")
			a.metrics.skipped(s)
			continue
		}

		log.Info("entering state")
		start := a.now()
		err := a.runState(ctx, s)
		a.metrics.finished(s, a.now().Sub(start), err)
		if err != nil {
			log.Error(err, "state failed")
			return &StateError{State: s, Err: err}
		}

		progress.mark(s, a.now())
		if err := progress.save(a.sys, a.cfg.ProgressPath); err != nil {
			return err
		}
		log.Info("state completed", "duration", a.now().Sub(start).Round(time.Millisecond).String())
	}

	a.log.Info("boot sequence complete")
	return nil
}

func (a *Agent) writeMetrics() {
	if err := a.metrics.WriteTextfile(a.cfg.MetricsPath, a.now()); err != nil {
		a.log.Error(err, "failed to write metrics textfile", "path", a.cfg.MetricsPath)
	}
}

func (a *Agent) runState(ctx context.Context, s State) error {
	switch s {
	case StateOSPrep:
		return a.prepareOS(ctx)
	case StatePackageInstall:
		return a.pollState(ctx, s, a.cfg.PackageRetryInterval, a.cfg.PackageMaxAttempts, a.installPackages)
	case StateRuntimeReady:
		return a.startRuntime(ctx)
	case StateClusterInit:
		return a.initCluster(ctx)
	case StateNetworkPlugin:
		return a.installNetworkPlugin(ctx)
	case StateJoinArtifact:
		return a.publishJoinArtifact()
	case StateJoined:
		return a.joinCluster(ctx)
	}
	return fmt.Errorf("unknown state %q", s)
}

// pollState retries op at a fixed interval, counting every attempt.
func (a *Agent) pollState(ctx context.Context, s State, interval time.Duration, maxAttempts int, op func(context.Context) error) error {
	return retry.Poll(ctx, interval, maxAttempts, func() error {
		a.metrics.attempt(s)
		return op(ctx)
	}, retry.WithNotify(func(attempt int, err error) {
		a.log.Error(err, "attempt failed, retrying", "state", s, "attempt", attempt, "interval", interval.String())
	}))
}

func (a *Agent) run(ctx context.Context, name string, args ...string) error {
	_, err := a.sys.Run(ctx, name, args...)
	return err
}

func (a *Agent) prepareOS(ctx context.Context) error {
	a.metrics.attempt(StateOSPrep)

	if err := a.run(ctx, "swapoff", "-a"); err != nil {
		return err
	}

	fstab, err := a.sys.ReadFile(fstabPath)
	if err != nil && !isNotExist(err) {
		return fmt.Errorf("failed to read %s: %w", fstabPath, err)
	}
	if updated, changed := commentSwapEntries(fstab); changed {
		if err := a.sys.WriteFile(fstabPath, updated, 0o644); err != nil {
			return fmt.Errorf("failed to update %s: %w", fstabPath, err)
		}
	}

	if err := a.sys.WriteFile(modulesLoadPath, modulesLoadFile(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", modulesLoadPath, err)
	}
	for _, m := range kernelModules {
		if err := a.run(ctx, "modprobe", m); err != nil {
			return err
		}
	}

	if err := a.sys.WriteFile(sysctlPath, []byte(sysctlSettings), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", sysctlPath, err)
	}
	return a.run(ctx, "sysctl", "--system")
}

func (a *Agent) installPackages(ctx context.Context) error {
	repo := kubernetesRepo(a.cfg.KubernetesVersion)

	steps := [][]string{
		{"apt-get", "update"},
		{"apt-get", "install", "-y", "apt-transport-https", "ca-certificates", "curl", "gpg", "containerd"},
		{"mkdir", "-p", "-m", "755", "/etc/apt/keyrings"},
		{"sh", "-c", fmt.Sprintf("curl -fsSL %sRelease.key | gpg --dearmor --yes -o %s", repo, kubernetesKeyring)},
	}
	for _, step := range steps {
		if err := a.run(ctx, step[0], step[1:]...); err != nil {
			return err
		}
	}

	if err := a.sys.WriteFile(kubernetesListPath, kubernetesSourcesList(a.cfg.KubernetesVersion), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", kubernetesListPath, err)
	}

	steps = [][]string{
		{"apt-get", "update"},
		{"apt-get", "install", "-y", "kubelet", "kubeadm", "kubectl"},
		{"apt-mark", "hold", "kubelet", "kubeadm", "kubectl"},
	}
	for _, step := range steps {
		if err := a.run(ctx, step[0], step[1:]...); err != nil {
			return err
		}
	}
	return nil
}

func (a *Agent) startRuntime(ctx context.Context) error {
	defaults, err := a.sys.Run(ctx, "containerd", "config", "default")
	if err != nil {
		return err
	}
	config, err := enableSystemdCgroup(defaults)
	if err != nil {
		return err
	}
	if err := a.sys.WriteFile(containerdConfig, config, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", containerdConfig, err)
	}
	if err := a.sys.WriteFile(kubeletDefaultsEnv, kubeletDefaults(a.cfg.PrivateIP), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", kubeletDefaultsEnv, err)
	}
	if err := a.run(ctx, "systemctl", "restart", "containerd"); err != nil {
		return err
	}
	if err := a.run(ctx, "systemctl", "enable", "kubelet"); err != nil {
		return err
	}

	return a.pollState(ctx, StateRuntimeReady, a.cfg.RuntimePollInterval, a.cfg.RuntimeMaxAttempts, func(ctx context.Context) error {
		return a.run(ctx, "ctr", "--address", ContainerdSocket, "version")
	})
}

func (a *Agent) initCluster(ctx context.Context) error {
	a.metrics.attempt(StateClusterInit)

	if a.sys.Exists(AdminKubeconfigPath) {
		a.log.Info("control plane already initialized", "kubeconfig", AdminKubeconfigPath)
		return nil
	}

	if a.cfg.PublicIP == "" {
		ip, err := a.lookupPublicIP(a.cfg.MetadataURL)
		if err != nil {
			a.log.Error(err, "public address unknown, API certificate will not cover it")
		} else {
			a.cfg.PublicIP = ip
		}
	}

	rendered, err := RenderInitConfig(a.cfg)
	if err != nil {
		return err
	}
	if err := a.sys.WriteFile(DefaultKubeadmConfig, rendered, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", DefaultKubeadmConfig, err)
	}
	return a.run(ctx, "kubeadm", "init", "--config", DefaultKubeadmConfig)
}

func (a *Agent) installNetworkPlugin(ctx context.Context) error {
	a.metrics.attempt(StateNetworkPlugin)
	return a.run(ctx, "kubectl", "--kubeconfig", AdminKubeconfigPath, "apply", "-f", a.cfg.PodNetworkManifest)
}

func (a *Agent) publishJoinArtifact() error {
	a.metrics.attempt(StateJoinArtifact)
	if err := a.sys.WriteFile(a.cfg.JoinScriptPath, JoinScript(a.cfg), 0o700); err != nil {
		return fmt.Errorf("failed to write %s: %w", a.cfg.JoinScriptPath, err)
	}
	return nil
}

func (a *Agent) joinCluster(ctx context.Context) error {
	if a.sys.Exists(KubeletKubeconfigPath) {
		a.metrics.attempt(StateJoined)
		a.log.Info("node already joined", "kubeconfig", KubeletKubeconfigPath)
		return nil
	}

	return a.pollState(ctx, StateJoined, a.cfg.JoinRetryInterval, a.cfg.JoinMaxAttempts, func(ctx context.Context) error {
		err := a.run(ctx, "kubeadm", JoinCommand(a.cfg)...)
		if err == nil {
			return nil
		}
		// Clear what the failed attempt left behind so the next one starts clean.
		if resetErr := a.run(ctx, "kubeadm", "reset", "-f"); resetErr != nil {
			a.log.Error(resetErr, "kubeadm reset failed")
		}
		return err
	})
}
