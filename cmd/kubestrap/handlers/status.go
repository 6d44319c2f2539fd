package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/imamik/kubestrap/internal/config"
	"github.com/imamik/kubestrap/internal/node"
	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"
	"github.com/imamik/kubestrap/internal/provisioning"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/mattn/go-isatty"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

const controlPlaneRoleLabel = "node-role.kubernetes.io/control-plane"

// StatusReport is the post-hoc view of a cluster: who sits behind each
// load balancer and which nodes registered with Kubernetes.
type StatusReport struct {
	ClusterName string       `json:"clusterName"`
	Location    string       `json:"location"`
	APIHost     string       `json:"apiHost"`
	Pools       []PoolStatus `json:"pools"`
	Nodes       []NodeStatus `json:"nodes"`
	// NodesError explains why node readiness is unknown.
	NodesError string `json:"nodesError,omitempty"`
}

// PoolStatus is the target health of one load balancer.
type PoolStatus struct {
	LoadBalancer string         `json:"loadBalancer"`
	Targets      []TargetStatus `json:"targets"`
}

// TargetStatus is the health of one target on one listen port.
type TargetStatus struct {
	Server     string `json:"server"`
	ServerID   int64  `json:"serverID"`
	ListenPort int    `json:"listenPort"`
	Status     string `json:"status"`
}

// Healthy reports whether the load balancer's health check passes.
func (t TargetStatus) Healthy() bool {
	return t.Status == string(hcloud.LoadBalancerTargetHealthStatusStatusHealthy)
}

// NodeStatus joins a server with its Kubernetes node.
type NodeStatus struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	PrivateIP  string `json:"privateIP"`
	Surplus    bool   `json:"surplus,omitempty"`
	Registered bool   `json:"registered"`
	Ready      bool   `json:"ready"`
	Kubelet    string `json:"kubelet,omitempty"`
}

// Factory function variables for status - can be replaced in tests.
var (
	readKubeconfig = os.ReadFile

	// newKubeClient creates a controller-runtime client for the cluster.
	newKubeClient = func(kubeconfig []byte) (client.Client, error) {
		restCfg, err := clientcmd.RESTConfigFromKubeConfig(kubeconfig)
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
		}
		scheme := runtime.NewScheme()
		if err := corev1.AddToScheme(scheme); err != nil {
			return nil, err
		}
		return client.New(restCfg, client.Options{Scheme: scheme})
	}

	isInteractiveTTY = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
)

// Status reports load balancer target health and node readiness.
func Status(ctx context.Context, configPath string, jsonOutput bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	reconciler, err := buildReconciler(ctx, cfg)
	if err != nil {
		return err
	}
	state, err := reconciler.Lookup(ctx, provisioning.WithObserver(provisioning.NewConsoleObserverTo(io.Discard)))
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	report := buildStatusReport(cfg, state)
	registered, err := listKubeNodes(ctx, cfg.KubeconfigPath)
	if err != nil {
		report.NodesError = err.Error()
	} else {
		report.mergeKubeNodes(registered)
	}

	switch {
	case jsonOutput:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case isInteractiveTTY():
		fmt.Fprintln(out, renderStatusStyled(report))
	default:
		fmt.Fprint(out, renderStatusPlain(report))
	}
	return nil
}

// buildStatusReport turns the looked up cluster into a report. Node
// readiness is filled in separately.
func buildStatusReport(cfg *config.Config, state *provisioning.State) *StatusReport {
	report := &StatusReport{
		ClusterName: cfg.ClusterName,
		Location:    cfg.Location,
		APIHost:     state.APIHost,
	}

	names := make(map[int64]string, len(state.Nodes))
	for _, n := range state.Nodes {
		names[n.ServerID] = n.Name
		report.Nodes = append(report.Nodes, NodeStatus{
			Name:      n.Name,
			Role:      string(n.Role),
			PrivateIP: n.PrivateIP,
			Surplus:   n.Role == node.RoleWorker && n.Index >= cfg.Workers.Count,
		})
	}

	for _, lb := range []*hcloud.LoadBalancer{state.APILoadBalancer, state.IngressLoadBalancer} {
		if lb == nil {
			continue
		}
		pool := PoolStatus{LoadBalancer: lb.Name}
		for _, h := range hcloud_internal.TargetHealths(lb) {
			name := names[h.ServerID]
			if name == "" {
				name = fmt.Sprintf("server %d", h.ServerID)
			}
			pool.Targets = append(pool.Targets, TargetStatus{
				Server:     name,
				ServerID:   h.ServerID,
				ListenPort: h.ListenPort,
				Status:     h.Status,
			})
		}
		report.Pools = append(report.Pools, pool)
	}
	return report
}

// listKubeNodes lists the nodes registered with the API server, keyed by
// name. kubeadm names nodes after the server's hostname.
func listKubeNodes(ctx context.Context, kubeconfigPath string) (map[string]corev1.Node, error) {
	data, err := readKubeconfig(kubeconfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("kubeconfig %s not found, run 'kubestrap kubeconfig'", kubeconfigPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read kubeconfig: %w", err)
	}

	c, err := newKubeClient(data)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}

	var list corev1.NodeList
	if err := c.List(ctx, &list); err != nil {
		return nil, fmt.Errorf("failed to list nodes: %w", err)
	}
	nodes := make(map[string]corev1.Node, len(list.Items))
	for _, n := range list.Items {
		nodes[n.Name] = n
	}
	return nodes, nil
}

// mergeKubeNodes marks servers whose node registered and adds nodes that
// have no server of this cluster.
func (r *StatusReport) mergeKubeNodes(registered map[string]corev1.Node) {
	seen := make(map[string]bool, len(r.Nodes))
	for i := range r.Nodes {
		n, ok := registered[r.Nodes[i].Name]
		if !ok {
			continue
		}
		seen[n.Name] = true
		r.Nodes[i].Registered = true
		r.Nodes[i].Ready = nodeReady(n)
		r.Nodes[i].Kubelet = n.Status.NodeInfo.KubeletVersion
	}

	var extra []string
	for name := range registered {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		n := registered[name]
		role := string(node.RoleWorker)
		if _, ok := n.Labels[controlPlaneRoleLabel]; ok {
			role = string(node.RoleControlPlane)
		}
		r.Nodes = append(r.Nodes, NodeStatus{
			Name:       name,
			Role:       role,
			Registered: true,
			Ready:      nodeReady(n),
			Kubelet:    n.Status.NodeInfo.KubeletVersion,
		})
	}
}

func nodeReady(n corev1.Node) bool {
	for _, c := range n.Status.Conditions {
		if c.Type == corev1.NodeReady {
			return c.Status == corev1.ConditionTrue
		}
	}
	return false
}
