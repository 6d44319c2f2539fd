package orchestration

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/imamik/kubestrap/internal/bootstrap"
	"github.com/imamik/kubestrap/internal/config"
	"github.com/imamik/kubestrap/internal/node"
	"github.com/imamik/kubestrap/internal/provisioning"
	"github.com/imamik/kubestrap/internal/provisioning/access"
	kstest "github.com/imamik/kubestrap/internal/testing"
	"github.com/imamik/kubestrap/internal/token"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/version"
	"k8s.io/client-go/discovery"
	"k8s.io/client-go/tools/clientcmd"
	clientcmdapi "k8s.io/client-go/tools/clientcmd/api"
	"k8s.io/client-go/util/cert"
)

const adminToken = "kubeadm-admin-token"

// newAPIServer stands in for kube-apiserver: /version answers only
// requests that carry the admin bearer token.
func newAPIServer() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+adminToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(version.Info{Major: "1", Minor: "31", GitVersion: "v1.31.4"})
	})
	return httptest.NewTLSServer(mux)
}

// adminConf renders the admin kubeconfig kubeadm would write on the
// control plane: the server URL points at the node's private address and
// the port kube-apiserver listens on.
func adminConf(api *httptest.Server, bearer string) []byte {
	caPEM, err := cert.EncodeCertificates(api.Certificate())
	Expect(err).NotTo(HaveOccurred())

	cfg := clientcmdapi.NewConfig()
	cfg.Clusters["kubernetes"] = &clientcmdapi.Cluster{
		Server:                   "https://10.0.1.10:" + strconv.Itoa(config.KubeAPIPort),
		CertificateAuthorityData: caPEM,
	}
	cfg.AuthInfos["kubernetes-admin"] = &clientcmdapi.AuthInfo{Token: bearer}
	cfg.Contexts["kubernetes-admin@kubernetes"] = &clientcmdapi.Context{
		Cluster:  "kubernetes",
		AuthInfo: "kubernetes-admin",
	}
	cfg.CurrentContext = "kubernetes-admin@kubernetes"

	data, err := clientcmd.Write(*cfg)
	Expect(err).NotTo(HaveOccurred())
	return data
}

// apiPort is the port the stand-in API server listens on. The API load
// balancer is configured to listen there, so it differs from 6443.
func apiPort(api *httptest.Server) int {
	_, port, err := net.SplitHostPort(api.Listener.Addr().String())
	Expect(err).NotTo(HaveOccurred())
	n, err := strconv.Atoi(port)
	Expect(err).NotTo(HaveOccurred())
	return n
}

func serverVersion(kubeconfigData []byte) (*version.Info, error) {
	restCfg, err := clientcmd.RESTConfigFromKubeConfig(kubeconfigData)
	if err != nil {
		return nil, err
	}
	restCfg.Timeout = 5 * time.Second
	client, err := discovery.NewDiscoveryClientForConfig(restCfg)
	if err != nil {
		return nil, err
	}
	return client.ServerVersion()
}

var _ = Describe("Reconciler", func() {
	var (
		ctx        context.Context
		cloud      *kstest.FakeCloud
		api        *httptest.Server
		node0      *kstest.SSHServer
		store      *token.FileStore
		cfg        *config.Config
		reconciler *Reconciler
		checks     atomic.Int32
		conf       []byte
	)

	newReconciler := func(cfg *config.Config) *Reconciler {
		dialer, err := access.NewSSHDialer(cfg, nil)
		Expect(err).NotTo(HaveOccurred())
		dialer.Port = node0.Port

		return NewReconciler(cloud.Client(), cfg,
			WithContextOptions(
				provisioning.WithObserver(provisioning.NewConsoleObserverTo(GinkgoWriter)),
				provisioning.WithTokenStore(store),
				provisioning.WithDialer(dialer),
			),
			WithAccessOptions(access.WithSSHPort(node0.Port)),
		)
	}

	BeforeEach(func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), time.Minute)
		DeferCleanup(cancel)

		cloud = kstest.NewFakeCloud()
		cloud.UseLoopback()

		api = newAPIServer()
		DeferCleanup(api.Close)
		conf = adminConf(api, adminToken)

		keyPath, pub := kstest.SSHKeyPair(GinkgoTB())
		node0 = kstest.NewSSHServer(GinkgoTB(), pub)
		checks.Store(0)
		// The admin kubeconfig appears after a few readiness checks, as it
		// does once kubeadm init finishes.
		node0.HandleExec(func(_, command string) (string, int) {
			if checks.Add(1) < 3 {
				return "", 1
			}
			node0.PutFile(bootstrap.AdminKubeconfigPath, conf)
			return "ok", 0
		})

		dir := GinkgoT().TempDir()
		store = token.NewFileStore(filepath.Join(dir, "state.yaml"))
		cfg = kstest.NewConfigBuilder().
			WithClusterName("e2e").
			WithWorkers(2).
			WithSSHKey("e2e-key", keyPath).
			WithKubeconfigPath(filepath.Join(dir, "kubeconfig")).
			WithStatePath(store.Path).
			Build()
		cfg.Retrieval.PollInterval = 10 * time.Millisecond
		cfg.API.Port = apiPort(api)

		reconciler = newReconciler(cfg)
	})

	Context("when applying a cluster with two workers", func() {
		var state *provisioning.State

		BeforeEach(func() {
			var err error
			state, err = reconciler.Apply(ctx)
			Expect(err).NotTo(HaveOccurred())
		})

		It("creates one control plane and two workers", func() {
			Expect(cloud.ServerNames()).To(ConsistOf("e2e-control-plane", "e2e-worker-0", "e2e-worker-1"))
			Expect(cloud.Created()[0]).To(Equal("e2e-control-plane"))
			Expect(state.Nodes).To(HaveLen(3))
			Expect(state.Surplus).To(BeEmpty())
		})

		It("puts two workers behind the ingress and the control plane behind the API", func() {
			cp, ok := state.ControlPlane()
			Expect(ok).To(BeTrue())
			Expect(cloud.Targets("e2e-kube-api")).To(Equal([]int64{cp.ServerID}))

			workers := node.Filter(state.Nodes, node.RoleWorker)
			Expect(cloud.Targets("e2e-ingress")).To(ConsistOf(workers[0].ServerID, workers[1].ServerID))
		})

		It("persists the join token", func() {
			set, err := store.Load(ctx)
			Expect(err).NotTo(HaveOccurred())
			current, err := set.CurrentToken()
			Expect(err).NotTo(HaveOccurred())
			Expect(current).To(Equal(state.Token))
			Expect(state.TokenCreated).To(BeTrue())
		})

		It("saves a kubeconfig that points at the API load balancer", func() {
			data, err := os.ReadFile(cfg.KubeconfigPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(state.Kubeconfig))

			loaded, err := clientcmd.Load(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.API.Port).NotTo(Equal(config.KubeAPIPort))
			Expect(loaded.Clusters["kubernetes"].Server).To(Equal("https://127.0.0.1:" + strconv.Itoa(cfg.API.Port)))

			services := cloud.LoadBalancer("e2e-kube-api").Services
			Expect(services).To(HaveLen(1))
			Expect(services[0].ListenPort).To(Equal(cfg.API.Port))
			Expect(services[0].DestinationPort).To(Equal(config.KubeAPIPort))

			info, err := os.Stat(cfg.KubeconfigPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
		})

		It("authenticates against the API server with the saved kubeconfig", func() {
			info, err := serverVersion(state.Kubeconfig)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.GitVersion).To(Equal("v1.31.4"))
		})

		It("converges without changes on a second apply", func() {
			again, err := reconciler.Apply(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(cloud.Created()).To(HaveLen(3))
			Expect(again.Token).To(Equal(state.Token))
			Expect(again.TokenCreated).To(BeFalse())
			for _, plan := range again.Plans {
				Expect(plan.Empty()).To(BeTrue())
			}
		})

		It("retrieves the kubeconfig again without provisioning", func() {
			Expect(os.Remove(cfg.KubeconfigPath)).To(Succeed())

			retrieved, err := reconciler.Kubeconfig(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Kubeconfig).To(Equal(state.Kubeconfig))
			Expect(cfg.KubeconfigPath).To(BeAnExistingFile())
		})

		It("rotates the join token only when asked", func() {
			rotated, err := reconciler.Apply(ctx, provisioning.WithTokenRotation(true))
			Expect(err).NotTo(HaveOccurred())
			Expect(rotated.Token).NotTo(Equal(state.Token))

			set, err := store.Load(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(set.Versions).To(HaveLen(2))
		})

		When("the worker count shrinks", func() {
			It("deregisters the surplus worker without deleting it", func() {
				smaller := *cfg
				smaller.Workers.Count = 1
				after, err := newReconciler(&smaller).Apply(ctx)
				Expect(err).NotTo(HaveOccurred())

				Expect(cloud.ServerNames()).To(HaveLen(3))
				Expect(after.Surplus).To(HaveLen(1))
				Expect(after.Surplus[0].Name).To(Equal("e2e-worker-1"))
				Expect(cloud.Targets("e2e-ingress")).To(HaveLen(1))
				Expect(cloud.Targets("e2e-kube-api")).To(HaveLen(1))
			})
		})

		When("the cluster is destroyed", func() {
			It("removes every resource and the join token", func() {
				Expect(reconciler.Destroy(ctx)).To(Succeed())
				Expect(cloud.Empty()).To(BeTrue())
				_, err := store.Load(ctx)
				Expect(err).To(MatchError(token.ErrNotFound))
			})
		})
	})

	Context("when the kubeconfig carries unknown credentials", func() {
		It("is rejected by the API server", func() {
			conf = adminConf(api, "stolen")
			state, err := reconciler.Apply(ctx)
			Expect(err).NotTo(HaveOccurred())

			_, err = serverVersion(state.Kubeconfig)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("when the control plane never becomes ready", func() {
		It("stops polling once the attempts are used up", func() {
			node0.HandleExec(func(string, string) (string, int) { return "", 1 })
			cfg.Retrieval.MaxAttempts = 3

			state, err := reconciler.Apply(ctx)
			Expect(err).To(MatchError(ContainSubstring("access phase failed")))
			Expect(err).To(MatchError(ContainSubstring("gave up after 3 attempts")))
			Expect(state.Kubeconfig).To(BeEmpty())
			Expect(cloud.Targets("e2e-ingress")).To(HaveLen(2))
		})
	})
})
