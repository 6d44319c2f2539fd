package bootstrap

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

const nodeBootstrapTokenGroup = "system:bootstrappers:kubeadm:default-node-token"

type bootstrapTokenSpec struct {
	Token  string          `json:"token"`
	TTL    metav1.Duration `json:"ttl"`
	Usages []string        `json:"usages"`
	Groups []string        `json:"groups"`
}

type apiEndpoint struct {
	AdvertiseAddress string `json:"advertiseAddress"`
	BindPort         int32  `json:"bindPort"`
}

type nodeRegistration struct {
	Name      string `json:"name,omitempty"`
	CRISocket string `json:"criSocket"`
}

type initConfiguration struct {
	metav1.TypeMeta  `json:",inline"`
	BootstrapTokens  []bootstrapTokenSpec `json:"bootstrapTokens"`
	LocalAPIEndpoint apiEndpoint          `json:"localAPIEndpoint"`
	NodeRegistration nodeRegistration     `json:"nodeRegistration"`
}

type apiServer struct {
	CertSANs []string `json:"certSANs,omitempty"`
}

type networking struct {
	PodSubnet     string `json:"podSubnet"`
	ServiceSubnet string `json:"serviceSubnet"`
}

type clusterConfiguration struct {
	metav1.TypeMeta      `json:",inline"`
	ClusterName          string     `json:"clusterName,omitempty"`
	ControlPlaneEndpoint string     `json:"controlPlaneEndpoint"`
	APIServer            apiServer  `json:"apiServer"`
	Networking           networking `json:"networking"`
}

// kubeadmAPIVersion picks the newest config API the installed kubeadm
// understands: v1beta4 from 1.31 on, v1beta3 before.
func kubeadmAPIVersion(kubernetesVersion string) string {
	minor := 0
	if _, rest, ok := strings.Cut(strings.TrimPrefix(kubernetesVersion, "v"), "."); ok {
		rest, _, _ = strings.Cut(rest, ".")
		minor, _ = strconv.Atoi(rest)
	}
	if minor >= 31 {
		return "kubeadm.k8s.io/v1beta4"
	}
	return "kubeadm.k8s.io/v1beta3"
}

// certSANs lists every name the API server certificate must cover, in a
// stable order without duplicates.
func certSANs(cfg *Config) []string {
	var sans []string
	seen := map[string]bool{}
	for _, s := range []string{cfg.PublicIP, cfg.PrivateIP, cfg.NodeName, cfg.APIDNSName, cfg.APILoadBalancerIP} {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		sans = append(sans, s)
	}
	return sans
}

// RenderInitConfig renders the kubeadm InitConfiguration and
// ClusterConfiguration documents for the control plane.
func RenderInitConfig(cfg *Config) ([]byte, error) {
	apiVersion := kubeadmAPIVersion(cfg.KubernetesVersion)
	endpoint := net.JoinHostPort(cfg.PrivateIP, strconv.Itoa(APIServerPort))

	initCfg := initConfiguration{
		TypeMeta: metav1.TypeMeta{APIVersion: apiVersion, Kind: "InitConfiguration"},
		BootstrapTokens: []bootstrapTokenSpec{{
			Token: cfg.Token,
			// Zero never expires; workers may join long after init.
			TTL:    metav1.Duration{},
			Usages: []string{"signing", "authentication"},
			Groups: []string{nodeBootstrapTokenGroup},
		}},
		LocalAPIEndpoint: apiEndpoint{AdvertiseAddress: cfg.PrivateIP, BindPort: APIServerPort},
		NodeRegistration: nodeRegistration{
			Name:      cfg.NodeName,
			CRISocket: "unix://" + ContainerdSocket,
		},
	}
	cluster := clusterConfiguration{
		TypeMeta:             metav1.TypeMeta{APIVersion: apiVersion, Kind: "ClusterConfiguration"},
		ControlPlaneEndpoint: endpoint,
		APIServer:            apiServer{CertSANs: certSANs(cfg)},
		Networking: networking{
			PodSubnet:     cfg.PodCIDR,
			ServiceSubnet: cfg.ServiceCIDR,
		},
	}

	var buf bytes.Buffer
	for i, doc := range []any{initCfg, cluster} {
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to render kubeadm config: %w", err)
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(out)
	}
	return buf.Bytes(), nil
}

// JoinCommand returns the kubeadm arguments a worker joins with.
func JoinCommand(cfg *Config) []string {
	return []string{
		"join", net.JoinHostPort(cfg.ControlPlaneIP, strconv.Itoa(APIServerPort)),
		"--token", cfg.Token,
		"--discovery-token-unsafe-skip-ca-verification",
		"--node-name", cfg.NodeName,
	}
}

// JoinScript is the published join artifact.
func JoinScript(cfg *Config) []byte {
	args := []string{
		"kubeadm", "join", net.JoinHostPort(cfg.PrivateIP, strconv.Itoa(APIServerPort)),
		"--token", cfg.Token,
		"--discovery-token-unsafe-skip-ca-verification",
	}
	return []byte("#!/bin/sh\nset -eu\n" + strings.Join(args, " ") + "\n")
}
