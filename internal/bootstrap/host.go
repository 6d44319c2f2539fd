package bootstrap

import (
	"bytes"
	"fmt"
	"strings"
)

// Host files written during OS_PREP and RUNTIME_READY.
const (
	fstabPath          = "/etc/fstab"
	modulesLoadPath    = "/etc/modules-load.d/kubestrap.conf"
	sysctlPath         = "/etc/sysctl.d/99-kubestrap.conf"
	containerdConfig   = "/etc/containerd/config.toml"
	kubeletDefaultsEnv = "/etc/default/kubelet"
	kubernetesListPath = "/etc/apt/sources.list.d/kubernetes.list"
	kubernetesKeyring  = "/etc/apt/keyrings/kubernetes-apt-keyring.gpg"
)

var kernelModules = []string{"overlay", "br_netfilter"}

const sysctlSettings = `net.bridge.bridge-nf-call-iptables  = 1
net.bridge.bridge-nf-call-ip6tables = 1
net.ipv4.ip_forward                 = 1
`

// commentSwapEntries disables every active swap line of an fstab. Lines
// already commented are left alone, so applying it twice equals once.
func commentSwapEntries(fstab []byte) ([]byte, bool) {
	lines := strings.SplitAfter(string(fstab), "\n")
	changed := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		if len(fields) >= 3 && fields[2] == "swap" {
			lines[i] = "#" + line
			changed = true
		}
	}
	return []byte(strings.Join(lines, "")), changed
}

func modulesLoadFile() []byte {
	return []byte(strings.Join(kernelModules, "\n") + "\n")
}

// enableSystemdCgroup switches runc to the systemd cgroup driver in a
// containerd config generated by `containerd config default`.
func enableSystemdCgroup(config []byte) ([]byte, error) {
	if bytes.Contains(config, []byte("SystemdCgroup = true")) {
		return config, nil
	}
	if !bytes.Contains(config, []byte("SystemdCgroup = false")) {
		return nil, fmt.Errorf("containerd default config has no SystemdCgroup setting")
	}
	return bytes.ReplaceAll(config, []byte("SystemdCgroup = false"), []byte("SystemdCgroup = true")), nil
}

func kubeletDefaults(privateIP string) []byte {
	return []byte("KUBELET_EXTRA_ARGS=--node-ip=" + privateIP + "\n")
}

func kubernetesRepo(version string) string {
	return "https://pkgs.k8s.io/core:/stable:/v" + strings.TrimPrefix(version, "v") + "/deb/"
}

func kubernetesSourcesList(version string) []byte {
	return []byte(fmt.Sprintf("deb [signed-by=%s] %s /\n", kubernetesKeyring, kubernetesRepo(version)))
}
