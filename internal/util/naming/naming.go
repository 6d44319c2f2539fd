package naming

import "fmt"

func Network(cluster string) string {
	return cluster
}

func Firewall(cluster string) string {
	return cluster
}

func KubeAPILoadBalancer(cluster string) string {
	return fmt.Sprintf("%s-kube-api", cluster)
}

func IngressLoadBalancer(cluster string) string {
	return fmt.Sprintf("%s-ingress", cluster)
}

func ControlPlane(cluster string) string {
	return fmt.Sprintf("%s-control-plane", cluster)
}

func Worker(cluster string, index int) string {
	return fmt.Sprintf("%s-worker-%d", cluster, index)
}

// StateObject is the object key used by remote state stores.
func StateObject(cluster string) string {
	return fmt.Sprintf("%s/kubestrap-state.yaml", cluster)
}
