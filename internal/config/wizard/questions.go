package wizard

import (
	"context"
	"net"
	"regexp"
	"strings"

	"github.com/charmbracelet/huh"
)

// clusterNameRegex validates cluster name format: 1-32 lowercase alphanumeric with hyphens.
var clusterNameRegex = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,30}[a-z0-9])?$`)

var dnsNameRegex = regexp.MustCompile(`^([a-z0-9]([-a-z0-9]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`)

// runClusterIdentityGroup prompts for cluster name and location.
func runClusterIdentityGroup(ctx context.Context, result *WizardResult) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Cluster Name").
				Description("1-32 lowercase alphanumeric characters or hyphens").
				Placeholder("my-cluster").
				Value(&result.ClusterName).
				Validate(validateClusterName),
			huh.NewSelect[string]().
				Title("Location").
				Description("Hetzner Cloud datacenter").
				Options(LocationsToOptions()...).
				Value(&result.Location),
		).Title("Cluster Identity"),
	).RunWithContext(ctx)
}

// runSSHAccessGroup prompts for the Hetzner SSH key and its private half.
func runSSHAccessGroup(ctx context.Context, result *WizardResult) error {
	result.PrivateKeyPath = "~/.ssh/id_ed25519"

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("SSH Key Name").
				Description("Name of an SSH key already uploaded to Hetzner Cloud").
				Placeholder("my-key").
				Value(&result.SSHKeyName).
				Validate(validateRequired(errSSHKeyRequired)),
			huh.NewInput().
				Title("Private Key Path").
				Description("Used to fetch the admin kubeconfig from the control plane").
				Value(&result.PrivateKeyPath).
				Validate(validateRequired(errKeyPathRequired)),
		).Title("SSH Access"),
	).RunWithContext(ctx)
}

// runArchitectureGroup prompts for server architecture selection.
func runArchitectureGroup(ctx context.Context, result *WizardResult) error {
	result.Architecture = ArchX86 // default

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Server Architecture").
				Description("Choose the CPU architecture for your cluster nodes").
				Options(ArchitectureOptions...).
				Value(&result.Architecture),
		).Title("Architecture"),
	).RunWithContext(ctx)

	if err != nil {
		return err
	}

	// For x86, also ask about server category
	if result.Architecture == ArchX86 {
		result.ServerCategory = CategoryShared // default

		return huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Server Category").
					Description("Choose between shared, dedicated, or cost-optimized vCPUs").
					Options(ServerCategoryOptions...).
					Value(&result.ServerCategory),
			).Title("Server Category"),
		).RunWithContext(ctx)
	}

	// ARM only has shared category
	result.ServerCategory = CategoryShared
	return nil
}

// runNodesGroup prompts for the control plane, the workers and the
// Kubernetes version.
func runNodesGroup(ctx context.Context, result *WizardResult) error {
	types := availableServerTypes(result.Architecture, result.ServerCategory)
	if len(types) > 0 {
		result.ControlPlaneType = types[0].Value
		result.WorkerType = types[0].Value
	}
	result.WorkerCount = 2
	result.KubernetesVersion = KubernetesVersions[0].Value

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Control Plane Server Type").
				Options(ServerTypesToOptions(types)...).
				Value(&result.ControlPlaneType),
			huh.NewSelect[string]().
				Title("Worker Server Type").
				Options(ServerTypesToOptions(types)...).
				Value(&result.WorkerType),
			huh.NewSelect[int]().
				Title("Worker Count").
				Description("Workers are placed behind the ingress load balancer").
				Options(WorkerCountOptions...).
				Value(&result.WorkerCount),
			huh.NewSelect[string]().
				Title("Kubernetes Version").
				Options(VersionsToOptions(KubernetesVersions)...).
				Value(&result.KubernetesVersion),
		).Title("Nodes"),
	).RunWithContext(ctx)
}

// runAccessGroup prompts for who may reach SSH and the API.
func runAccessGroup(ctx context.Context, result *WizardResult) error {
	var cidrs string

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Admin CIDRs (Optional)").
				Description("Comma-separated networks allowed to reach SSH and the API. Leave empty for your current IP.").
				Placeholder("203.0.113.0/24").
				Value(&cidrs).
				Validate(validateCIDRList),
			huh.NewInput().
				Title("API DNS Name (Optional)").
				Description("Name written into the kubeconfig. Leave empty for the load balancer's name.").
				Placeholder("api.example.com").
				Value(&result.APIDNSName).
				Validate(validateDNSName),
		).Title("Access"),
	).RunWithContext(ctx)

	if err != nil {
		return err
	}

	result.AdminCIDRs = splitList(cidrs)
	return nil
}

// runNetworkGroup prompts for network CIDRs.
func runNetworkGroup(ctx context.Context, opts *AdvancedOptions) error {
	opts.NetworkCIDR = "10.0.0.0/16"
	opts.PodCIDR = "10.244.0.0/16"
	opts.ServiceCIDR = "10.96.0.0/12"

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Network CIDR").
				Description("Private network for the nodes and load balancers").
				Value(&opts.NetworkCIDR).
				Validate(validateCIDR),
			huh.NewInput().
				Title("Pod CIDR").
				Value(&opts.PodCIDR).
				Validate(validateCIDR),
			huh.NewInput().
				Title("Service CIDR").
				Value(&opts.ServiceCIDR).
				Validate(validateCIDR),
		).Title("Network"),
	).RunWithContext(ctx)
}

// runStateGroup prompts for remote storage of the join token set.
func runStateGroup(ctx context.Context, opts *AdvancedOptions) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("S3 Bucket (Optional)").
				Description("Keep the join token set in object storage. Leave empty for a local file.").
				Value(&opts.StateBucket),
			huh.NewInput().
				Title("S3 Endpoint (Optional)").
				Placeholder("https://fsn1.your-objectstorage.com").
				Value(&opts.StateEndpoint),
			huh.NewInput().
				Title("S3 Region (Optional)").
				Placeholder("fsn1").
				Value(&opts.StateRegion),
		).Title("Token State"),
	).RunWithContext(ctx)
}

// availableServerTypes filters server types, falling back to the shared
// category when a combination has none.
func availableServerTypes(arch, category string) []ServerTypeOption {
	types := FilterServerTypes(arch, category)
	if len(types) == 0 {
		types = FilterServerTypes(arch, CategoryShared)
	}
	return types
}

// validateClusterName validates the cluster name format.
func validateClusterName(s string) error {
	if s == "" {
		return errClusterNameRequired
	}
	if !clusterNameRegex.MatchString(s) {
		return errClusterNameInvalid
	}
	return nil
}

// validateCIDR validates a CIDR notation string using net.ParseCIDR.
func validateCIDR(s string) error {
	if s == "" {
		return errCIDRRequired
	}
	if _, _, err := net.ParseCIDR(s); err != nil {
		return errCIDRInvalid
	}
	return nil
}

// validateCIDRList accepts an empty list or comma-separated CIDRs.
func validateCIDRList(s string) error {
	for _, cidr := range splitList(s) {
		if err := validateCIDR(cidr); err != nil {
			return err
		}
	}
	return nil
}

// validateDNSName accepts an empty name or a lowercase DNS name.
func validateDNSName(s string) error {
	if s == "" || dnsNameRegex.MatchString(s) {
		return nil
	}
	return errDNSNameInvalid
}

func validateRequired(err error) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return err
		}
		return nil
	}
}

// splitList parses a comma-separated list, dropping empty entries.
func splitList(input string) []string {
	parts := strings.Split(input, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
