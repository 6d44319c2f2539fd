package wizard

import "github.com/charmbracelet/huh"

// Architecture choices.
const (
	ArchX86 = "x86"
	ArchARM = "arm"
)

// Server categories.
const (
	CategoryShared        = "shared"
	CategoryDedicated     = "dedicated"
	CategoryCostOptimized = "cost-optimized"
)

// LocationOption represents a Hetzner Cloud datacenter location.
type LocationOption struct {
	Value       string
	Label       string
	Description string
}

// ServerTypeOption represents a Hetzner Cloud server type.
type ServerTypeOption struct {
	Value        string
	Label        string
	Description  string
	Architecture string
	Category     string
}

// VersionOption represents a Kubernetes minor version.
type VersionOption struct {
	Value       string
	Label       string
	Description string
}

// Locations contains all valid Hetzner Cloud datacenter locations.
var Locations = []LocationOption{
	{Value: "nbg1", Label: "nbg1", Description: "Nuremberg, Germany"},
	{Value: "fsn1", Label: "fsn1", Description: "Falkenstein, Germany"},
	{Value: "hel1", Label: "hel1", Description: "Helsinki, Finland"},
	{Value: "ash", Label: "ash", Description: "Ashburn, USA"},
	{Value: "hil", Label: "hil", Description: "Hillsboro, USA"},
	{Value: "sin", Label: "sin", Description: "Singapore"},
}

// ServerTypes lists the server types offered for both roles. kubeadm needs
// at least 2 vCPUs and 2GB RAM, so the smallest types are left out.
var ServerTypes = []ServerTypeOption{
	{Value: "cpx21", Label: "cpx21", Description: "3 vCPU, 4GB RAM", Architecture: ArchX86, Category: CategoryShared},
	{Value: "cpx31", Label: "cpx31", Description: "4 vCPU, 8GB RAM", Architecture: ArchX86, Category: CategoryShared},
	{Value: "cpx41", Label: "cpx41", Description: "8 vCPU, 16GB RAM", Architecture: ArchX86, Category: CategoryShared},
	{Value: "cpx51", Label: "cpx51", Description: "16 vCPU, 32GB RAM", Architecture: ArchX86, Category: CategoryShared},
	{Value: "cx22", Label: "cx22", Description: "2 vCPU, 4GB RAM", Architecture: ArchX86, Category: CategoryCostOptimized},
	{Value: "cx32", Label: "cx32", Description: "4 vCPU, 8GB RAM", Architecture: ArchX86, Category: CategoryCostOptimized},
	{Value: "cx42", Label: "cx42", Description: "8 vCPU, 16GB RAM", Architecture: ArchX86, Category: CategoryCostOptimized},
	{Value: "ccx13", Label: "ccx13", Description: "2 vCPU, 8GB RAM", Architecture: ArchX86, Category: CategoryDedicated},
	{Value: "ccx23", Label: "ccx23", Description: "4 vCPU, 16GB RAM", Architecture: ArchX86, Category: CategoryDedicated},
	{Value: "ccx33", Label: "ccx33", Description: "8 vCPU, 32GB RAM", Architecture: ArchX86, Category: CategoryDedicated},
	{Value: "cax11", Label: "cax11", Description: "2 vCPU, 4GB RAM", Architecture: ArchARM, Category: CategoryShared},
	{Value: "cax21", Label: "cax21", Description: "4 vCPU, 8GB RAM", Architecture: ArchARM, Category: CategoryShared},
	{Value: "cax31", Label: "cax31", Description: "8 vCPU, 16GB RAM", Architecture: ArchARM, Category: CategoryShared},
	{Value: "cax41", Label: "cax41", Description: "16 vCPU, 32GB RAM", Architecture: ArchARM, Category: CategoryShared},
}

// KubernetesVersions contains the offered Kubernetes minor versions.
var KubernetesVersions = []VersionOption{
	{Value: "1.31", Label: "1.31", Description: "Latest stable"},
	{Value: "1.30", Label: "1.30", Description: "Previous stable"},
}

// ArchitectureOptions contains the architecture choices.
var ArchitectureOptions = []huh.Option[string]{
	huh.NewOption("x86 (AMD/Intel)", ArchX86),
	huh.NewOption("ARM (Ampere)", ArchARM),
}

// ServerCategoryOptions contains the x86 server categories.
var ServerCategoryOptions = []huh.Option[string]{
	huh.NewOption("Shared vCPU", CategoryShared),
	huh.NewOption("Cost-optimized", CategoryCostOptimized),
	huh.NewOption("Dedicated vCPU", CategoryDedicated),
}

// WorkerCountOptions contains common worker counts.
var WorkerCountOptions = []huh.Option[int]{
	huh.NewOption("0 (control plane only)", 0),
	huh.NewOption("1", 1),
	huh.NewOption("2", 2),
	huh.NewOption("3", 3),
	huh.NewOption("5", 5),
	huh.NewOption("10", 10),
}

// FilterServerTypes returns the server types of one architecture and
// category. ARM types only come in the shared category.
func FilterServerTypes(arch, category string) []ServerTypeOption {
	var out []ServerTypeOption
	for _, st := range ServerTypes {
		if st.Architecture == arch && st.Category == category {
			out = append(out, st)
		}
	}
	return out
}

// LocationsToOptions converts LocationOption slice to huh.Option slice.
func LocationsToOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], len(Locations))
	for i, loc := range Locations {
		opts[i] = huh.NewOption(loc.Label+" - "+loc.Description, loc.Value)
	}
	return opts
}

// ServerTypesToOptions converts ServerTypeOption slice to huh.Option slice.
func ServerTypesToOptions(types []ServerTypeOption) []huh.Option[string] {
	opts := make([]huh.Option[string], len(types))
	for i, st := range types {
		opts[i] = huh.NewOption(st.Label+" - "+st.Description, st.Value)
	}
	return opts
}

// VersionsToOptions converts VersionOption slice to huh.Option slice.
func VersionsToOptions(versions []VersionOption) []huh.Option[string] {
	opts := make([]huh.Option[string], len(versions))
	for i, v := range versions {
		opts[i] = huh.NewOption(v.Label+" - "+v.Description, v.Value)
	}
	return opts
}
