package wizard

import (
	"testing"

	hcloud_internal "github.com/imamik/kubestrap/internal/platform/hcloud"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterServerTypes(t *testing.T) {
	tests := []struct {
		arch, category string
		contains       []string
	}{
		{ArchX86, CategoryShared, []string{"cpx21", "cpx31"}},
		{ArchX86, CategoryDedicated, []string{"ccx13", "ccx23"}},
		{ArchX86, CategoryCostOptimized, []string{"cx22", "cx32"}},
		{ArchARM, CategoryShared, []string{"cax11", "cax21"}},
	}

	for _, tt := range tests {
		t.Run(tt.arch+"/"+tt.category, func(t *testing.T) {
			filtered := FilterServerTypes(tt.arch, tt.category)
			require.NotEmpty(t, filtered)
			for _, st := range filtered {
				assert.Equal(t, tt.arch, st.Architecture)
				assert.Equal(t, tt.category, st.Category)
			}
			values := make([]string, len(filtered))
			for i, st := range filtered {
				values[i] = st.Value
			}
			for _, v := range tt.contains {
				assert.Contains(t, values, v)
			}
		})
	}
}

func TestAvailableServerTypes_FallsBackToShared(t *testing.T) {
	types := availableServerTypes(ArchARM, CategoryDedicated)
	require.NotEmpty(t, types)
	assert.Equal(t, CategoryShared, types[0].Category)
}

// The agent download URL is derived from the server type, so the labels
// offered here must agree with the architecture detection.
func TestServerTypes_ArchitectureMatchesDetection(t *testing.T) {
	for _, st := range ServerTypes {
		want := hcloud.ArchitectureX86
		if st.Architecture == ArchARM {
			want = hcloud.ArchitectureARM
		}
		assert.Equal(t, want, hcloud_internal.ServerTypeArchitecture(st.Value), st.Value)
	}
}

func TestLocationsToOptions(t *testing.T) {
	opts := LocationsToOptions()
	require.Len(t, opts, len(Locations))
	assert.Equal(t, "nbg1", opts[0].Value)
	assert.Equal(t, "nbg1 - Nuremberg, Germany", opts[0].Key)
}

func TestServerTypesToOptions(t *testing.T) {
	opts := ServerTypesToOptions(FilterServerTypes(ArchARM, CategoryShared))
	require.NotEmpty(t, opts)
	assert.Equal(t, "cax11", opts[0].Value)
	assert.Contains(t, opts[0].Key, "2 vCPU")
}

func TestVersionsToOptions(t *testing.T) {
	opts := VersionsToOptions(KubernetesVersions)
	require.Len(t, opts, len(KubernetesVersions))
	assert.Equal(t, "1.31", opts[0].Value)
}
