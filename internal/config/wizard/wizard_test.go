package wizard

import (
	"testing"
)

func TestBuildConfig(t *testing.T) {
	result := &WizardResult{
		ClusterName:       "my-cluster",
		Location:          "fsn1",
		SSHKeyName:        "my-key",
		PrivateKeyPath:    "/home/me/.ssh/id_ed25519",
		Architecture:      ArchX86,
		ServerCategory:    CategoryShared,
		ControlPlaneType:  "cpx31",
		WorkerType:        "cpx21",
		WorkerCount:       3,
		KubernetesVersion: "1.31",
		AdminCIDRs:        []string{"203.0.113.0/24"},
		APIDNSName:        "api.example.com",
	}

	cfg := BuildConfig(result)

	if cfg.ClusterName != "my-cluster" {
		t.Errorf("ClusterName = %q, want %q", cfg.ClusterName, "my-cluster")
	}
	if cfg.Location != "fsn1" {
		t.Errorf("Location = %q, want %q", cfg.Location, "fsn1")
	}
	if cfg.ControlPlane.ServerType != "cpx31" {
		t.Errorf("ControlPlane.ServerType = %q, want %q", cfg.ControlPlane.ServerType, "cpx31")
	}
	if cfg.Workers.Count != 3 || cfg.Workers.ServerType != "cpx21" {
		t.Errorf("Workers = %+v, want 3 x cpx21", cfg.Workers)
	}
	if cfg.SSH.KeyName != "my-key" {
		t.Errorf("SSH.KeyName = %q, want %q", cfg.SSH.KeyName, "my-key")
	}
	if cfg.SSH.PrivateKeyPath != "/home/me/.ssh/id_ed25519" {
		t.Errorf("SSH.PrivateKeyPath = %q", cfg.SSH.PrivateKeyPath)
	}
	if cfg.API.DNSName != "api.example.com" {
		t.Errorf("API.DNSName = %q, want %q", cfg.API.DNSName, "api.example.com")
	}
	if len(cfg.AdminAllowedCIDRs) != 1 || cfg.AdminAllowedCIDRs[0] != "203.0.113.0/24" {
		t.Errorf("AdminAllowedCIDRs = %v", cfg.AdminAllowedCIDRs)
	}
	if cfg.State.S3.Enabled() {
		t.Error("S3 state should stay disabled without advanced options")
	}
}

func TestBuildConfig_NoAdminCIDRs(t *testing.T) {
	cfg := BuildConfig(&WizardResult{ClusterName: "c", Location: "nbg1"})

	if cfg.AdminAllowedCIDRs != nil {
		t.Errorf("AdminAllowedCIDRs = %v, want nil so the public IP is used", cfg.AdminAllowedCIDRs)
	}
}

func TestBuildConfig_AdvancedOptions(t *testing.T) {
	result := &WizardResult{
		ClusterName: "adv",
		Location:    "hel1",
		AdvancedOptions: &AdvancedOptions{
			NetworkCIDR:   "10.10.0.0/16",
			PodCIDR:       "10.20.0.0/16",
			ServiceCIDR:   "10.30.0.0/16",
			StateBucket:   "tokens",
			StateEndpoint: "https://hel1.your-objectstorage.com",
			StateRegion:   "hel1",
		},
	}

	cfg := BuildConfig(result)

	if cfg.Network.IPv4CIDR != "10.10.0.0/16" {
		t.Errorf("Network.IPv4CIDR = %q", cfg.Network.IPv4CIDR)
	}
	if cfg.Network.PodIPv4CIDR != "10.20.0.0/16" {
		t.Errorf("Network.PodIPv4CIDR = %q", cfg.Network.PodIPv4CIDR)
	}
	if cfg.Network.ServiceIPv4CIDR != "10.30.0.0/16" {
		t.Errorf("Network.ServiceIPv4CIDR = %q", cfg.Network.ServiceIPv4CIDR)
	}
	if !cfg.State.S3.Enabled() {
		t.Fatal("S3 state should be enabled")
	}
	if cfg.State.S3.Endpoint != "https://hel1.your-objectstorage.com" || cfg.State.S3.Region != "hel1" {
		t.Errorf("State.S3 = %+v", cfg.State.S3)
	}
}

func TestValidateClusterName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"valid", "my-cluster", nil},
		{"single char", "a", nil},
		{"max length", "a234567890123456789012345678901b", nil},
		{"empty", "", errClusterNameRequired},
		{"uppercase", "My-Cluster", errClusterNameInvalid},
		{"leading hyphen", "-cluster", errClusterNameInvalid},
		{"trailing hyphen", "cluster-", errClusterNameInvalid},
		{"too long", "a2345678901234567890123456789012b", errClusterNameInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateClusterName(tt.input); err != tt.wantErr {
				t.Errorf("validateClusterName(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCIDR(t *testing.T) {
	tests := []struct {
		input   string
		wantErr error
	}{
		{"10.0.0.0/16", nil},
		{"192.168.1.0/24", nil},
		{"", errCIDRRequired},
		{"10.0.0.0", errCIDRInvalid},
		{"not-a-cidr", errCIDRInvalid},
	}

	for _, tt := range tests {
		if err := validateCIDR(tt.input); err != tt.wantErr {
			t.Errorf("validateCIDR(%q) = %v, want %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateCIDRList(t *testing.T) {
	if err := validateCIDRList(""); err != nil {
		t.Errorf("empty list should be accepted, got %v", err)
	}
	if err := validateCIDRList("203.0.113.0/24, 198.51.100.7/32"); err != nil {
		t.Errorf("valid list rejected: %v", err)
	}
	if err := validateCIDRList("203.0.113.0/24, nope"); err != errCIDRInvalid {
		t.Errorf("validateCIDRList = %v, want %v", err, errCIDRInvalid)
	}
}

func TestValidateDNSName(t *testing.T) {
	for _, ok := range []string{"", "api.example.com", "k8s.prod.example.io"} {
		if err := validateDNSName(ok); err != nil {
			t.Errorf("validateDNSName(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"localhost", "API.example.com", "-api.example.com"} {
		if err := validateDNSName(bad); err != errDNSNameInvalid {
			t.Errorf("validateDNSName(%q) = %v, want %v", bad, err, errDNSNameInvalid)
		}
	}
}

func TestValidateRequired(t *testing.T) {
	check := validateRequired(errSSHKeyRequired)
	if err := check("  "); err != errSSHKeyRequired {
		t.Errorf("blank input = %v, want %v", err, errSSHKeyRequired)
	}
	if err := check("my-key"); err != nil {
		t.Errorf("my-key = %v, want nil", err)
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b ,c")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
