package prerequisites

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubLookPath(t *testing.T, present map[string]string) {
	t.Helper()
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(name string) (string, error) {
		if p, ok := present[name]; ok {
			return p, nil
		}
		return "", exec.ErrNotFound
	}
}

func TestCheck_SplitsFoundAndMissing(t *testing.T) {
	stubLookPath(t, map[string]string{"ssh": "/nonexistent/ssh"})

	results := Check(Kubectl, SSH)

	require.Len(t, results.Found, 1)
	assert.Equal(t, "ssh", results.Found[0].Tool.Name)
	assert.Equal(t, "/nonexistent/ssh", results.Found[0].Path)
	// The binary does not exist, so no version is reported.
	assert.Empty(t, results.Found[0].Version)
	assert.Equal(t, []string{"kubectl"}, results.MissingNames())
}

func TestCheck_ProbesVersion(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not in PATH")
	}
	stubLookPath(t, map[string]string{"fake": sh})

	results := Check(Tool{Name: "fake", VersionArgs: []string{"-c", "echo fake 1.2.3; echo second line"}})

	require.Len(t, results.Found, 1)
	assert.Equal(t, "fake 1.2.3", results.Found[0].Version)
}

func TestCheck_NoVersionArgs(t *testing.T) {
	stubLookPath(t, map[string]string{"fake": "/bin/true"})

	results := Check(Tool{Name: "fake"})
	require.Len(t, results.Found, 1)
	assert.Empty(t, results.Found[0].Version)
}

func TestCheckDefault_OnlyKubectl(t *testing.T) {
	var asked []string
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })
	lookPath = func(name string) (string, error) {
		asked = append(asked, name)
		return "", errors.New("missing")
	}

	results := CheckDefault()
	assert.Equal(t, []string{"kubectl"}, asked)
	assert.Equal(t, []string{"kubectl"}, results.MissingNames())
}

func TestCheckAll(t *testing.T) {
	stubLookPath(t, nil)
	assert.ElementsMatch(t, []string{"kubectl", "ssh"}, CheckAll().MissingNames())
}
