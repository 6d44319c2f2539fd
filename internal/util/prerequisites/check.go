// Package prerequisites looks up the client tools used alongside
// kubestrap. Provisioning never depends on them, so a missing tool is
// reported, not fatal.
package prerequisites

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// Tool is a binary looked up in PATH.
type Tool struct {
	Name        string
	Description string
	InstallURL  string
	// VersionArgs prints the tool's version on the first output line.
	VersionArgs []string
}

// Kubectl reads the kubeconfig written by apply.
var Kubectl = Tool{
	Name:        "kubectl",
	Description: "uses the kubeconfig written by apply",
	InstallURL:  "https://kubernetes.io/docs/tasks/tools/",
	VersionArgs: []string{"version", "--client"},
}

// SSH reaches nodes whose boot sequence failed.
var SSH = Tool{
	Name:        "ssh",
	Description: "reads /var/log/cloud-init-output.log on a node",
	InstallURL:  "https://www.openssh.com/",
	VersionArgs: []string{"-V"},
}

// Found is a tool present in PATH.
type Found struct {
	Tool    Tool
	Path    string
	Version string
}

// CheckResults lists which tools were found.
type CheckResults struct {
	Found   []Found
	Missing []Tool
}

// MissingNames returns the names of the missing tools.
func (r *CheckResults) MissingNames() []string {
	names := make([]string, 0, len(r.Missing))
	for _, t := range r.Missing {
		names = append(names, t.Name)
	}
	return names
}

var (
	lookPath = exec.LookPath
	// versionTimeout bounds a single version probe.
	versionTimeout = 2 * time.Second
)

// Check looks up tools in PATH and probes the version of those found.
func Check(tools ...Tool) *CheckResults {
	results := &CheckResults{}
	for _, tool := range tools {
		path, err := lookPath(tool.Name)
		if err != nil {
			results.Missing = append(results.Missing, tool)
			continue
		}
		results.Found = append(results.Found, Found{Tool: tool, Path: path, Version: version(path, tool.VersionArgs)})
	}
	return results
}

// CheckDefault checks the tools mentioned in apply's output.
func CheckDefault() *CheckResults {
	return Check(Kubectl)
}

// CheckAll checks every known tool.
func CheckAll() *CheckResults {
	return Check(Kubectl, SSH)
}

func version(path string, args []string) string {
	if len(args) == 0 {
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), versionTimeout)
	defer cancel()

	// #nosec G204 - path and args come from the fixed tool list
	output, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	if err != nil {
		return ""
	}
	first, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(first)
}
