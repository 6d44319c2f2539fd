package handlers

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorRed    = lipgloss.Color("#ef4444")
	colorYellow = lipgloss.Color("#eab308")
	colorBlue   = lipgloss.Color("#3b82f6")
	colorDim    = lipgloss.Color("#6b7280")

	titleStyle = lipgloss.NewStyle().Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue).
			MarginTop(1)

	readyStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	failedStyle  = lipgloss.NewStyle().Foreground(colorRed)
	warningStyle = lipgloss.NewStyle().Foreground(colorYellow)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	checkMark = "[OK]"
	crossMark = "[!!]"
	warnMark  = "[??]"
)

// renderStatusStyled renders the report for a terminal.
func renderStatusStyled(r *StatusReport) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("kubestrap cluster: %s", r.ClusterName)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  (%s, API %s)", r.Location, r.APIHost)))
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render("Load Balancers"))
	b.WriteString("\n")
	for _, pool := range r.Pools {
		b.WriteString("  " + pool.LoadBalancer + "\n")
		if len(pool.Targets) == 0 {
			b.WriteString("    " + warningStyle.Render(warnMark) + dimStyle.Render(" no targets") + "\n")
		}
		for _, t := range pool.Targets {
			mark := failedStyle.Render(crossMark)
			if t.Healthy() {
				mark = readyStyle.Render(checkMark)
			}
			fmt.Fprintf(&b, "    %s %s %s\n", mark, t.Server, dimStyle.Render(fmt.Sprintf(":%d %s", t.ListenPort, t.Status)))
		}
	}

	b.WriteString(sectionStyle.Render("Nodes"))
	b.WriteString("\n")
	for _, n := range r.Nodes {
		var mark string
		switch {
		case n.Ready:
			mark = readyStyle.Render(checkMark)
		case n.Registered || r.NodesError != "":
			mark = warningStyle.Render(warnMark)
		default:
			mark = failedStyle.Render(crossMark)
		}
		fmt.Fprintf(&b, "  %s %-28s %s\n", mark, n.Name, dimStyle.Render(nodeDetail(n)))
	}
	if r.NodesError != "" {
		b.WriteString("  " + warningStyle.Render(r.NodesError) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderStatusPlain renders the report for logs and pipes.
func renderStatusPlain(r *StatusReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "kubestrap cluster: %s (%s)\n", r.ClusterName, r.Location)
	fmt.Fprintf(&b, "API: %s\n\n", r.APIHost)

	b.WriteString("Load Balancers:\n")
	for _, pool := range r.Pools {
		healthy := 0
		for _, t := range pool.Targets {
			if t.Healthy() {
				healthy++
			}
		}
		fmt.Fprintf(&b, "  %s (%d/%d healthy)\n", pool.LoadBalancer, healthy, len(pool.Targets))
		for _, t := range pool.Targets {
			fmt.Fprintf(&b, "    %s %s :%d %s\n", indicator(t.Healthy()), t.Server, t.ListenPort, t.Status)
		}
	}

	b.WriteString("\nNodes:\n")
	for _, n := range r.Nodes {
		fmt.Fprintf(&b, "  %s %s (%s)\n", indicator(n.Ready), n.Name, nodeDetail(n))
	}
	if r.NodesError != "" {
		fmt.Fprintf(&b, "  Node readiness unknown: %s\n", r.NodesError)
	}
	return b.String()
}

func indicator(ok bool) string {
	if ok {
		return "✓"
	}
	return "○"
}

func nodeDetail(n NodeStatus) string {
	parts := []string{n.Role}
	if n.PrivateIP != "" {
		parts = append(parts, n.PrivateIP)
	}
	switch {
	case n.Ready:
		parts = append(parts, "Ready")
	case n.Registered:
		parts = append(parts, "NotReady")
	case n.PrivateIP == "":
		parts = append(parts, "not a server of this cluster")
	default:
		parts = append(parts, "not registered")
	}
	if n.Registered && n.Kubelet != "" {
		parts = append(parts, n.Kubelet)
	}
	if n.Surplus {
		parts = append(parts, "surplus")
	}
	return strings.Join(parts, ", ")
}
