package bootstrap

import (
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

// NewLogger returns a logr.Logger writing one key=value line per entry to
// w. cloud-init copies the agent's stderr into the boot log.
func NewLogger(w io.Writer, verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			_, _ = fmt.Fprintf(w, "%s: %s\n", prefix, args)
			return
		}
		_, _ = fmt.Fprintln(w, args)
	}, funcr.Options{
		LogTimestamp: true,
		Verbosity:    verbosity,
	}).WithName("kubestrap-agent")
}
