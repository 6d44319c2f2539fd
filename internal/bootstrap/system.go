package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
)

// System is the agent's view of the host.
type System interface {
	// Run executes a command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	// ReadFile returns an error wrapping fs.ErrNotExist for missing files.
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces path, creating parent directories.
	WriteFile(path string, data []byte, perm fs.FileMode) error
	Exists(path string) bool
}

// HostSystem runs commands and touches files on the local machine.
type HostSystem struct {
	Log logr.Logger
}

// NewHostSystem returns a HostSystem logging through log.
func NewHostSystem(log logr.Logger) *HostSystem {
	return &HostSystem{Log: log}
}

// Run implements System.
func (h *HostSystem) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	h.Log.V(1).Info("exec", "cmd", name, "args", strings.Join(args, " "))

	// #nosec G204
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.Bytes(), &CommandError{Command: name + " " + strings.Join(args, " "), Output: out.String(), Err: err}
	}
	return out.Bytes(), nil
}

// ReadFile implements System.
func (h *HostSystem) ReadFile(path string) ([]byte, error) {
	// #nosec G304
	return os.ReadFile(path)
}

// WriteFile implements System. The file is written next to its final
// location and renamed into place.
func (h *HostSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Exists implements System.
func (h *HostSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CommandError is returned when a command exits unsuccessfully.
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if len(out) > 2048 {
		out = "..." + out[len(out)-2048:]
	}
	if out == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, out)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
