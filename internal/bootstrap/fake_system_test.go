package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
)

type fakeFile struct {
	data []byte
	perm fs.FileMode
}

// fakeSystem records commands and keeps files in memory. Handlers are keyed
// by "<name> <first arg>" and then by "<name>".
type fakeSystem struct {
	mu       sync.Mutex
	files    map[string]fakeFile
	commands []string
	handlers map[string]func(args []string) ([]byte, error)
	writes   int
}

const defaultContainerdConfig = `version = 2
[plugins."io.containerd.grpc.v1.cri".containerd.runtimes.runc.options]
            SystemdCgroup = false
`

func newFakeSystem() *fakeSystem {
	f := &fakeSystem{
		files:    map[string]fakeFile{},
		handlers: map[string]func(args []string) ([]byte, error){},
	}
	f.handlers["containerd config"] = func([]string) ([]byte, error) {
		return []byte(defaultContainerdConfig), nil
	}
	f.handlers["kubeadm init"] = func([]string) ([]byte, error) {
		f.putFile(AdminKubeconfigPath, []byte("apiVersion: v1\nkind: Config\n"), 0o600)
		return nil, nil
	}
	f.handlers["kubeadm join"] = func([]string) ([]byte, error) {
		f.putFile(KubeletKubeconfigPath, []byte("apiVersion: v1\nkind: Config\n"), 0o600)
		return nil, nil
	}
	return f
}

func (f *fakeSystem) on(key string, h func(args []string) ([]byte, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[key] = h
}

func (f *fakeSystem) putFile(path string, data []byte, perm fs.FileMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = fakeFile{data: append([]byte(nil), data...), perm: perm}
}

func (f *fakeSystem) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.commands = append(f.commands, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	var h func([]string) ([]byte, error)
	if len(args) > 0 {
		h = f.handlers[name+" "+args[0]]
	}
	if h == nil {
		h = f.handlers[name]
	}
	f.mu.Unlock()

	if h == nil {
		return nil, nil
	}
	out, err := h(args)
	if err != nil {
		return out, &CommandError{Command: name, Output: string(out), Err: err}
	}
	return out, nil
}

func (f *fakeSystem) ReadFile(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return append([]byte(nil), file.data...), nil
}

func (f *fakeSystem) WriteFile(path string, data []byte, perm fs.FileMode) error {
	f.mu.Lock()
	f.writes++
	f.mu.Unlock()
	f.putFile(path, data, perm)
	return nil
}

func (f *fakeSystem) Exists(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok
}

func (f *fakeSystem) file(path string) (fakeFile, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[path]
	return file, ok
}

func (f *fakeSystem) ran(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.commands {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeSystem) commandLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

// snapshot copies the file map, ignoring the progress file.
func (f *fakeSystem) snapshot() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for path, file := range f.files {
		out[path] = fmt.Sprintf("%o:%s", file.perm, file.data)
	}
	return out
}

var errCommandFailed = errors.New("exit status 1")
