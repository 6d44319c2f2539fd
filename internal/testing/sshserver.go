package testing

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"os"
	"path"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// ExecHandler answers a command run over SSH with its output and exit status.
type ExecHandler func(user, command string) (output string, exitStatus int)

// SSHServer is an in-process SSH server that serves exec requests through
// an ExecHandler and SFTP reads from an in-memory file map.
type SSHServer struct {
	Host string
	Port int

	listener net.Listener
	config   *ssh.ServerConfig

	mu       sync.Mutex
	handler  ExecHandler
	files    map[string][]byte
	commands []string
	wg       sync.WaitGroup
}

// NewSSHServer starts a server on the loopback interface that accepts
// only authorizedKey. It is stopped when the test ends.
func NewSSHServer(t testing.TB, authorizedKey ssh.PublicKey) *SSHServer {
	t.Helper()

	_, hostKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate host key: %v", err)
	}
	hostSigner, err := ssh.NewSignerFromKey(hostKey)
	if err != nil {
		t.Fatalf("failed to create host signer: %v", err)
	}

	s := &SSHServer{
		files:   map[string][]byte{},
		handler: func(string, string) (string, int) { return "", 0 },
	}
	s.config = &ssh.ServerConfig{
		PublicKeyCallback: func(_ ssh.ConnMetadata, key ssh.PublicKey) (*ssh.Permissions, error) {
			if bytes.Equal(key.Marshal(), authorizedKey.Marshal()) {
				return &ssh.Permissions{}, nil
			}
			return nil, errors.New("unknown public key")
		},
	}
	s.config.AddHostKey(hostSigner)

	s.listener, err = net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	addr := s.listener.Addr().(*net.TCPAddr)
	s.Host = addr.IP.String()
	s.Port = addr.Port

	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// Addr returns host:port.
func (s *SSHServer) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Close stops accepting connections.
func (s *SSHServer) Close() {
	_ = s.listener.Close()
	s.wg.Wait()
}

// HandleExec replaces the exec handler.
func (s *SSHServer) HandleExec(h ExecHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// PutFile makes data readable over SFTP at the absolute path p.
func (s *SSHServer) PutFile(p string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[p] = append([]byte(nil), data...)
}

// Commands returns every command executed so far.
func (s *SSHServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *SSHServer) file(p string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[p]
	return data, ok
}

func (s *SSHServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *SSHServer) handleConn(conn net.Conn) {
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(time.Now().Add(30 * time.Second))

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, s.config)
	if err != nil {
		return
	}
	defer func() { _ = sshConn.Close() }()
	go ssh.DiscardRequests(reqs)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			_ = newChan.Reject(ssh.UnknownChannelType, "only sessions are supported")
			continue
		}
		channel, requests, err := newChan.Accept()
		if err != nil {
			continue
		}
		go s.handleSession(sshConn.User(), channel, requests)
	}
}

func (s *SSHServer) handleSession(user string, channel ssh.Channel, requests <-chan *ssh.Request) {
	defer func() { _ = channel.Close() }()

	for req := range requests {
		switch req.Type {
		case "exec":
			var payload struct{ Command string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)

			s.mu.Lock()
			s.commands = append(s.commands, payload.Command)
			handler := s.handler
			s.mu.Unlock()

			output, status := handler(user, payload.Command)
			_, _ = io.WriteString(channel, output)
			exit := make([]byte, 4)
			binary.BigEndian.PutUint32(exit, uint32(status)) // #nosec G115
			_, _ = channel.SendRequest("exit-status", false, exit)
			return

		case "subsystem":
			var payload struct{ Name string }
			if err := ssh.Unmarshal(req.Payload, &payload); err != nil || payload.Name != "sftp" {
				_ = req.Reply(false, nil)
				continue
			}
			_ = req.Reply(true, nil)

			fs := memFS{s}
			server := sftp.NewRequestServer(channel, sftp.Handlers{
				FileGet:  fs,
				FilePut:  fs,
				FileCmd:  fs,
				FileList: fs,
			})
			_ = server.Serve()
			_ = server.Close()
			return

		default:
			if req.WantReply {
				_ = req.Reply(false, nil)
			}
		}
	}
}

// memFS is a read-only SFTP backend over the server's file map.
type memFS struct {
	s *SSHServer
}

func (m memFS) Fileread(r *sftp.Request) (io.ReaderAt, error) {
	data, ok := m.s.file(r.Filepath)
	if !ok {
		return nil, os.ErrNotExist
	}
	return bytes.NewReader(data), nil
}

func (m memFS) Filewrite(*sftp.Request) (io.WriterAt, error) {
	return nil, os.ErrPermission
}

func (m memFS) Filecmd(*sftp.Request) error {
	return os.ErrPermission
}

func (m memFS) Filelist(r *sftp.Request) (sftp.ListerAt, error) {
	switch r.Method {
	case "Stat", "Lstat":
		data, ok := m.s.file(r.Filepath)
		if !ok {
			return nil, os.ErrNotExist
		}
		return listerAt{memFileInfo{name: path.Base(r.Filepath), size: int64(len(data))}}, nil
	}
	return nil, os.ErrPermission
}

type listerAt []os.FileInfo

func (l listerAt) ListAt(out []os.FileInfo, offset int64) (int, error) {
	if offset >= int64(len(l)) {
		return 0, io.EOF
	}
	n := copy(out, l[offset:])
	if n < len(out) {
		return n, io.EOF
	}
	return n, nil
}

type memFileInfo struct {
	name string
	size int64
}

func (fi memFileInfo) Name() string       { return fi.name }
func (fi memFileInfo) Size() int64        { return fi.size }
func (fi memFileInfo) Mode() os.FileMode  { return 0o600 }
func (fi memFileInfo) ModTime() time.Time { return time.Time{} }
func (fi memFileInfo) IsDir() bool        { return false }
func (fi memFileInfo) Sys() any           { return nil }
