package nfsmount

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"runtime"

	billy "github.com/go-git/go-billy/v5"
	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"
)

// handleCacheSize bounds the file-handle cache of the NFS handler.
const handleCacheSize = 4096

// Server serves a filesystem over NFSv3 on localhost.
type Server struct {
	listener net.Listener
	port     int
	done     chan error
}

// NewServer starts serving fs on port; port 0 picks an ephemeral one.
func NewServer(fs billy.Filesystem, port int, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("nfs listen: %w", err)
	}
	s := &Server{
		listener: listener,
		port:     listener.Addr().(*net.TCPAddr).Port,
		done:     make(chan error, 1),
	}

	handler := nfshelper.NewNullAuthHandler(fs)
	cached := nfshelper.NewCachingHandler(handler, handleCacheSize)

	go func() {
		err := nfs.Serve(listener, cached)
		if errors.Is(err, net.ErrClosed) {
			err = nil
		}
		if err != nil {
			log.Error("nfs server stopped", "error", err)
		}
		s.done <- err
	}()
	log.Info("nfs server listening", "port", s.port)
	return s, nil
}

// Port returns the TCP port the server listens on.
func (s *Server) Port() int { return s.port }

// Wait blocks until the server stops or ctx ends, then closes it.
func (s *Server) Wait(ctx context.Context) error {
	select {
	case err := <-s.done:
		return err
	case <-ctx.Done():
		_ = s.Close()
		return nil
	}
}

// Close stops the server by closing the listener.
func (s *Server) Close() error {
	return s.listener.Close()
}

// mountCommand builds the read-only mount invocation for the current OS.
func mountCommand(goos string, port int, mountpoint string) (*exec.Cmd, error) {
	var opts string
	switch goos {
	case "darwin":
		opts = fmt.Sprintf("port=%d,mountport=%d,vers=3,tcp,locallocks,noresvport,rdonly", port, port)
	case "linux":
		opts = fmt.Sprintf("port=%d,mountport=%d,vers=3,tcp,local_lock=all,nolock,ro", port, port)
	default:
		return nil, fmt.Errorf("unsupported OS: %s", goos)
	}
	return exec.Command("sudo", "mount", "-t", "nfs", "-o", opts, "localhost:/", mountpoint), nil
}

// Mount mounts the server at mountpoint with the system mount command.
// It needs sudo.
func Mount(port int, mountpoint string) error {
	cmd, err := mountCommand(runtime.GOOS, port, mountpoint)
	if err != nil {
		return err
	}
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("mount failed: %w\n%s", err, output)
	}
	return nil
}

// Unmount detaches mountpoint.
func Unmount(mountpoint string) error {
	if runtime.GOOS == "darwin" {
		// diskutil needs no sudo for user NFS mounts
		if err := exec.Command("diskutil", "unmount", mountpoint).Run(); err == nil {
			return nil
		}
	}
	output, err := exec.Command("sudo", "umount", mountpoint).CombinedOutput()
	if err != nil {
		return fmt.Errorf("unmount failed: %w\n%s", err, output)
	}
	return nil
}
