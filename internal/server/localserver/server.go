package localserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/yndnr/memkv-go/internal/server/redisserver"
)

// ErrSocketInUse is returned when another process accepts on the path.
var ErrSocketInUse = errors.New("socket in use")

// Config describes the socket.
type Config struct {
	// Path is the socket file.
	Path string
	// Perm is applied to the socket file when non-zero.
	Perm os.FileMode
}

// Server represents the local socket listener.
type Server struct {
	cfg    Config
	resp   *redisserver.Server
	logger *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// New creates a local server that hands connections to resp.
func New(cfg Config, resp *redisserver.Server, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:    cfg,
		resp:   resp,
		logger: logger.With("component", "localserver"),
	}
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.cfg.Path
}

// Listen creates the socket.
func (s *Server) Listen() error {
	if err := removeStale(s.cfg.Path); err != nil {
		return err
	}
	ln, err := net.Listen("unix", s.cfg.Path)
	if err != nil {
		return fmt.Errorf("listen unix %s: %w", s.cfg.Path, err)
	}
	if s.cfg.Perm != 0 {
		if err := os.Chmod(s.cfg.Path, s.cfg.Perm); err != nil {
			ln.Close()
			return fmt.Errorf("chmod %s: %w", s.cfg.Path, err)
		}
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	s.logger.Info("local socket listening", "path", s.cfg.Path)
	return nil
}

// Serve accepts connections until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("localserver: Serve called before Listen")
	}

	err := s.resp.Serve(ln)
	if errors.Is(err, redisserver.ErrServerClosed) {
		return nil
	}
	return err
}

// ListenAndServe creates the socket and serves it.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown closes the socket and removes its file. Sessions opened through
// the socket are drained by the RESP server's own Shutdown.
func (s *Server) Shutdown(_ context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	var closeErr error
	if ln != nil {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			closeErr = err
		}
	}
	if err := os.Remove(s.cfg.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(closeErr, err)
	}
	return closeErr
}

// removeStale deletes a socket file nobody is accepting on.
func removeStale(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("localserver: %s exists and is not a socket", path)
	}

	conn, err := net.DialTimeout("unix", path, 100*time.Millisecond)
	if err == nil {
		conn.Close()
		return fmt.Errorf("localserver: %s: %w", path, ErrSocketInUse)
	}
	return os.Remove(path)
}
