package redisserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/memkv-go/internal/core/domain"
	"github.com/yndnr/memkv-go/internal/storage/memory"
	"github.com/yndnr/memkv-go/internal/telemetry/logger"
	"github.com/yndnr/memkv-go/internal/telemetry/metric"
	"github.com/yndnr/memkv-go/pkg/resp"
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("redisserver: invalid config")

// ErrServerClosed is returned by Serve after Shutdown.
var ErrServerClosed = errors.New("redisserver: server closed")

const readBufferSize = 16 * 1024

// Config holds the RESP server configuration.
type Config struct {
	// Address is the host:port to listen on (default: 127.0.0.1:6379).
	Address string
	// Databases is the number of logical databases (default: 16).
	Databases int
	// RunID identifies this server instance. A ULID is generated when empty.
	RunID string
	// IdleTimeout closes connections idle between commands (0 disables).
	IdleTimeout time.Duration
	// WriteTimeout bounds each reply flush (default: 30s).
	WriteTimeout time.Duration
	// RateLimit is the maximum commands per second per session.
	// Set to 0 to disable rate limiting.
	RateLimit int
	// MaxClients caps concurrent sessions (0 = unlimited).
	MaxClients int
	// ReplicaOf is the "host port" of a master. Reported by INFO only.
	ReplicaOf string
	// BacklogSize is the replication backlog size in bytes. Reported by
	// INFO only.
	BacklogSize uint64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:6379",
		Databases:    memory.DefaultDatabases,
		IdleTimeout:  0,
		WriteTimeout: 30 * time.Second,
		RateLimit:    0,
		MaxClients:   10000,
		BacklogSize:  1 << 20,
	}
}

// Validate checks the configuration before any socket is opened.
func (c *Config) Validate() error {
	if _, err := ParseHostPort(c.Address); err != nil {
		return fmt.Errorf("%w: address: %v", ErrInvalidConfig, err)
	}
	if c.Databases < 1 {
		return fmt.Errorf("%w: databases must be >= 1, got %d", ErrInvalidConfig, c.Databases)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must be >= 0", ErrInvalidConfig)
	}
	if c.MaxClients < 0 {
		return fmt.Errorf("%w: max clients must be >= 0", ErrInvalidConfig)
	}
	if c.IdleTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("%w: timeouts must be >= 0", ErrInvalidConfig)
	}
	if c.ReplicaOf != "" {
		if _, _, err := ParseReplicaOf(c.ReplicaOf); err != nil {
			return fmt.Errorf("%w: replicaof: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// ParseHostPort splits a host:port address and checks the port range.
func ParseHostPort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return parsePort(portStr)
}

// ParseReplicaOf parses a "host port" pair.
func ParseReplicaOf(s string) (host string, port int, err error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return "", 0, fmt.Errorf("expected \"host port\", got %q", s)
	}
	port, err = parsePort(parts[1])
	if err != nil {
		return "", 0, err
	}
	return parts[0], port, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 0-65535", port)
	}
	return port, nil
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records connection and command metrics in r.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = r
	}
}

// WithObserver registers an observer before the server starts.
func WithObserver(o Observer) Option {
	return func(s *Server) {
		s.observers = append(s.observers, o)
	}
}

// WithTLS serves TLS on the listener opened by Start.
func WithTLS(cfg *tls.Config) Option {
	return func(s *Server) {
		s.tlsConfig = cfg
	}
}

// WithVersion sets the version reported by INFO.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// Server represents the RESP protocol server.
type Server struct {
	cfg      *Config
	keyspace *memory.Keyspace
	commands map[string]*command
	logger   *slog.Logger
	metrics  *metric.Registry
	runID    string
	version  string
	started  time.Time

	tlsConfig *tls.Config

	obsMu     sync.RWMutex
	observers []Observer

	mu        sync.Mutex
	listeners []net.Listener
	sessions  map[string]*Session
	// closed is set by Shutdown and never cleared.
	closed bool
	done   chan struct{}

	running     atomic.Bool
	wg          sync.WaitGroup
	totalConns  atomic.Int64
	totalCmds   atomic.Int64
	rejected    atomic.Int64
	protoErrors atomic.Int64
}

// New creates a server over keyspace. The keyspace must have at least
// cfg.Databases databases.
func New(cfg *Config, keyspace *memory.Keyspace, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if keyspace == nil {
		keyspace = memory.New(cfg.Databases)
	}
	if keyspace.Len() < cfg.Databases {
		return nil, fmt.Errorf("%w: keyspace has %d databases, config wants %d", ErrInvalidConfig, keyspace.Len(), cfg.Databases)
	}

	s := &Server{
		cfg:      cfg,
		keyspace: keyspace,
		commands: newCommandTable(),
		logger:   slog.Default(),
		runID:    cfg.RunID,
		version:  "dev",
		started:  time.Now(),
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runID == "" {
		s.runID = ulid.Make().String()
	}
	s.logger = s.logger.With("component", "redisserver")
	return s, nil
}

// RunID returns the server identity.
func (s *Server) RunID() string { return s.runID }

// Keyspace returns the keyspace the server operates on.
func (s *Server) Keyspace() *memory.Keyspace { return s.keyspace }

// Version returns the version reported by INFO.
func (s *Server) Version() string { return s.version }

// StartTime returns when the server was created.
func (s *Server) StartTime() time.Time { return s.started }

// Running reports whether the server is accepting connections.
func (s *Server) Running() bool { return s.running.Load() }

// Stats are cumulative counters since start.
type Stats struct {
	TotalConnections int64
	TotalCommands    int64
	Rejected         int64
	ProtocolErrors   int64
}

// Stats returns the cumulative counters.
func (s *Server) Stats() Stats {
	return Stats{
		TotalConnections: s.totalConns.Load(),
		TotalCommands:    s.totalCmds.Load(),
		Rejected:         s.rejected.Load(),
		ProtocolErrors:   s.protoErrors.Load(),
	}
}

// Observe registers an observer.
func (s *Server) Observe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Addr returns the address of the first listener, or nil before
// Start/Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.listeners) == 0 {
		return nil
	}
	return s.listeners[0].Addr()
}

// trackListener records ln and marks the server running. It fails once
// Shutdown has run, so a closed server cannot be revived.
func (s *Server) trackListener(ln net.Listener) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	s.running.Store(true)
	for _, l := range s.listeners {
		if l == ln {
			return nil
		}
	}
	s.listeners = append(s.listeners, ln)
	return nil
}

// Start listens on cfg.Address and serves in the background. Listening
// errors are returned synchronously. Cancelling ctx closes the listener.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Address, err)
	}
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
	}
	if err := s.trackListener(ln); err != nil {
		_ = ln.Close()
		return err
	}
	s.logger.Info("starting redis server", "address", ln.Addr().String(), "run_id", s.runID, "tls", s.tlsConfig != nil)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Serve(ln); err != nil && !errors.Is(err, ErrServerClosed) {
			s.logger.Error("redis server error", "error", err)
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			s.closeListeners()
		case <-s.done:
		}
	}()
	return nil
}

// Serve accepts connections on ln until Shutdown. It always returns a
// non-nil error; after Shutdown the error is ErrServerClosed, also when
// Serve is called on a server that was already shut down. Serve may run
// on several listeners at once; they share the keyspace and session table.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.trackListener(ln); err != nil {
		_ = ln.Close()
		return err
	}

	for {
		c, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return ErrServerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			return err
		}

		sess := newSession(c, s.cfg.RateLimit)
		if err := s.register(sess); err != nil {
			s.reject(sess, err)
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveSession(sess)
		}()
	}
}

// Shutdown stops accepting, asks every session to close after its current
// command, and waits for them. When ctx expires first the remaining
// connections are closed forcibly and ctx.Err() is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	s.running.Store(false)
	for _, ln := range s.listeners {
		_ = ln.Close()
	}
	for _, sess := range s.sessions {
		if sess.transition(StateClosing) {
			// Wake the blocked read.
			_ = sess.conn.SetReadDeadline(time.Now())
		}
	}
	s.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		s.logger.Info("redis server stopped")
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		for _, sess := range s.sessions {
			_ = sess.conn.Close()
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

func (s *Server) closeListeners() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ln := range s.listeners {
		_ = ln.Close()
	}
}

var errShuttingDown = errors.New("server is shutting down")

func (s *Server) register(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Checked under mu so Shutdown sees every registered session.
	if !s.running.Load() {
		return errShuttingDown
	}
	if s.cfg.MaxClients > 0 && len(s.sessions) >= s.cfg.MaxClients {
		return domain.ErrMaxClients
	}
	sess.transition(StateEstablished)
	s.sessions[sess.id] = sess
	s.totalConns.Add(1)
	s.metrics.ConnectionOpened()
	return nil
}

func (s *Server) unregister(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.id]; ok {
		delete(s.sessions, sess.id)
		s.metrics.ConnectionClosed()
	}
}

// reject refuses a connection that could not be registered.
func (s *Server) reject(sess *Session, reason error) {
	defer func() {
		_ = sess.conn.Close()
		sess.transition(StateClosed)
	}()
	if !errors.Is(reason, domain.ErrMaxClients) {
		return
	}

	s.rejected.Add(1)
	s.metrics.ConnectionRejected()
	s.logger.Warn("max clients reached, rejecting connection", "remote", sess.remote)

	_ = sess.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout()))
	_ = sess.w.WriteElement(resp.Error(domain.ErrMaxClients.Reply()))
	_ = sess.w.Flush()
}

func (s *Server) writeTimeout() time.Duration {
	if s.cfg.WriteTimeout > 0 {
		return s.cfg.WriteTimeout
	}
	return 30 * time.Second
}

func (s *Server) emit(e Event) {
	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	if len(s.observers) == 0 {
		return
	}
	e.Time = time.Now()
	for _, o := range s.observers {
		o.OnEvent(e)
	}
}

// serveSession runs the read loop of one connection.
//
// Replies are buffered while the decoder still holds complete elements and
// flushed before blocking on the socket, so pipelined commands are
// answered in order with few writes.
func (s *Server) serveSession(sess *Session) {
	log := s.logger.With(logger.Session(sess.id, sess.remote))
	log.Debug("client connected")
	s.emit(Event{Kind: EventConnected, SessionID: sess.id, Remote: sess.remote})

	var fault error
	defer func() {
		_ = sess.conn.Close()
		sess.transition(StateClosed)
		s.unregister(sess)
		s.emit(Event{Kind: EventDisconnected, SessionID: sess.id, Remote: sess.remote, Err: fault})
		log.Debug("client disconnected", "error", fault)
	}()

	buf := make([]byte, readBufferSize)
	var readErr error
	for {
		el, err := sess.dec.Next()
		if err == nil {
			s.emit(Event{Kind: elementEventKind(el), SessionID: sess.id, Remote: sess.remote, Element: el})
			reply, quit := s.dispatch(sess, el)
			if werr := sess.w.WriteElement(reply); werr != nil {
				fault = werr
				sess.transition(StateFaulted)
				return
			}
			if quit {
				sess.transition(StateClosing)
				_ = s.flush(sess)
				return
			}
			continue
		}
		if !errors.Is(err, resp.ErrIncomplete) {
			fault = err
			s.protocolFault(sess, err)
			log.Warn("protocol error", "error", err)
			return
		}

		if sess.w.Buffered() > 0 {
			if err := s.flush(sess); err != nil {
				fault = err
				sess.transition(StateFaulted)
				return
			}
		}
		if readErr != nil {
			if !isCleanClose(readErr) && sess.State() == StateEstablished {
				fault = readErr
				sess.transition(StateFaulted)
			} else {
				sess.transition(StateClosing)
			}
			return
		}
		if sess.State() != StateEstablished {
			return
		}

		if s.cfg.IdleTimeout > 0 {
			_ = sess.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		n, err := sess.conn.Read(buf)
		if n > 0 {
			sess.dec.Feed(buf[:n])
		}
		if err != nil {
			readErr = err
		}
	}
}

func (s *Server) flush(sess *Session) error {
	if err := sess.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout())); err != nil {
		return err
	}
	return sess.w.Flush()
}

// protocolFault answers bad framing with a best-effort error reply.
func (s *Server) protocolFault(sess *Session, err error) {
	s.protoErrors.Add(1)
	s.metrics.ProtocolError()
	sess.transition(StateFaulted)
	_ = sess.w.WriteElement(resp.Error("ERR Protocol error: " + protocolDetail(err)))
	_ = s.flush(sess)
}

func protocolDetail(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{resp.ErrProtocol, resp.ErrLimitExceeded} {
		if strings.HasPrefix(msg, sentinel.Error()+": ") {
			return strings.TrimPrefix(msg, sentinel.Error()+": ")
		}
	}
	return msg
}

// isCleanClose reports read errors that end a session without a fault:
// client EOF, an idle timeout or a closed socket.
func isCleanClose(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// ClientInfo describes one session for CLIENT LIST style reporting.
type ClientInfo struct {
	ID       string
	Remote   string
	DB       int
	Age      time.Duration
	Idle     time.Duration
	Commands int64
	State    State
}

// Clients returns a snapshot of the open sessions.
func (s *Server) Clients() []ClientInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ClientInfo, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, ClientInfo{
			ID:       sess.id,
			Remote:   sess.remote,
			DB:       sess.DB(),
			Age:      time.Since(sess.created),
			Idle:     sess.Idle(),
			Commands: sess.Commands(),
			State:    sess.State(),
		})
	}
	return out
}
