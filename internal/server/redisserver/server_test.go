package redisserver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/memkv-go/internal/telemetry/metric"
	"github.com/yndnr/memkv-go/pkg/resp"
)

// ============================================================
// Test Helpers
// ============================================================

func startTestServer(t testing.TB, mutate func(*Config), opts ...Option) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	cfg.WriteTimeout = time.Second
	if mutate != nil {
		mutate(cfg)
	}
	srv, err := New(cfg, nil, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		cancel()
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	})
	return srv
}

type testClient struct {
	conn net.Conn
	r    *resp.Reader
	w    *resp.Writer
}

func dial(t testing.TB, srv *Server) *testClient {
	t.Helper()
	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return &testClient{conn: conn, r: resp.NewReader(conn), w: resp.NewWriter(conn)}
}

func (c *testClient) send(args ...string) error {
	if err := c.w.WriteElement(resp.Command(args[0], args[1:]...)); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *testClient) read() (resp.Element, error) {
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return c.r.ReadElement()
}

func (c *testClient) do(t testing.TB, args ...string) resp.Element {
	t.Helper()
	if err := c.send(args...); err != nil {
		t.Fatalf("send %v: %v", args, err)
	}
	el, err := c.read()
	if err != nil {
		t.Fatalf("read reply to %v: %v", args, err)
	}
	return el
}

// expectClosed waits for the server to close the connection.
func (c *testClient) expectClosed(t *testing.T) {
	t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 64)
	for {
		_, err := c.conn.Read(buf)
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) && !strings.Contains(err.Error(), "reset") {
			t.Errorf("expected connection close, got %v", err)
		}
		return
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// ============================================================
// Test: Config
// ============================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"port zero", func(c *Config) { c.Address = "127.0.0.1:0" }, false},
		{"port out of range", func(c *Config) { c.Address = "127.0.0.1:70000" }, true},
		{"missing port", func(c *Config) { c.Address = "127.0.0.1" }, true},
		{"non-numeric port", func(c *Config) { c.Address = "127.0.0.1:redis" }, true},
		{"no databases", func(c *Config) { c.Databases = 0 }, true},
		{"negative rate limit", func(c *Config) { c.RateLimit = -1 }, true},
		{"negative max clients", func(c *Config) { c.MaxClients = -1 }, true},
		{"negative idle timeout", func(c *Config) { c.IdleTimeout = -time.Second }, true},
		{"replicaof", func(c *Config) { c.ReplicaOf = "10.0.0.1 6379" }, false},
		{"replicaof bad port", func(c *Config) { c.ReplicaOf = "10.0.0.1 99999" }, true},
		{"replicaof missing port", func(c *Config) { c.ReplicaOf = "10.0.0.1" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:70000"
	if _, err := New(cfg, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New() error = %v, want ErrInvalidConfig", err)
	}
}

func TestNew_RunID(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RunID = "fixed"
	srv, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if srv.RunID() != "fixed" {
		t.Errorf("RunID() = %q, want fixed", srv.RunID())
	}

	srv, _ = New(DefaultConfig(), nil)
	if len(srv.RunID()) != 26 {
		t.Errorf("generated RunID() = %q, want a ULID", srv.RunID())
	}
}

// ============================================================
// Test: Session state machine
// ============================================================

func TestSession_Transitions(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sess := newSession(server, 0)
	if sess.State() != StateConnecting {
		t.Fatalf("initial state = %v, want connecting", sess.State())
	}

	steps := []struct {
		next State
		ok   bool
	}{
		{StateClosing, false},
		{StateEstablished, true},
		{StateEstablished, false},
		{StateFaulted, true},
		{StateClosing, false},
		{StateClosed, true},
		{StateEstablished, false},
	}
	for _, s := range steps {
		if got := sess.transition(s.next); got != s.ok {
			t.Errorf("transition(%v) from %v = %v, want %v", s.next, sess.State(), got, s.ok)
		}
	}
	if sess.State() != StateClosed {
		t.Errorf("final state = %v, want closed", sess.State())
	}
}

func TestSession_IDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		server, client := net.Pipe()
		id := newSession(server, 0).ID()
		server.Close()
		client.Close()
		if seen[id] {
			t.Fatalf("duplicate session id %q", id)
		}
		seen[id] = true
	}
}

// ============================================================
// Test: end-to-end over TCP
// ============================================================

func TestServer_HSetNewField(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dial(t, srv)

	if _, err := c.conn.Write([]byte("*4\r\n$4\r\nHSET\r\n$3\r\nfoo\r\n$3\r\nbar\r\n$3\r\nbaz\r\n")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	el, err := c.read()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !el.Equal(resp.Integer(1)) {
		t.Errorf("HSET reply = %s, want (integer) 1", el)
	}
	if got := c.do(t, "HSET", "foo", "bar", "qux"); !got.Equal(resp.Integer(0)) {
		t.Errorf("HSET existing field = %s, want (integer) 0", got)
	}
}

func TestServer_NullBulkEcho(t *testing.T) {
	var mu sync.Mutex
	var kinds []EventKind
	srv := startTestServer(t, nil, WithObserver(ObserverFunc(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		kinds = append(kinds, e.Kind)
	})))
	c := dial(t, srv)

	// A bare null bulk string is not a command; the session stays open.
	if _, err := c.conn.Write([]byte("$-1\r\n")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	el, err := c.read()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !el.IsError() || !strings.HasPrefix(el.Str, "ERR invalid command") {
		t.Errorf("reply = %s, want invalid command error", el)
	}
	if got := c.do(t, "PING"); !got.Equal(resp.SimpleString("PONG")) {
		t.Errorf("PING after null = %s", got)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []EventKind{EventConnected, EventNull, EventArray}
	if len(kinds) != len(want) {
		t.Fatalf("events = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("event[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestServer_ConcurrentClients(t *testing.T) {
	srv := startTestServer(t, nil)

	var g errgroup.Group
	for i := 0; i < 2; i++ {
		i := i
		c := dial(t, srv)
		g.Go(func() error {
			key := fmt.Sprintf("key-%d", i)
			for n := 0; n < 200; n++ {
				val := fmt.Sprintf("v%d", n)
				if err := c.send("SET", key, val); err != nil {
					return err
				}
				if el, err := c.read(); err != nil || !el.Equal(resp.OK()) {
					return fmt.Errorf("SET %s: %v %v", key, el, err)
				}
				if err := c.send("GET", key); err != nil {
					return err
				}
				el, err := c.read()
				if err != nil {
					return err
				}
				if !el.Equal(resp.BulkString(val)) {
					return fmt.Errorf("GET %s = %s, want %s", key, el, val)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestServer_ConcurrentHSetSameKey(t *testing.T) {
	srv := startTestServer(t, nil)

	var g errgroup.Group
	const clients, fields = 4, 50
	for i := 0; i < clients; i++ {
		i := i
		c := dial(t, srv)
		g.Go(func() error {
			for n := 0; n < fields; n++ {
				if err := c.send("HSET", "shared", fmt.Sprintf("c%d-f%d", i, n), "v"); err != nil {
					return err
				}
				el, err := c.read()
				if err != nil {
					return err
				}
				if !el.Equal(resp.Integer(1)) {
					return fmt.Errorf("HSET reply = %s, want 1", el)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	c := dial(t, srv)
	if got := c.do(t, "HLEN", "shared"); !got.Equal(resp.Integer(clients * fields)) {
		t.Errorf("HLEN = %s, want %d", got, clients*fields)
	}
}

func TestServer_Pipelining(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dial(t, srv)

	var pipeline []byte
	for i := 0; i < 50; i++ {
		pipeline = resp.Append(pipeline, resp.Command("RPUSH", "l", fmt.Sprint(i)))
	}
	pipeline = resp.Append(pipeline, resp.Command("LLEN", "l"))
	if _, err := c.conn.Write(pipeline); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	for i := 0; i < 50; i++ {
		el, err := c.read()
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if !el.Equal(resp.Integer(int64(i + 1))) {
			t.Fatalf("reply %d = %s, want %d", i, el, i+1)
		}
	}
	el, err := c.read()
	if err != nil || !el.Equal(resp.Integer(50)) {
		t.Errorf("LLEN = %s (%v), want 50", el, err)
	}
}

func TestServer_SplitFrames(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dial(t, srv)

	frame := resp.Encode(resp.Command("ECHO", "split"))
	for _, b := range frame {
		if _, err := c.conn.Write([]byte{b}); err != nil {
			t.Fatalf("Write error: %v", err)
		}
	}
	el, err := c.read()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !el.Equal(resp.BulkString("split")) {
		t.Errorf("ECHO = %s, want split", el)
	}
}

func TestServer_SelectIsPerSession(t *testing.T) {
	srv := startTestServer(t, nil)
	a := dial(t, srv)
	b := dial(t, srv)

	a.do(t, "SELECT", "3")
	a.do(t, "SET", "k", "in-3")

	if got := b.do(t, "GET", "k"); !got.IsNull() {
		t.Errorf("GET from db0 = %s, want nil", got)
	}
	b.do(t, "SELECT", "3")
	if got := b.do(t, "GET", "k"); !got.Equal(resp.BulkString("in-3")) {
		t.Errorf("GET from db3 = %s, want in-3", got)
	}
}

func TestServer_ProtocolErrorClosesConnection(t *testing.T) {
	var mu sync.Mutex
	var disconnect *Event
	reg := metric.NewRegistry()
	srv := startTestServer(t, nil, WithMetrics(reg), WithObserver(ObserverFunc(func(e Event) {
		if e.Kind == EventDisconnected {
			mu.Lock()
			disconnect = &e
			mu.Unlock()
		}
	})))
	c := dial(t, srv)

	if got := c.do(t, "PING"); !got.Equal(resp.SimpleString("PONG")) {
		t.Fatalf("PING = %s", got)
	}
	if _, err := c.conn.Write([]byte("?garbage\r\n")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	el, err := c.read()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !el.IsError() || !strings.HasPrefix(el.Str, "ERR Protocol error: ") {
		t.Errorf("reply = %s, want protocol error", el)
	}
	c.expectClosed(t)

	waitFor(t, "disconnect event", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return disconnect != nil
	})
	if disconnect.Err == nil {
		t.Error("disconnect after protocol error should carry the fault")
	}
	waitFor(t, "session removal", func() bool { return srv.SessionCount() == 0 })
}

func TestServer_InlineCommandIsProtocolError(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dial(t, srv)

	if _, err := c.conn.Write([]byte("PING\r\n")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	el, err := c.read()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !strings.HasPrefix(el.Str, "ERR Protocol error") {
		t.Errorf("reply = %s, want protocol error", el)
	}
	c.expectClosed(t)
}

func TestServer_Quit(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dial(t, srv)

	if got := c.do(t, "QUIT"); !got.Equal(resp.OK()) {
		t.Errorf("QUIT = %s, want OK", got)
	}
	c.expectClosed(t)
	waitFor(t, "session removal", func() bool { return srv.SessionCount() == 0 })
}

func TestServer_RateLimit(t *testing.T) {
	srv := startTestServer(t, func(c *Config) { c.RateLimit = 1 })
	c := dial(t, srv)

	if got := c.do(t, "PING"); !got.Equal(resp.SimpleString("PONG")) {
		t.Fatalf("first PING = %s", got)
	}
	got := c.do(t, "PING")
	if !got.IsError() || got.Str != "ERR rate limit exceeded" {
		t.Errorf("second PING = %s, want rate limit error", got)
	}
}

func TestServer_MaxClients(t *testing.T) {
	reg := metric.NewRegistry()
	srv := startTestServer(t, func(c *Config) { c.MaxClients = 1 }, WithMetrics(reg))

	first := dial(t, srv)
	first.do(t, "PING")

	second := dial(t, srv)
	el, err := second.read()
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if !el.IsError() || el.Str != "ERR max number of clients reached" {
		t.Errorf("reply = %s, want max clients error", el)
	}
	second.expectClosed(t)

	if got := first.do(t, "PING"); !got.Equal(resp.SimpleString("PONG")) {
		t.Errorf("first client PING = %s", got)
	}
}

func TestServer_IdleTimeout(t *testing.T) {
	srv := startTestServer(t, func(c *Config) { c.IdleTimeout = 100 * time.Millisecond })
	c := dial(t, srv)
	c.do(t, "PING")
	c.expectClosed(t)
}

func TestServer_ShutdownClosesSessions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	c := dial(t, srv)
	c.do(t, "PING")
	if srv.SessionCount() != 1 {
		t.Fatalf("SessionCount() = %d, want 1", srv.SessionCount())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	c.expectClosed(t)
	if srv.SessionCount() != 0 {
		t.Errorf("SessionCount() after Shutdown = %d, want 0", srv.SessionCount())
	}

	if _, err := net.DialTimeout("tcp", srv.Addr().String(), 200*time.Millisecond); err == nil {
		t.Error("listener should be closed after Shutdown")
	}
}

func TestServer_ServeAfterShutdown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()
	if err := srv.Serve(ln); !errors.Is(err, ErrServerClosed) {
		t.Errorf("Serve() after Shutdown error = %v, want ErrServerClosed", err)
	}
	if srv.Running() {
		t.Error("Running() = true after Shutdown")
	}
	if _, err := net.DialTimeout("tcp", ln.Addr().String(), 200*time.Millisecond); err == nil {
		t.Error("listener passed to a closed server should be closed")
	}

	if err := srv.Start(context.Background()); !errors.Is(err, ErrServerClosed) {
		t.Errorf("Start() after Shutdown error = %v, want ErrServerClosed", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}

func TestServer_ShutdownReleasesContextWatcher(t *testing.T) {
	before := runtime.NumGoroutine()

	cfg := DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	// The context is never cancelled.
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	waitFor(t, "server goroutines to exit", func() bool {
		return runtime.NumGoroutine() <= before
	})
}

func TestServer_ObserveAtRuntime(t *testing.T) {
	srv := startTestServer(t, nil)

	events := make(chan Event, 16)
	srv.Observe(ObserverFunc(func(e Event) {
		select {
		case events <- e:
		default:
		}
	}))

	c := dial(t, srv)
	c.do(t, "PING")

	next := func() Event {
		t.Helper()
		select {
		case e := <-events:
			return e
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return Event{}
		}
	}
	if e := next(); e.Kind != EventConnected || e.SessionID == "" {
		t.Errorf("first event = %v (session %q), want connected", e.Kind, e.SessionID)
	}
	e := next()
	if e.Kind != EventArray || !e.Element.Equal(resp.Command("PING")) {
		t.Errorf("second event = %v %s, want array PING", e.Kind, e.Element)
	}
}

func TestServer_Clients(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dial(t, srv)
	c.do(t, "SELECT", "2")
	c.do(t, "PING")

	clients := srv.Clients()
	if len(clients) != 1 {
		t.Fatalf("Clients() = %d entries, want 1", len(clients))
	}
	info := clients[0]
	if info.DB != 2 || info.Commands != 2 || info.State != StateEstablished {
		t.Errorf("ClientInfo = %+v", info)
	}
}

func TestServer_RawWire(t *testing.T) {
	srv := startTestServer(t, nil)
	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("*2\r\n$3\r\nGET\r\n$7\r\nmissing\r\n")); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if line != "$-1\r\n" {
		t.Errorf("GET missing = %q, want $-1\\r\\n", line)
	}
}

func TestServer_LineBreakInCommandNameIsOneReply(t *testing.T) {
	srv := startTestServer(t, nil)
	c := dial(t, srv)

	for _, args := range [][]string{{"FOO\r\n:1"}, {"COMMAND", "X\r\n+OK"}} {
		el := c.do(t, args...)
		if el.Kind != resp.KindError || strings.ContainsAny(el.Str, "\r\n") {
			t.Errorf("reply to %q = %+v, want one error line", args, el)
		}
		if got := c.do(t, "PING"); !got.Equal(resp.SimpleString("PONG")) {
			t.Fatalf("PING after %q = %+v, want PONG", args, got)
		}
	}
}
