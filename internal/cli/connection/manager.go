package connection

import (
	"context"
	"strconv"
	"strings"

	"github.com/yndnr/memkv-go/pkg/resp"
)

// Manager owns the CLI's connection. It dials on first use, drops the
// connection after an I/O error and dials again on the next command,
// restoring the last selected database.
type Manager struct {
	opts   Options
	client *Client
}

// NewManager returns a Manager that has not dialed yet.
func NewManager(opts Options) *Manager {
	return &Manager{opts: opts}
}

// Connect dials if there is no live connection.
func (m *Manager) Connect(ctx context.Context) error {
	if m.client != nil {
		return nil
	}
	c, err := Dial(ctx, m.opts)
	if err != nil {
		return err
	}
	m.client = c
	return nil
}

// Do runs one command, connecting first if needed.
func (m *Manager) Do(ctx context.Context, args ...string) (resp.Element, error) {
	if err := m.Connect(ctx); err != nil {
		return resp.Element{}, err
	}
	reply, err := m.client.Do(ctx, args...)
	if err != nil {
		m.Disconnect()
		return resp.Element{}, err
	}
	m.track(args, reply)
	return reply, nil
}

func (m *Manager) track(args []string, reply resp.Element) {
	if len(args) != 2 || !strings.EqualFold(args[0], "SELECT") {
		return
	}
	if reply.Kind != resp.KindSimpleString {
		return
	}
	if db, err := strconv.Atoi(args[1]); err == nil {
		m.opts.DB = db
	}
}

// Disconnect closes the current connection, if any.
func (m *Manager) Disconnect() {
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
}

// Connected reports whether a connection is open.
func (m *Manager) Connected() bool {
	return m.client != nil
}

// Addr returns the configured server address.
func (m *Manager) Addr() string {
	return m.opts.Addr
}

// DB returns the currently selected database.
func (m *Manager) DB() int {
	return m.opts.DB
}

// Close releases the connection.
func (m *Manager) Close() error {
	m.Disconnect()
	return nil
}
