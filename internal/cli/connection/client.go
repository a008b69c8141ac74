package connection

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/yndnr/memkv-go/pkg/resp"
)

// DefaultDialTimeout bounds connection setup when Options.Timeout is zero.
const DefaultDialTimeout = 5 * time.Second

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("connection closed")

// Options describes how to reach a server.
type Options struct {
	Addr    string
	DB      int
	TLS     *tls.Config   // nil for plain TCP
	Timeout time.Duration // per round trip; zero means none
}

// Client is one RESP connection. It is not safe for concurrent use.
type Client struct {
	addr    string
	conn    net.Conn
	r       *resp.Reader
	w       *resp.Writer
	timeout time.Duration
	closed  bool
}

// Dial connects to opts.Addr and selects opts.DB when it is non-zero.
func Dial(ctx context.Context, opts Options) (*Client, error) {
	dialTimeout := opts.Timeout
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	nd := &net.Dialer{Timeout: dialTimeout}

	var (
		conn net.Conn
		err  error
	)
	if opts.TLS != nil {
		td := &tls.Dialer{NetDialer: nd, Config: opts.TLS}
		conn, err = td.DialContext(ctx, "tcp", opts.Addr)
	} else {
		conn, err = nd.DialContext(ctx, "tcp", opts.Addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", opts.Addr, err)
	}

	c := &Client{
		addr:    opts.Addr,
		conn:    conn,
		r:       resp.NewReader(conn),
		w:       resp.NewWriter(conn),
		timeout: opts.Timeout,
	}

	if opts.DB != 0 {
		reply, err := c.Do(ctx, "SELECT", strconv.Itoa(opts.DB))
		if err != nil {
			c.Close()
			return nil, err
		}
		if reply.IsError() {
			c.Close()
			return nil, fmt.Errorf("select %d: %s", opts.DB, reply.Str)
		}
	}
	return c, nil
}

// Addr returns the server address.
func (c *Client) Addr() string {
	return c.addr
}

// Do sends one command and waits for its reply.
//
// Error replies from the server are returned as elements, not as errors.
// A non-nil error means the connection is no longer usable.
func (c *Client) Do(ctx context.Context, args ...string) (resp.Element, error) {
	if c.closed {
		return resp.Element{}, ErrClosed
	}
	if len(args) == 0 {
		return resp.Element{}, errors.New("empty command")
	}

	if err := c.setDeadline(ctx); err != nil {
		return resp.Element{}, err
	}
	defer c.conn.SetDeadline(time.Time{})

	stop := context.AfterFunc(ctx, func() {
		c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := c.w.WriteElement(resp.Command(args[0], args[1:]...)); err != nil {
		return resp.Element{}, c.wrap(ctx, "write", err)
	}
	if err := c.w.Flush(); err != nil {
		return resp.Element{}, c.wrap(ctx, "write", err)
	}
	reply, err := c.r.ReadElement()
	if err != nil {
		return resp.Element{}, c.wrap(ctx, "read", err)
	}
	return reply, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Client) setDeadline(ctx context.Context) error {
	var deadline time.Time
	if c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return c.conn.SetDeadline(deadline)
}

func (c *Client) wrap(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return fmt.Errorf("%s %s: %w", op, c.addr, err)
}
