package nameservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ardanlabs/gossipchain/foundation/wire"
)

// Client provides access to a directory server.
type Client struct {
	addr    string
	timeout time.Duration
}

// NewClient constructs a client for the directory at the address. The
// timeout bounds each request and each write.
func NewClient(addr string, timeout time.Duration) *Client {
	return &Client{
		addr:    addr,
		timeout: timeout,
	}
}

// Addr returns the address of the directory.
func (c *Client) Addr() string {
	return c.addr
}

// List returns the entries currently registered with the directory.
func (c *Client) List(ctx context.Context) ([]Entry, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	stop := closeOnDone(ctx, conn)
	defer stop()

	if err := conn.WriteLine(CmdList); err != nil {
		return nil, fmt.Errorf("send list: %w", err)
	}

	var entries []Entry
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("read list: %w", err)
		}

		if line == RespEnd {
			return entries, nil
		}

		e, err := ParseEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
}

// Registration represents a held registration with the directory. The
// entry stays listed until Close is called or the connection drops.
type Registration struct {
	Entry Entry
	conn  *wire.Conn
	done  chan struct{}
}

// Register registers the entry with the directory and holds the connection
// open to keep the entry listed.
func (c *Client) Register(ctx context.Context, e Entry) (*Registration, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	stop := closeOnDone(ctx, conn)
	defer stop()

	if err := conn.WriteLine(fmt.Sprintf("%s %s", CmdRegister, e)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send register: %w", err)
	}

	resp, err := conn.ReadLine()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read register: %w", err)
	}

	if resp != RespOK {
		conn.Close()
		return nil, fmt.Errorf("register %s: %s", e, strings.TrimSpace(strings.TrimPrefix(resp, RespErr)))
	}

	r := Registration{
		Entry: e,
		conn:  conn,
		done:  make(chan struct{}),
	}

	// Drain the connection so a closed directory is noticed.
	go func() {
		defer close(r.done)
		for {
			if _, err := conn.ReadLine(); err != nil {
				return
			}
		}
	}()

	return &r, nil
}

// Done returns a channel that is closed when the registration is lost.
func (r *Registration) Done() <-chan struct{} {
	return r.done
}

// Close deregisters the entry by closing the held connection.
func (r *Registration) Close() error {
	err := r.conn.Close()
	<-r.done
	return err
}

// =============================================================================

func (c *Client) dial(ctx context.Context) (*wire.Conn, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := wire.Dial(ctx, c.addr, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("dial directory %s: %w", c.addr, err)
	}

	return conn, nil
}

// closeOnDone closes the connection if the context ends before stop is
// called, unblocking any pending read.
func closeOnDone(ctx context.Context, conn *wire.Conn) (stop func()) {
	if ctx.Done() == nil {
		return func() {}
	}

	finished := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-finished:
		}
	}()

	return func() { close(finished) }
}
