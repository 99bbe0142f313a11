// Package wire implements the line transport shared by miners, wallets and
// the name service. Every message is one UTF-8 line terminated by a newline.
package wire

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// Conn wraps a network connection with line oriented reads and writes.
// Reads must come from a single goroutine. Writes are safe for concurrent
// use so a broadcast and a direct reply never interleave on the wire.
type Conn struct {
	conn         net.Conn
	reader       *bufio.Reader
	writeTimeout time.Duration

	mu        sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// New constructs a line connection over an established network connection.
// A zero writeTimeout means writes never time out.
func New(conn net.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{
		conn:         conn,
		reader:       bufio.NewReader(conn),
		writeTimeout: writeTimeout,
	}
}

// Dial opens a TCP connection to the specified address.
func Dial(ctx context.Context, addr string, writeTimeout time.Duration) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	return New(conn, writeTimeout), nil
}

// ReadLine blocks until a full line is available and returns it without the
// trailing newline. A final unterminated line is returned before io.EOF.
func (c *Conn) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return trim(line), nil
		}
		return "", err
	}

	return trim(line), nil
}

// WriteLine writes s followed by exactly one newline.
func (c *Conn) WriteLine(s string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}

	_, err := io.WriteString(c.conn, strings.TrimRight(s, "\n")+"\n")
	return err
}

// Send implements the peer connection behavior.
func (c *Conn) Send(line string) error {
	return c.WriteLine(line)
}

// Close closes the underlying connection. Calling Close more than once
// returns the result of the first call.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the address of the other side of the connection.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

// =============================================================================

// trim removes the line terminator, tolerating CRLF senders.
func trim(line string) string {
	return strings.TrimRight(line, "\r\n")
}
