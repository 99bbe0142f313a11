// Package client provides the wallet side of the miner protocol.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/protocol"
	"github.com/ardanlabs/gossipchain/foundation/wire"
)

// Block represents a block as reported by a miner's GET_BLOCKS stream.
type Block struct {
	Index int           `json:"index"`
	Trans []database.Tx `json:"trans"`
}

// Client provides access to a single miner.
type Client struct {
	addr    string
	timeout time.Duration
}

// New constructs a client for the miner at the address. The timeout bounds
// dialing and each write.
func New(addr string, timeout time.Duration) *Client {
	return &Client{
		addr:    addr,
		timeout: timeout,
	}
}

// Addr returns the address of the miner.
func (c *Client) Addr() string {
	return c.addr
}

// SubmitTransaction sends a single transaction to the miner.
func (c *Client) SubmitTransaction(ctx context.Context, tx database.Tx) error {
	sess, err := c.Dial(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	return sess.SubmitTransaction(ctx, tx)
}

// Blocks returns the miner's chain starting at the index.
func (c *Client) Blocks(ctx context.Context, from int) ([]Block, error) {
	sess, err := c.Dial(ctx)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	return sess.Blocks(ctx, from)
}

// Dial opens a session with the miner that can carry many requests.
func (c *Client) Dial(ctx context.Context) (*Session, error) {
	dialCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	conn, err := wire.Dial(dialCtx, c.addr, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("dial miner %s: %w", c.addr, err)
	}

	return &Session{conn: conn}, nil
}

// =============================================================================

// Session represents an open wallet connection to a miner.
type Session struct {
	conn *wire.Conn
}

// SubmitTransaction sends the transaction and waits for the miner to
// acknowledge it.
func (s *Session) SubmitTransaction(ctx context.Context, tx database.Tx) error {
	stop := closeOnDone(ctx, s.conn)
	defer stop()

	if err := s.conn.WriteLine(tx.Payload()); err != nil {
		return fmt.Errorf("send transaction: %w", err)
	}

	resp, err := s.conn.ReadLine()
	if err != nil {
		return fmt.Errorf("read ack: %w", err)
	}

	if resp != protocol.RespOK {
		return fmt.Errorf("unexpected ack %q", resp)
	}

	return nil
}

// Blocks asks the miner for its chain from the index and reads the stream
// until END_BLOCKS.
func (s *Session) Blocks(ctx context.Context, from int) ([]Block, error) {
	stop := closeOnDone(ctx, s.conn)
	defer stop()

	if err := s.conn.WriteLine(protocol.GetBlocks(from)); err != nil {
		return nil, fmt.Errorf("send get blocks: %w", err)
	}

	var blocks []Block
	for {
		line, err := s.conn.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("read blocks: %w", err)
		}

		if line == protocol.RespEndBlocks {
			return blocks, nil
		}

		index, count, err := protocol.ParseBlockHeader(line)
		if err != nil {
			return nil, err
		}

		block := Block{
			Index: index,
			Trans: make([]database.Tx, 0, count),
		}

		for range count {
			line, err := s.conn.ReadLine()
			if err != nil {
				return nil, fmt.Errorf("read block %d: %w", index, err)
			}

			tx, err := protocol.ParseTxLine(line)
			if err != nil {
				return nil, fmt.Errorf("block %d: %w", index, err)
			}
			block.Trans = append(block.Trans, tx)
		}

		blocks = append(blocks, block)
	}
}

// Close ends the session politely and closes the connection.
func (s *Session) Close() error {
	s.conn.WriteLine(protocol.CmdExit)
	return s.conn.Close()
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
