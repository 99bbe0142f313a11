package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/peer"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/protocol"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/state"
	"github.com/ardanlabs/gossipchain/foundation/wire"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Config represents the configuration required to serve a mining node.
type Config struct {
	State        *state.State
	WriteTimeout time.Duration
	ClientRate   rate.Limit
	ClientBurst  int
	EvHandler    state.EventHandler
}

// Server accepts peer and wallet connections for a mining node.
type Server struct {
	state        *state.State
	writeTimeout time.Duration
	clientRate   rate.Limit
	clientBurst  int
	evHandler    state.EventHandler

	listener net.Listener
	shut     chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	conns    map[string]*wire.Conn
}

// New constructs a server for the mining node state.
func New(cfg Config) *Server {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	clientRate := cfg.ClientRate
	if clientRate == 0 {
		clientRate = rate.Inf
	}

	return &Server{
		state:        cfg.State,
		writeTimeout: cfg.WriteTimeout,
		clientRate:   clientRate,
		clientBurst:  max(cfg.ClientBurst, 1),
		evHandler:    ev,
		shut:         make(chan struct{}),
		conns:        make(map[string]*wire.Conn),
	}
}

// Start binds the address and begins accepting connections. A failure to
// bind is returned so the node can abort its startup.
func (s *Server) Start(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = l

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptOperations()
	}()

	return nil
}

// Addr returns the address the server is bound to.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// ConnCount returns the number of open connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.conns)
}

// Shutdown stops accepting connections, closes every open connection and
// waits for the handlers to return or the context to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.evHandler("node: shutdown: started")
	defer s.evHandler("node: shutdown: completed")

	select {
	case <-s.shut:
		return nil
	default:
	}

	close(s.shut)
	s.listener.Close()

	s.mu.Lock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================

func (s *Server) acceptOperations() {
	s.evHandler("node: acceptOperations: G started")
	defer s.evHandler("node: acceptOperations: G completed")

	for {
		c, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shut:
				return
			default:
			}
			s.evHandler("node: acceptOperations: ERROR: %s", err)
			continue
		}

		id := uuid.NewString()
		conn := wire.New(c, s.writeTimeout)

		s.mu.Lock()
		select {
		case <-s.shut:
			s.mu.Unlock()
			conn.Close()
			return
		default:
		}
		s.conns[id] = conn
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer func() {
				s.mu.Lock()
				delete(s.conns, id)
				s.mu.Unlock()

				conn.Close()
				s.wg.Done()
			}()

			s.classify(id, conn)
		}()
	}
}

// classify reads the first line of a connection to decide if a miner or a
// wallet is on the other side.
func (s *Server) classify(id string, conn *wire.Conn) {
	first, err := conn.ReadLine()
	if err != nil {
		return
	}

	if fields := strings.Fields(first); len(fields) == 2 && strings.EqualFold(fields[0], protocol.CmdPeer) {
		s.handlePeer(id, fields[1], conn)
		return
	}

	s.handleClient(id, first, conn)
}

// handlePeer registers the miner and reads its gossip until the connection
// closes.
func (s *Server) handlePeer(id string, name string, conn *wire.Conn) {
	p := peer.Peer{
		Name: name,
		Addr: conn.RemoteAddr(),
	}

	if err := s.state.AddPeer(p, conn); err != nil {
		s.evHandler("node: handlePeer: conn[%s]: peer[%s]: WARNING: %s", id, name, err)
		return
	}

	s.state.RunPeerReader(name, conn)
}

// handleClient serves a wallet session. Submissions are rate limited per
// connection so a single wallet can't flood the mempool. The limiter waits
// rather than dropping lines.
func (s *Server) handleClient(id string, first string, conn *wire.Conn) {
	s.evHandler("node: handleClient: conn[%s]: remote[%s]: started", id, conn.RemoteAddr())
	defer s.evHandler("node: handleClient: conn[%s]: completed", id)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-s.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	limiter := rate.NewLimiter(s.clientRate, s.clientBurst)

	if cmd, arg := protocol.Split(first); cmd == protocol.CmdGetBlocks {
		s.sendBlocks(id, arg, conn)
		return
	}

	line := first
	for {
		if protocol.IsExit(line) {
			return
		}

		if err := limiter.Wait(ctx); err != nil {
			return
		}

		s.handleClientLine(id, line, conn)

		var err error
		line, err = conn.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.evHandler("node: handleClient: conn[%s]: ERROR: %s", id, err)
			}
			return
		}
	}
}

// handleClientLine processes one wallet message. Lines that don't parse are
// ignored without an answer.
func (s *Server) handleClientLine(id string, line string, conn *wire.Conn) {
	if cmd, arg := protocol.Split(line); cmd == protocol.CmdGetBlocks {
		s.sendBlocks(id, arg, conn)
		return
	}

	if _, _, err := s.state.ProcessTransaction(line, false); err != nil {
		return
	}

	if err := conn.WriteLine(protocol.RespOK); err != nil {
		s.evHandler("node: handleClientLine: conn[%s]: ERROR: %s", id, err)
	}
}

// sendBlocks streams the chain from the requested index followed by the
// END_BLOCKS terminator.
func (s *Server) sendBlocks(id string, arg string, conn *wire.Conn) {
	from, err := protocol.ParseGetBlocks(arg)
	if err != nil {
		s.evHandler("node: sendBlocks: conn[%s]: WARNING: %s", id, err)
		conn.WriteLine(protocol.RespEndBlocks)
		return
	}

	blocks := s.state.QueryBlocksFrom(from)

	s.evHandler("node: sendBlocks: conn[%s]: from[%d]: blocks[%d]", id, from, len(blocks))

	for i, block := range blocks {
		trans := block.Transactions()

		if err := conn.WriteLine(protocol.BlockHeader(from+i, len(trans))); err != nil {
			s.evHandler("node: sendBlocks: conn[%s]: ERROR: %s", id, err)
			return
		}

		for _, tx := range trans {
			if err := conn.WriteLine(protocol.TxLine(tx)); err != nil {
				s.evHandler("node: sendBlocks: conn[%s]: ERROR: %s", id, err)
				return
			}
		}
	}

	conn.WriteLine(protocol.RespEndBlocks)
}
