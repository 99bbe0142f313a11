package nameservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/ardanlabs/gossipchain/foundation/wire"
	"github.com/google/uuid"
)

// EventHandler defines a function that is called when events occur in the
// processing of directory connections.
type EventHandler func(v string, args ...any)

// Server accepts directory connections. A miner stays registered for as
// long as the connection it registered on remains open.
type Server struct {
	registry     *Registry
	writeTimeout time.Duration
	evHandler    EventHandler

	listener net.Listener
	wg       sync.WaitGroup
	mu       sync.Mutex
	conns    map[string]*wire.Conn
	shut     chan struct{}
}

// NewServer constructs a directory server over the registry.
func NewServer(registry *Registry, writeTimeout time.Duration, evHandler EventHandler) *Server {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Server{
		registry:     registry,
		writeTimeout: writeTimeout,
		evHandler:    ev,
		conns:        make(map[string]*wire.Conn),
		shut:         make(chan struct{}),
	}
}

// Start binds the address and begins accepting connections.
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

// Shutdown stops accepting connections, closes the open ones and waits for
// their handlers to return or the context to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.evHandler("nameservice: shutdown: started")
	defer s.evHandler("nameservice: shutdown: completed")

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

func (s *Server) acceptOperations() {
	s.evHandler("nameservice: acceptOperations: G started")
	defer s.evHandler("nameservice: acceptOperations: G completed")

	for {
		c, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.shut:
				return
			default:
			}
			s.evHandler("nameservice: acceptOperations: ERROR: %s", err)
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

			s.handle(id, conn)
		}()
	}
}

// handle processes the commands on one connection until it closes.
func (s *Server) handle(id string, conn *wire.Conn) {
	s.evHandler("nameservice: handle: conn[%s]: remote[%s]: started", id, conn.RemoteAddr())
	defer s.evHandler("nameservice: handle: conn[%s]: completed", id)

	var registered []Entry
	defer func() {
		for _, e := range registered {
			s.registry.Remove(e)
			s.evHandler("nameservice: handle: conn[%s]: deregistered[%s]", id, e)
		}
	}()

	for {
		line, err := conn.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.evHandler("nameservice: handle: conn[%s]: ERROR: %s", id, err)
			}
			return
		}

		cmd, args, _ := strings.Cut(strings.TrimSpace(line), " ")

		switch strings.ToUpper(cmd) {
		case CmdRegister:
			e, err := ParseEntry(args)
			if err != nil {
				s.reply(id, conn, RespErr+" "+err.Error())
				continue
			}

			s.registry.Register(e)
			registered = append(registered, e)
			s.evHandler("nameservice: handle: conn[%s]: registered[%s]", id, e)
			s.reply(id, conn, RespOK)

		case CmdList:
			for _, e := range s.registry.Copy() {
				s.reply(id, conn, e.String())
			}
			s.reply(id, conn, RespEnd)

		default:
			s.reply(id, conn, RespErr+" unknown command")
		}
	}
}

func (s *Server) reply(id string, conn *wire.Conn, line string) {
	if err := conn.WriteLine(line); err != nil {
		s.evHandler("nameservice: reply: conn[%s]: ERROR: %s", id, err)
	}
}
