package state

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/peer"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/protocol"
	"github.com/ardanlabs/gossipchain/foundation/wire"
)

// ErrSelfPeer is returned when a peer connection claims this node's name.
var ErrSelfPeer = errors.New("peer has the same name as this node")

// ErrDuplicatePeer is returned when an inbound connection loses to the
// outbound connection already held for the same miner.
var ErrDuplicatePeer = errors.New("peer is already connected")

// PeerConn represents the behavior required of a connection a peer reader
// consumes.
type PeerConn interface {
	peer.Conn
	ReadLine() (string, error)
}

// AddPeer registers the connection under the peer's name. An existing
// connection under the same name is closed and replaced. When two miners
// dial each other at the same time, the miner with the lower name keeps its
// outbound connection so both sides settle on the same link.
func (s *State) AddPeer(p peer.Peer, conn peer.Conn) error {
	if p.Name == "" {
		return errors.New("peer name is required")
	}

	if p.Name == s.nodeName {
		return ErrSelfPeer
	}

	if !p.Outbound {
		if existing, ok := s.peers.Get(p.Name); ok && existing.Outbound && s.nodeName < p.Name {
			return ErrDuplicatePeer
		}
	}

	s.peers.AddOrReplace(p, conn)
	s.evHandler("state: AddPeer: peer[%s]: addr[%s]: peers[%d]", p.Name, p.Addr, s.peers.Count())

	return nil
}

// IsPeerConnected reports if a connection to the named miner exists.
func (s *State) IsPeerConnected(name string) bool {
	return s.peers.Exists(name)
}

// RunPeerReader consumes messages from the peer until the connection
// yields no more data. Relayed transactions go into the mempool without
// being relayed again. Block notices are only logged. When the stream ends
// the peer is removed unless the connection was already replaced.
func (s *State) RunPeerReader(name string, conn PeerConn) {
	s.evHandler("state: RunPeerReader: peer[%s]: started", name)
	defer s.evHandler("state: RunPeerReader: peer[%s]: completed", name)

	defer func() {
		if s.peers.Release(name, conn) {
			s.evHandler("state: RunPeerReader: peer[%s]: removed: peers[%d]", name, s.peers.Count())
		}
		conn.Close()
	}()

	for {
		line, err := conn.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				s.evHandler("state: RunPeerReader: peer[%s]: ERROR: %s", name, err)
			}
			return
		}

		cmd, arg := protocol.Split(line)

		switch cmd {
		case protocol.CmdTx:
			s.ProcessTransaction(arg, true)

		case protocol.CmdBlock:
			s.evHandler("state: RunPeerReader: peer[%s]: mined block[%s]", name, arg)

		default:
			s.evHandler("state: RunPeerReader: peer[%s]: ignored: %q", name, line)
		}
	}
}

// =============================================================================

// NetSendTxToPeers relays a wallet submission to every peer. It returns
// without waiting for the writes, failures are logged.
func (s *State) NetSendTxToPeers(payload string) {
	s.broadcast("NetSendTxToPeers", protocol.Tx(payload))
}

// NetSendBlockToPeers announces a newly mined block to every peer. It
// returns without waiting for the writes, failures are logged.
func (s *State) NetSendBlockToPeers(hash string) {
	s.broadcast("NetSendBlockToPeers", protocol.Block(hash))
}

func (s *State) broadcast(op string, line string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.shut {
		return
	}

	s.sends.Add(1)
	go func() {
		defer s.sends.Done()

		for name, err := range s.peers.Broadcast(line) {
			s.evHandler("state: %s: peer[%s]: WARNING: %s", op, name, err)
		}
	}()
}

// ConnectPeers asks the directory for the miners on the network and opens
// a connection to every miner this node is not connected to yet. It returns
// the number of new connections.
func (s *State) ConnectPeers(ctx context.Context) (int, error) {
	if s.directory == nil {
		return 0, nil
	}

	entries, err := s.directory.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list directory: %w", err)
	}

	var connected int
	for _, e := range entries {
		if e.Name == s.nodeName || s.peers.Exists(e.Name) {
			continue
		}

		if err := s.connectPeer(ctx, peer.Peer{Name: e.Name, Addr: e.Addr(), Outbound: true}); err != nil {
			s.evHandler("state: ConnectPeers: peer[%s]: addr[%s]: WARNING: %s", e.Name, e.Addr(), err)
			continue
		}
		connected++
	}

	return connected, nil
}

// connectPeer dials the peer, announces this node and starts a reader for
// the connection.
func (s *State) connectPeer(ctx context.Context, p peer.Peer) error {
	if s.dialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.dialTimeout)
		defer cancel()
	}

	conn, err := wire.Dial(ctx, p.Addr, s.writeTimeout)
	if err != nil {
		return err
	}

	if err := conn.WriteLine(protocol.Peer(s.nodeName)); err != nil {
		conn.Close()
		return err
	}

	if err := s.AddPeer(p, conn); err != nil {
		conn.Close()
		return err
	}

	s.readers.Add(1)
	go func() {
		defer s.readers.Done()
		s.RunPeerReader(p.Name, conn)
	}()

	return nil
}
