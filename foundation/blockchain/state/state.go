// Package state is the core API for the mining node and implements all the
// business rules and processing.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/ledger"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/mempool"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/peer"
	"github.com/ardanlabs/gossipchain/foundation/nameservice"
)

// EventHandler defines a function that is called when events
// occur in the processing of transactions and blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and peer discovery.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// Directory represents the behavior required to find other miners.
type Directory interface {
	List(ctx context.Context) ([]nameservice.Entry, error)
}

// =============================================================================

// Config represents the configuration required to start
// the mining node.
type Config struct {
	NodeName      string
	Difficulty    uint
	TransPerBlock int
	Directory     Directory
	WriteTimeout  time.Duration
	DialTimeout   time.Duration
	EvHandler     EventHandler
}

// State manages the mempool, ledger and peers of the node.
type State struct {
	nodeName      string
	difficulty    uint
	transPerBlock int
	directory     Directory
	writeTimeout  time.Duration
	dialTimeout   time.Duration
	evHandler     EventHandler

	mempool *mempool.Mempool
	ledger  *ledger.Ledger
	peers   *peer.Table
	readers sync.WaitGroup
	sends   sync.WaitGroup

	mu     sync.RWMutex
	worker Worker
	shut   bool
}

// New constructs the state for a mining node.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.NodeName == "" {
		return nil, errors.New("node name is required")
	}

	if cfg.TransPerBlock < 1 {
		return nil, fmt.Errorf("transactions per block must be at least 1, got %d", cfg.TransPerBlock)
	}

	if cfg.Difficulty > database.MaxDifficulty {
		return nil, fmt.Errorf("difficulty %d exceeds %d", cfg.Difficulty, database.MaxDifficulty)
	}

	state := State{
		nodeName:      cfg.NodeName,
		difficulty:    cfg.Difficulty,
		transPerBlock: cfg.TransPerBlock,
		directory:     cfg.Directory,
		writeTimeout:  cfg.WriteTimeout,
		dialTimeout:   cfg.DialTimeout,
		evHandler:     ev,

		mempool: mempool.New(),
		ledger:  ledger.New(),
		peers:   peer.NewTable(),
	}

	// The Worker is not set here. The call to worker.Run will register itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop the mining and discovery activity.
	if w := s.retrieveWorker(); w != nil {
		w.Shutdown()
	}

	// No new relays start once the shutdown flag is set.
	s.mu.Lock()
	s.shut = true
	s.mu.Unlock()

	// Closing the connections unblocks every peer reader and pending send.
	s.evHandler("state: shutdown: close peer connections")
	s.peers.Shutdown()
	s.readers.Wait()
	s.sends.Wait()

	return nil
}

// RegisterWorker sets the worker that mines and discovers peers for the
// node. Connections can be served before a worker is registered.
func (s *State) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.worker = w
}

func (s *State) retrieveWorker() Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.worker
}
