// Package peer maintains the set of miners this node is connected to and
// the ability to gossip a line of text to all of them.
package peer

import (
	"sort"
	"sync"
)

// Conn is the behavior required of a connection to a peer.
type Conn interface {
	Send(line string) error
	Close() error
}

// Peer represents information about a connected miner.
type Peer struct {
	Name     string `json:"name"`
	Addr     string `json:"addr,omitempty"`
	Outbound bool   `json:"outbound"`
}

// Status represents the view of the peer table exposed for reporting.
type Status struct {
	Self  string `json:"self"`
	Peers []Peer `json:"peers"`
}

// =============================================================================

type member struct {
	peer Peer
	conn Conn
}

// Table represents the set of live peer connections keyed by miner name.
// There is at most one connection per name.
type Table struct {
	mu  sync.RWMutex
	set map[string]member
}

// NewTable constructs a table to manage peer connections.
func NewTable() *Table {
	return &Table{
		set: make(map[string]member),
	}
}

// AddOrReplace registers the connection for the peer. If a connection is
// already registered under that name it is closed and replaced.
func (t *Table) AddOrReplace(p Peer, conn Conn) {
	t.mu.Lock()
	old, exists := t.set[p.Name]
	t.set[p.Name] = member{peer: p, conn: conn}
	t.mu.Unlock()

	if exists && old.conn != conn {
		old.conn.Close()
	}
}

// Remove unregisters the peer by name and closes its connection.
func (t *Table) Remove(name string) bool {
	t.mu.Lock()
	m, exists := t.set[name]
	delete(t.set, name)
	t.mu.Unlock()

	if exists {
		m.conn.Close()
	}

	return exists
}

// Release unregisters the peer only if the connection registered under
// that name is the specified one. This lets a reader for a connection that
// has since been replaced finish without removing its successor.
func (t *Table) Release(name string, conn Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	m, exists := t.set[name]
	if !exists || m.conn != conn {
		return false
	}

	delete(t.set, name)

	return true
}

// Get returns the peer registered under the name.
func (t *Table) Get(name string) (Peer, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m, exists := t.set[name]
	return m.peer, exists
}

// Exists reports if a connection is registered for the name.
func (t *Table) Exists(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, exists := t.set[name]
	return exists
}

// Count returns the number of connected peers.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.set)
}

// Copy returns the connected peers sorted by name.
func (t *Table) Copy() []Peer {
	t.mu.RLock()
	peers := make([]Peer, 0, len(t.set))
	for _, m := range t.set {
		peers = append(peers, m.peer)
	}
	t.mu.RUnlock()

	sort.Slice(peers, func(i, j int) bool { return peers[i].Name < peers[j].Name })

	return peers
}

// Broadcast sends the line to every connected peer. Each send is
// independent so a failing peer does not stop delivery to the others. The
// names of the peers that failed are returned.
func (t *Table) Broadcast(line string) map[string]error {
	t.mu.RLock()
	members := make([]member, 0, len(t.set))
	for _, m := range t.set {
		members = append(members, m)
	}
	t.mu.RUnlock()

	var mu sync.Mutex
	var failures map[string]error

	var wg sync.WaitGroup
	wg.Add(len(members))

	for _, m := range members {
		go func() {
			defer wg.Done()

			if err := m.conn.Send(line); err != nil {
				mu.Lock()
				defer mu.Unlock()

				if failures == nil {
					failures = make(map[string]error)
				}
				failures[m.peer.Name] = err
			}
		}()
	}

	wg.Wait()

	return failures
}

// Shutdown closes every peer connection and empties the table.
func (t *Table) Shutdown() {
	t.mu.Lock()
	members := t.set
	t.set = make(map[string]member)
	t.mu.Unlock()

	for _, m := range members {
		m.conn.Close()
	}
}
