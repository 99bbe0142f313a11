// Package mempool maintains the pool of transactions waiting to be mined.
package mempool

import (
	"container/heap"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
)

// Mempool represents a cache of transactions ordered by fee, with the
// oldest submission winning a tie. A transaction id is only accepted once
// while it is in the pool.
type Mempool struct {
	mu    sync.Mutex
	pool  byPriority
	known map[string]struct{}
	seq   atomic.Uint64
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{
		known: make(map[string]struct{}),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return len(mp.pool)
}

// Submit adds a transaction to the pool. It reports false when a
// transaction with the same id is already pooled, in which case nothing
// changes.
func (mp *Mempool) Submit(tx database.Tx) bool {
	seq := mp.seq.Add(1)

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.known[tx.ID]; exists {
		return false
	}

	mp.known[tx.ID] = struct{}{}
	heap.Push(&mp.pool, entry{tx: tx, seq: seq})

	return true
}

// SelectBatch removes and returns the n best transactions in priority
// order. If fewer than n transactions are pooled, nothing is removed and
// false is returned.
func (mp *Mempool) SelectBatch(n int) ([]database.Tx, bool) {
	if n <= 0 {
		return nil, false
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if len(mp.pool) < n {
		return nil, false
	}

	batch := make([]database.Tx, n)
	for i := range batch {
		e := heap.Pop(&mp.pool).(entry)
		delete(mp.known, e.tx.ID)
		batch[i] = e.tx
	}

	return batch, true
}

// Requeue puts transactions taken by SelectBatch back into the pool. They
// are given new sequence numbers so among equal fees they now rank behind
// anything already waiting.
func (mp *Mempool) Requeue(txs []database.Tx) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var added int
	for _, tx := range txs {
		if _, exists := mp.known[tx.ID]; exists {
			continue
		}

		mp.known[tx.ID] = struct{}{}
		heap.Push(&mp.pool, entry{tx: tx, seq: mp.seq.Add(1)})
		added++
	}
	return added
}

// Copy returns a snapshot of the pooled transactions in priority order.
func (mp *Mempool) Copy() []database.Tx {
	mp.mu.Lock()
	entries := make(byPriority, len(mp.pool))
	copy(entries, mp.pool)
	mp.mu.Unlock()

	sort.Sort(entries)

	txs := make([]database.Tx, len(entries))
	for i, e := range entries {
		txs[i] = e.tx
	}
	return txs
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
	mp.known = make(map[string]struct{})
}
