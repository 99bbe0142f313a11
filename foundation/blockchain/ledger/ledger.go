// Package ledger implements the append only, in memory chain of blocks this
// node has mined.
package ledger

import (
	"errors"
	"sync"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/digest"
)

// ErrNotFound is returned when a block index is outside the ledger.
var ErrNotFound = errors.New("block does not exist")

// Ledger represents the sequence of accepted blocks. Blocks are never
// removed or reordered.
type Ledger struct {
	mu     sync.RWMutex
	blocks []database.Block
}

// New constructs an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Append adds the block to the end of the ledger and returns its index.
// Linking the block to the current tail is the caller's responsibility.
func (l *Ledger) Append(block database.Block) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.blocks = append(l.blocks, block)

	return len(l.blocks) - 1
}

// RangeFrom returns a copy of the blocks from the specified index to the
// end. A negative index is treated as 0 and an index past the end returns
// an empty list.
func (l *Ledger) RangeFrom(index int) []database.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 {
		index = 0
	}

	if index >= len(l.blocks) {
		return nil
	}

	blocks := make([]database.Block, len(l.blocks)-index)
	copy(blocks, l.blocks[index:])

	return blocks
}

// Block returns the block at the specified index.
func (l *Ledger) Block(index int) (database.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.blocks) {
		return database.Block{}, ErrNotFound
	}

	return l.blocks[index], nil
}

// TailHash returns the hash of the last block, or the zero hash when the
// ledger is empty.
func (l *Ledger) TailHash() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.tailHash()
}

// Length returns the number of blocks in the ledger.
func (l *Ledger) Length() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.blocks)
}

func (l *Ledger) tailHash() string {
	if len(l.blocks) == 0 {
		return digest.ZeroHash
	}
	return l.blocks[len(l.blocks)-1].Hash
}
