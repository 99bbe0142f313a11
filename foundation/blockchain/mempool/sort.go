package mempool

import (
	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
)

// entry is a transaction waiting in the pool along with the sequence number
// it was given on insert.
type entry struct {
	tx  database.Tx
	seq uint64
}

// byPriority implements heap.Interface. The highest fee comes first and
// ties are broken by the lowest sequence number, first in first out.
type byPriority []entry

func (bp byPriority) Len() int {
	return len(bp)
}

func (bp byPriority) Less(i, j int) bool {
	if bp[i].tx.Fee != bp[j].tx.Fee {
		return bp[i].tx.Fee > bp[j].tx.Fee
	}
	return bp[i].seq < bp[j].seq
}

func (bp byPriority) Swap(i, j int) {
	bp[i], bp[j] = bp[j], bp[i]
}

func (bp *byPriority) Push(x any) {
	*bp = append(*bp, x.(entry))
}

func (bp *byPriority) Pop() any {
	old := *bp
	n := len(old)
	e := old[n-1]
	old[n-1] = entry{}
	*bp = old[:n-1]
	return e
}
