package state

import (
	"context"
	"errors"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
)

// ErrNotEnoughTransactions is returned when a block is requested to be
// created and there are not enough transactions.
var ErrNotEnoughTransactions = errors.New("not enough transactions in mempool")

// =============================================================================

// MineNewBlock takes the next batch of transactions from the mempool and
// attempts to create a new block with a proper hash that becomes the next
// block in the chain. If the block can't be built the batch is put back in
// the mempool.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: select batch")

	trans, ok := s.mempool.SelectBatch(s.transPerBlock)
	if !ok {
		return database.Block{}, ErrNotEnoughTransactions
	}

	s.evHandler("state: MineNewBlock: MINING: perform POW: txs[%d]", len(trans))

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		PrevBlockHash: s.ledger.TailHash(),
		Difficulty:    s.difficulty,
		Trans:         trans,
		EvHandler:     s.evHandler,
	})
	if err != nil {
		s.evHandler("state: MineNewBlock: MINING: requeue txs[%d]: %s", s.mempool.Requeue(trans), err)
		return database.Block{}, err
	}

	index := s.ledger.Append(block)

	s.evHandler("state: MineNewBlock: MINING: appended block[%d]: hash[%s]: attempts[%d]: duration[%v]", index, block.Hash, block.Attempts, block.Duration)

	return block, nil
}
