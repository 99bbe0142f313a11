package state

import (
	"errors"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/peer"
)

// ErrTxNotFound is returned when a transaction is not part of a block.
var ErrTxNotFound = errors.New("transaction not found in block")

// RetrieveNodeName returns the name this node registered with.
func (s *State) RetrieveNodeName() string {
	return s.nodeName
}

// RetrieveDifficulty returns the difficulty blocks are mined at.
func (s *State) RetrieveDifficulty() uint {
	return s.difficulty
}

// RetrieveTransPerBlock returns the number of transactions in a block.
func (s *State) RetrieveTransPerBlock() int {
	return s.transPerBlock
}

// RetrievePeers returns the miners this node is connected to.
func (s *State) RetrievePeers() peer.Status {
	return peer.Status{
		Self:  s.nodeName,
		Peers: s.peers.Copy(),
	}
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryMempool returns a copy of the mempool in selection order.
func (s *State) QueryMempool() []database.Tx {
	return s.mempool.Copy()
}

// QueryBlocksFrom returns the blocks from the index to the end of the chain.
func (s *State) QueryBlocksFrom(index int) []database.Block {
	return s.ledger.RangeFrom(index)
}

// QueryChainLength returns the number of blocks in the chain.
func (s *State) QueryChainLength() int {
	return s.ledger.Length()
}

// QueryTailHash returns the hash of the latest block.
func (s *State) QueryTailHash() string {
	return s.ledger.TailHash()
}

// MerkleProof represents the information needed to prove a transaction is
// part of a block.
type MerkleProof struct {
	Index      int      `json:"index"`
	TxID       string   `json:"tx_id"`
	MerkleRoot string   `json:"merkle_root"`
	Proof      []string `json:"proof"`
	Order      []int64  `json:"order"`
}

// QueryMerkleProof returns the merkle proof for the transaction in the
// block at the index.
func (s *State) QueryMerkleProof(index int, txID string) (MerkleProof, error) {
	block, err := s.ledger.Block(index)
	if err != nil {
		return MerkleProof{}, err
	}

	for _, tx := range block.Transactions() {
		if tx.ID != txID {
			continue
		}

		proof, order, err := block.Trans.Proof(tx)
		if err != nil {
			return MerkleProof{}, err
		}

		mp := MerkleProof{
			Index:      index,
			TxID:       txID,
			MerkleRoot: block.MerkleRoot,
			Proof:      proof,
			Order:      order,
		}

		return mp, nil
	}

	return MerkleProof{}, ErrTxNotFound
}
