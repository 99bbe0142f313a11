package public

import (
	"time"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/peer"
)

type status struct {
	Node          string `json:"node"`
	Difficulty    uint   `json:"difficulty"`
	TransPerBlock int    `json:"trans_per_block"`
	ChainLength   int    `json:"chain_length"`
	TailHash      string `json:"tail_hash"`
	Uncommitted   int    `json:"uncommitted"`
	Peers         int    `json:"peers"`
}

type block struct {
	Index         int           `json:"index"`
	Hash          string        `json:"hash"`
	PrevBlockHash string        `json:"prev_block_hash"`
	MerkleRoot    string        `json:"merkle_root"`
	Difficulty    uint          `json:"difficulty"`
	Nonce         uint64        `json:"nonce"`
	Attempts      uint64        `json:"attempts"`
	TimeStamp     time.Time     `json:"timestamp"`
	Duration      string        `json:"duration"`
	Trans         []database.Tx `json:"trans"`
}

func toBlocks(from int, blocks []database.Block) []block {
	out := make([]block, len(blocks))
	for i, b := range blocks {
		out[i] = block{
			Index:         from + i,
			Hash:          b.Hash,
			PrevBlockHash: b.PrevBlockHash,
			MerkleRoot:    b.MerkleRoot,
			Difficulty:    b.Difficulty,
			Nonce:         b.Nonce,
			Attempts:      b.Attempts,
			TimeStamp:     b.TimeStamp,
			Duration:      b.Duration.String(),
			Trans:         b.Transactions(),
		}
	}
	return out
}

type proof struct {
	Index      int      `json:"index"`
	TxID       string   `json:"tx_id"`
	MerkleRoot string   `json:"merkle_root"`
	Proof      []string `json:"proof"`
	Order      []int64  `json:"order"`
	Verified   bool     `json:"verified"`
}

type peers struct {
	Self  string      `json:"self"`
	Peers []peer.Peer `json:"peers"`
}
