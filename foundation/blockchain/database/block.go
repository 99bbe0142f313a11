// Package database handles the transactions and blocks that make up the
// blockchain and the proof of work that seals a block.
package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/digest"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/merkle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MaxDifficulty is the largest number of leading zero bits a block hash can
// be asked to have.
const MaxDifficulty = 256

// ErrEmptyBatch is returned when a block is requested with no transactions.
var ErrEmptyBatch = errors.New("cannot build a block with no transactions")

// =============================================================================

// Block represents a group of transactions batched together and sealed by
// the proof of work.
type Block struct {
	TimeStamp     time.Time        // Fixed when the block is created, not per attempt.
	PrevBlockHash string           // Hash of the previous block or the zero hash.
	Difficulty    uint             // Leading zero bits required of the hash.
	MerkleRoot    string           // Root of the merkle tree over the transaction ids.
	Nonce         uint64           // Value found by the proof of work.
	Hash          string           // Digest of the sealed block.
	Attempts      uint64           // Number of hashes computed, nonce + 1.
	Duration      time.Duration    // Wall time spent on the proof of work.
	Trans         *merkle.Tree[Tx] // Transactions in the order they were selected.
}

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	PrevBlockHash string
	Difficulty    uint
	Trans         []Tx
	EvHandler     func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. There is no bound on the number of
// attempts, the search only stops early if the context is cancelled.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	if len(args.Trans) == 0 {
		return Block{}, ErrEmptyBatch
	}

	if args.Difficulty > MaxDifficulty {
		return Block{}, fmt.Errorf("difficulty %d exceeds %d", args.Difficulty, MaxDifficulty)
	}

	// When mining the first block, the previous block's hash will be zero.
	prevBlockHash := args.PrevBlockHash
	if prevBlockHash == "" {
		prevBlockHash = digest.ZeroHash
	}

	// Construct a merkle tree from the transactions for this block. The root
	// of this tree will be part of the block to be mined.
	tree, err := merkle.NewTree(args.Trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		TimeStamp:     time.Now(),
		PrevBlockHash: prevBlockHash,
		Difficulty:    args.Difficulty,
		MerkleRoot:    tree.MerkleRoot,
		Trans:         tree,
	}

	if err := nb.performPOW(ctx, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for the block.
// Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started")
	defer ev("database: PerformPOW: MINING: completed")

	for _, tx := range b.Trans.Values() {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	target, bounded := Target(b.Difficulty)
	start := time.Now()

	for b.Nonce = 0; ; b.Nonce++ {
		if b.Nonce%1_000_000 == 0 && b.Nonce > 0 {
			ev("database: PerformPOW: MINING: attempts[%d]", b.Nonce)

			// Did we get asked to stop trying to solve the problem.
			if ctx.Err() != nil {
				ev("database: PerformPOW: MINING: CANCELLED")
				return ctx.Err()
			}
		}

		hash := b.CalculateHash()
		if !solves(hash, target, bounded) {
			continue
		}

		b.Hash = hash
		b.Attempts = b.Nonce + 1
		b.Duration = time.Since(start)

		ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.PrevBlockHash, b.Hash, b.Attempts)

		return nil
	}
}

// CalculateHash returns the digest of the block's header fields using the
// current nonce.
func (b Block) CalculateHash() string {
	return digest.Hash(FormatTimeStamp(b.TimeStamp) + b.MerkleRoot + b.PrevBlockHash + strconv.FormatUint(b.Nonce, 10) + strconv.FormatUint(uint64(b.Difficulty), 10))
}

// Transactions returns the block's transactions in block order.
func (b Block) Transactions() []Tx {
	if b.Trans == nil {
		return nil
	}
	return b.Trans.Values()
}

// ValidateBlock checks a sealed block against the hash of the block that
// precedes it.
func (b Block) ValidateBlock(prevBlockHash string) error {
	if b.PrevBlockHash != prevBlockHash {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.PrevBlockHash, prevBlockHash)
	}

	hash := b.CalculateHash()
	if hash != b.Hash {
		return fmt.Errorf("block hash doesn't match its contents, got %s, exp %s", b.Hash, hash)
	}

	if !IsHashSolved(b.Difficulty, b.Hash) {
		return fmt.Errorf("%s invalid block hash for difficulty %d", b.Hash, b.Difficulty)
	}

	if b.Trans == nil || b.Trans.Verify() != nil || b.Trans.MerkleRoot != b.MerkleRoot {
		return errors.New("merkle root does not match transactions")
	}

	return nil
}

// =============================================================================

// Target returns 2^(256-difficulty) as a 32 byte big endian value. The
// second return is false when the target does not fit in 256 bits, which
// only happens at difficulty 0 where every hash qualifies.
func Target(difficulty uint) (common.Hash, bool) {
	if difficulty == 0 || difficulty > MaxDifficulty {
		return common.Hash{}, false
	}

	t := new(uint256.Int).Lsh(uint256.NewInt(1), MaxDifficulty-difficulty)
	return common.Hash(t.Bytes32()), true
}

// IsHashSolved checks that the hash, read as an unsigned 256 bit integer, is
// strictly less than 2^(256-difficulty).
func IsHashSolved(difficulty uint, hash string) bool {
	if difficulty > MaxDifficulty {
		return false
	}

	target, bounded := Target(difficulty)
	return solves(hash, target, bounded)
}

// solves performs the comparison against a precomputed target.
func solves(hash string, target common.Hash, bounded bool) bool {
	h, ok := digest.ToHash(hash)
	if !ok {
		return false
	}

	if !bounded {
		return true
	}

	return h.Cmp(target) < 0
}
