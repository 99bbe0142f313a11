package ledger_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/digest"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/ledger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func mine(t *testing.T, prevHash string, n int) database.Block {
	t.Helper()

	tx := database.Tx{ID: digest.Hash(fmt.Sprintf("tx-%d", n)), Sender: "bill", Receiver: "pavel", Amount: "1", Fee: 1}

	block, err := database.POW(context.Background(), database.POWArgs{
		PrevBlockHash: prevHash,
		Difficulty:    2,
		Trans:         []database.Tx{tx},
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to mine block %d: %v", failed, n, err)
	}

	return block
}

func TestLedger(t *testing.T) {
	t.Log("Given the need to keep a chain of blocks.")
	{
		l := ledger.New()

		if l.TailHash() != digest.ZeroHash {
			t.Fatalf("\t%s\tShould have the zero hash as the tail of an empty ledger.", failed)
		}
		t.Logf("\t%s\tShould have the zero hash as the tail of an empty ledger.", success)

		for i := range 5 {
			if idx := l.Append(mine(t, l.TailHash(), i)); idx != i {
				t.Fatalf("\t%s\tShould get back index %d, got %d.", failed, i, idx)
			}
		}
		t.Logf("\t%s\tShould be able to append 5 blocks.", success)

		blocks := l.RangeFrom(0)
		prev := digest.ZeroHash
		for i, block := range blocks {
			if err := block.ValidateBlock(prev); err != nil {
				t.Fatalf("\t%s\tShould have block %d linked to its parent: %v", failed, i, err)
			}
			prev = block.Hash
		}
		t.Logf("\t%s\tShould have every block linked to its parent.", success)

		if l.TailHash() != blocks[4].Hash {
			t.Fatalf("\t%s\tShould have the last block as the tail.", failed)
		}
		t.Logf("\t%s\tShould have the last block as the tail.", success)

		if got := l.RangeFrom(2); len(got) != 3 || got[0].Hash != blocks[2].Hash {
			t.Fatalf("\t%s\tShould get back the blocks from index 2.", failed)
		}
		t.Logf("\t%s\tShould get back the blocks from index 2.", success)

		if got := l.RangeFrom(10); len(got) != 0 {
			t.Fatalf("\t%s\tShould get back nothing past the end.", failed)
		}
		t.Logf("\t%s\tShould get back nothing past the end.", success)

		if got := l.RangeFrom(-3); len(got) != 5 {
			t.Fatalf("\t%s\tShould treat a negative index as 0.", failed)
		}
		t.Logf("\t%s\tShould treat a negative index as 0.", success)

		if l.Length() != 5 {
			t.Fatalf("\t%s\tShould have 5 blocks, got %d.", failed, l.Length())
		}
		t.Logf("\t%s\tShould have 5 blocks.", success)

		if _, err := l.Block(5); err == nil {
			t.Fatalf("\t%s\tShould not find a block past the end.", failed)
		}
		t.Logf("\t%s\tShould not find a block past the end.", success)
	}
}
