package cmd

import (
	"testing"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
	"github.com/ardanlabs/gossipchain/foundation/client"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestBalance(t *testing.T) {
	blocks := []client.Block{
		{Index: 0, Trans: []database.Tx{
			{ID: "a", Sender: "bill", Receiver: "ana", Amount: "10.5"},
			{ID: "b", Sender: "ana", Receiver: "bill", Amount: "3"},
		}},
		{Index: 1, Trans: []database.Tx{
			{ID: "c", Sender: "bill", Receiver: "ana", Amount: "2"},
			{ID: "d", Sender: "bill", Receiver: "ana", Amount: "lots"},
		}},
	}

	tt := []struct {
		name  string
		owner string
		exp   float64
	}{
		{name: "receiver", owner: "ana", exp: 112.5},
		{name: "other", owner: "bill", exp: 103},
		{name: "unknown", owner: "kevin", exp: 100},
	}

	t.Log("Given the need to compute a wallet balance from the chain.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				got := balance(tst.owner, blocks)
				if got != tst.exp {
					t.Fatalf("\t%s\tTest %d:\tShould get a balance of %v for %s : %v", failed, testID, tst.exp, tst.owner, got)
				}
				t.Logf("\t%s\tTest %d:\tShould get a balance of %v for %s.", success, testID, tst.exp, tst.owner)
			}

			t.Run(tst.name, f)
		}
	}
}
