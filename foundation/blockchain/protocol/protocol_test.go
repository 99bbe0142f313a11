package protocol_test

import (
	"testing"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/protocol"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestSplit(t *testing.T) {
	type table struct {
		name string
		line string
		cmd  string
		arg  string
	}

	tt := []table{
		{name: "peer", line: "PEER miner2", cmd: "PEER", arg: "miner2"},
		{name: "lower", line: "block abc", cmd: "BLOCK", arg: "abc"},
		{name: "relay", line: "TX Transaction: a,b,1,1,id", cmd: "TX", arg: "Transaction: a,b,1,1,id"},
		{name: "bare", line: "GET_BLOCKS", cmd: "GET_BLOCKS", arg: ""},
	}

	t.Log("Given the need to split command lines.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				cmd, arg := protocol.Split(tst.line)
				if cmd != tst.cmd || arg != tst.arg {
					t.Fatalf("\t%s\tTest %d:\tShould get %q %q, got %q %q.", failed, testID, tst.cmd, tst.arg, cmd, arg)
				}
				t.Logf("\t%s\tTest %d:\tShould get %q %q.", success, testID, tst.cmd, tst.arg)
			}

			t.Run(tst.name, f)
		}
	}
}

func TestParseGetBlocks(t *testing.T) {
	type table struct {
		name string
		arg  string
		from int
		ok   bool
	}

	tt := []table{
		{name: "missing", arg: "", from: 0, ok: true},
		{name: "index", arg: "3", from: 3, ok: true},
		{name: "negative", arg: "-4", from: 0, ok: true},
		{name: "garbage", arg: "abc"},
	}

	t.Log("Given the need to read the GET_BLOCKS index.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				from, err := protocol.ParseGetBlocks(tst.arg)
				if tst.ok != (err == nil) || from != tst.from {
					t.Fatalf("\t%s\tTest %d:\tShould get %d ok=%t, got %d %v.", failed, testID, tst.from, tst.ok, from, err)
				}
				t.Logf("\t%s\tTest %d:\tShould get %d ok=%t.", success, testID, tst.from, tst.ok)
			}

			t.Run(tst.name, f)
		}
	}
}

func TestBlockStream(t *testing.T) {
	t.Log("Given the need to describe blocks on the wire.")
	{
		index, count, err := protocol.ParseBlockHeader(protocol.BlockHeader(7, 4))
		if err != nil || index != 7 || count != 4 {
			t.Fatalf("\t%s\tShould parse a block header: %d %d %v", failed, index, count, err)
		}
		t.Logf("\t%s\tShould parse a block header.", success)

		if _, _, err := protocol.ParseBlockHeader("BLOCK abc"); err == nil {
			t.Fatalf("\t%s\tShould reject a gossip notice as a header.", failed)
		}
		t.Logf("\t%s\tShould reject a gossip notice as a header.", success)

		tx := database.Tx{ID: "id1", Sender: "bill", Receiver: "pavel", Amount: "2.5", Fee: 0.1}
		line := protocol.TxLine(tx)
		if line != "TX: bill,pavel,2.5,0.1,id1" {
			t.Fatalf("\t%s\tShould format a transaction line, got %q.", failed, line)
		}
		t.Logf("\t%s\tShould format a transaction line.", success)

		got, err := protocol.ParseTxLine(line)
		if err != nil || got.ID != tx.ID || got.Amount != tx.Amount || got.Fee != tx.Fee {
			t.Fatalf("\t%s\tShould parse a transaction line: %+v %v", failed, got, err)
		}
		t.Logf("\t%s\tShould parse a transaction line.", success)
	}
}
