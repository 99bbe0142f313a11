package database_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
)

func TestParseSubmission(t *testing.T) {
	type table struct {
		name    string
		payload string
		ok      bool
		tx      database.Tx
	}

	tt := []table{
		{
			name:    "wallet",
			payload: "Transaction: Dimi, Mark, 10.0, 0.5, abc123",
			ok:      true,
			tx:      database.Tx{Sender: "Dimi", Receiver: "Mark", Amount: "10.0", Fee: 0.5, ID: "abc123"},
		},
		{
			name:    "compact",
			payload: "Transaction:a,b,1,2,id",
			ok:      true,
			tx:      database.Tx{Sender: "a", Receiver: "b", Amount: "1", Fee: 2, ID: "id"},
		},
		{name: "short", payload: "Transaction: a,b,1,2"},
		{name: "prefix", payload: "hello a,b,1,2,id"},
		{name: "amount", payload: "Transaction: a,b,x,2,id"},
		{name: "fee", payload: "Transaction: a,b,1,x,id"},
		{name: "negative", payload: "Transaction: a,b,1,-1,id"},
		{name: "empty", payload: "Transaction: ,b,1,1,id"},
	}

	t.Log("Given the need to parse transaction submissions.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				tx, err := database.ParseSubmission(tst.payload)
				if !tst.ok {
					if !errors.Is(err, database.ErrMalformedTx) {
						t.Fatalf("\t%s\tTest %d:\tShould reject %q as malformed, got %v.", failed, testID, tst.payload, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject %q as malformed.", success, testID, tst.payload)
					return
				}

				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould parse %q: %v", failed, testID, tst.payload, err)
				}

				if tx.Sender != tst.tx.Sender || tx.Receiver != tst.tx.Receiver || tx.Amount != tst.tx.Amount || tx.Fee != tst.tx.Fee || tx.ID != tst.tx.ID {
					t.Logf("\t%s\tTest %d:\tgot: %+v", failed, testID, tx)
					t.Logf("\t%s\tTest %d:\texp: %+v", failed, testID, tst.tx)
					t.Fatalf("\t%s\tTest %d:\tShould get back the submitted fields.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get back the submitted fields.", success, testID)

				again, err := database.ParseSubmission(tx.Payload())
				if err != nil || again.ID != tx.ID || again.Fee != tx.Fee {
					t.Fatalf("\t%s\tTest %d:\tShould parse its own payload: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould parse its own payload.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func TestNewTx(t *testing.T) {
	t.Log("Given the need to create transactions with content ids.")
	{
		tx, err := database.NewTx("Dimi", "Mark", "5", 1)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to create a transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to create a transaction.", success)

		exp := database.TxID(tx.Sender, tx.Receiver, tx.Amount, tx.TimeStamp)
		if tx.ID != exp || len(tx.ID) != 64 {
			t.Fatalf("\t%s\tShould derive the id from the content: got %s exp %s.", failed, tx.ID, exp)
		}
		t.Logf("\t%s\tShould derive the id from the content.", success)

		if _, err := database.NewTx("", "Mark", "5", 1); err == nil {
			t.Fatalf("\t%s\tShould reject a transaction without a sender.", failed)
		}
		t.Logf("\t%s\tShould reject a transaction without a sender.", success)
	}
}
