package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/gossipchain/app/services/node/handlers"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/digest"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/state"
	"github.com/ardanlabs/gossipchain/foundation/events"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newMux(t *testing.T) (http.Handler, *state.State, []string) {
	t.Helper()

	st, err := state.New(state.Config{
		NodeName:      "miner1",
		Difficulty:    0,
		TransPerBlock: 2,
		WriteTimeout:  time.Second,
		DialTimeout:   time.Second,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}
	t.Cleanup(func() { st.Shutdown() })

	var ids []string
	for i := range 3 {
		id := digest.Hash(strconv.Itoa(i))
		payload := "Transaction: bill, ana, 10, " + strconv.Itoa(i) + ", " + id
		if _, _, err := st.ProcessTransaction(payload, false); err != nil {
			t.Fatalf("\t%s\tShould be able to submit a transaction: %v", failed, err)
		}
		ids = append(ids, id)
	}

	if _, err := st.MineNewBlock(context.Background()); err != nil {
		t.Fatalf("\t%s\tShould be able to mine a block: %v", failed, err)
	}

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		Evts:     events.New(),
	})

	return mux, st, ids
}

func get(mux http.Handler, path string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func TestStatus(t *testing.T) {
	mux, _, _ := newMux(t)

	t.Log("Given the need to report the node status.")
	{
		w := get(mux, "/v1/node/status")
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould get a 200 : %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould get a 200.", success)

		var got struct {
			Node        string `json:"node"`
			ChainLength int    `json:"chain_length"`
			Uncommitted int    `json:"uncommitted"`
		}
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("\t%s\tShould be able to decode the status: %v", failed, err)
		}

		if got.Node != "miner1" || got.ChainLength != 1 || got.Uncommitted != 1 {
			t.Fatalf("\t%s\tShould see one block and one uncommitted tx : %+v", failed, got)
		}
		t.Logf("\t%s\tShould see one block and one uncommitted tx.", success)
	}
}

func TestBlocks(t *testing.T) {
	mux, st, _ := newMux(t)

	t.Log("Given the need to list blocks over http.")
	{
		w := get(mux, "/v1/blocks/list/0")
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tTest 0:\tShould get a 200 : %d", failed, w.Code)
		}

		var blocks []struct {
			Index int    `json:"index"`
			Hash  string `json:"hash"`
			Trans []struct {
				ID string `json:"id"`
			} `json:"trans"`
		}
		if err := json.NewDecoder(w.Body).Decode(&blocks); err != nil {
			t.Fatalf("\t%s\tTest 0:\tShould be able to decode the blocks: %v", failed, err)
		}

		if len(blocks) != 1 || blocks[0].Hash != st.QueryTailHash() || len(blocks[0].Trans) != 2 {
			t.Fatalf("\t%s\tTest 0:\tShould get the mined block : %+v", failed, blocks)
		}
		t.Logf("\t%s\tTest 0:\tShould get the mined block.", success)

		if w := get(mux, "/v1/blocks/list/5"); w.Code != http.StatusNoContent {
			t.Fatalf("\t%s\tTest 1:\tShould get a 204 past the tail : %d", failed, w.Code)
		}
		t.Logf("\t%s\tTest 1:\tShould get a 204 past the tail.", success)

		if w := get(mux, "/v1/blocks/list/abc"); w.Code != http.StatusBadRequest {
			t.Fatalf("\t%s\tTest 2:\tShould get a 400 for a bad index : %d", failed, w.Code)
		}
		t.Logf("\t%s\tTest 2:\tShould get a 400 for a bad index.", success)
	}
}

func TestMerkleProof(t *testing.T) {
	mux, st, _ := newMux(t)

	blocks := st.QueryBlocksFrom(0)
	txID := blocks[0].Transactions()[0].ID

	tt := []struct {
		name   string
		path   string
		status int
	}{
		{name: "found", path: "/v1/blocks/proof/0/" + txID, status: http.StatusOK},
		{name: "notx", path: "/v1/blocks/proof/0/" + digest.Hash("nope"), status: http.StatusNotFound},
		{name: "noblock", path: "/v1/blocks/proof/9/" + txID, status: http.StatusNotFound},
		{name: "badindex", path: "/v1/blocks/proof/x/" + txID, status: http.StatusBadRequest},
	}

	t.Log("Given the need to prove a transaction is in a block.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				w := get(mux, tst.path)
				if w.Code != tst.status {
					t.Fatalf("\t%s\tTest %d:\tShould get a %d : %d", failed, testID, tst.status, w.Code)
				}
				t.Logf("\t%s\tTest %d:\tShould get a %d.", success, testID, tst.status)

				if tst.status != http.StatusOK {
					return
				}

				var p struct {
					Verified bool `json:"verified"`
				}
				if err := json.NewDecoder(w.Body).Decode(&p); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to decode the proof: %v", failed, testID, err)
				}
				if !p.Verified {
					t.Fatalf("\t%s\tTest %d:\tShould get a verified proof.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get a verified proof.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

func TestMempoolAndPeers(t *testing.T) {
	mux, _, ids := newMux(t)

	t.Log("Given the need to list the mempool and the peers.")
	{
		w := get(mux, "/v1/tx/uncommitted/list")
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tTest 0:\tShould get a 200 : %d", failed, w.Code)
		}

		// The highest fees are mined first so the lowest fee remains.
		if !strings.Contains(w.Body.String(), ids[0]) {
			t.Fatalf("\t%s\tTest 0:\tShould see the lowest fee tx uncommitted : %s", failed, w.Body.String())
		}
		t.Logf("\t%s\tTest 0:\tShould see the lowest fee tx uncommitted.", success)

		w = get(mux, "/v1/peers/list")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"self":"miner1"`) {
			t.Fatalf("\t%s\tTest 1:\tShould get the peer list : %d %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tTest 1:\tShould get the peer list.", success)
	}
}

func TestViewer(t *testing.T) {
	mux, _, _ := newMux(t)

	t.Log("Given the need to serve the viewer page.")
	{
		w := get(mux, "/")
		if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/v1/events") {
			t.Fatalf("\t%s\tShould get the viewer page : %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould get the viewer page.", success)
	}
}
