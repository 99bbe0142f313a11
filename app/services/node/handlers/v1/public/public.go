// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ardanlabs/gossipchain/business/web/errs"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/digest"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/ledger"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/merkle"
	"github.com/ardanlabs/gossipchain/foundation/blockchain/state"
	"github.com/ardanlabs/gossipchain/foundation/events"
	"github.com/ardanlabs/gossipchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Status returns a summary of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	st := status{
		Node:          h.State.RetrieveNodeName(),
		Difficulty:    h.State.RetrieveDifficulty(),
		TransPerBlock: h.State.RetrieveTransPerBlock(),
		ChainLength:   h.State.QueryChainLength(),
		TailHash:      h.State.QueryTailHash(),
		Uncommitted:   h.State.QueryMempoolLength(),
		Peers:         len(h.State.RetrievePeers().Peers),
	}

	return web.Respond(ctx, w, st, http.StatusOK)
}

// Blocks returns the blocks from the specified index to the tail.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from := 0
	if s := web.Param(r, "from"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return errs.NewTrusted(fmt.Errorf("invalid block index %q", s), http.StatusBadRequest)
		}
		if n > 0 {
			from = n
		}
	}

	dbBlocks := h.State.QueryBlocksFrom(from)
	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	return web.Respond(ctx, w, toBlocks(from, dbBlocks), http.StatusOK)
}

// MerkleProof returns the proof a transaction is part of a block.
func (h Handlers) MerkleProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.Atoi(web.Param(r, "index"))
	if err != nil {
		return errs.NewTrusted(errors.New("invalid block index"), http.StatusBadRequest)
	}

	txID := web.Param(r, "txid")

	mp, err := h.State.QueryMerkleProof(index, txID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrNotFound), errors.Is(err, state.ErrTxNotFound):
			return errs.NewTrusted(err, http.StatusNotFound)
		default:
			return fmt.Errorf("proof: index[%d] txid[%s]: %w", index, txID, err)
		}
	}

	p := proof{
		Index:      mp.Index,
		TxID:       mp.TxID,
		MerkleRoot: mp.MerkleRoot,
		Proof:      mp.Proof,
		Order:      mp.Order,
		Verified:   merkle.VerifyProof(mp.TxID, mp.Proof, mp.Order, mp.MerkleRoot, digest.Pair),
	}

	return web.Respond(ctx, w, p, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryMempool(), http.StatusOK)
}

// Peers returns the set of connected miners.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	ps := h.State.RetrievePeers()

	return web.Respond(ctx, w, peers{Self: ps.Self, Peers: ps.Peers}, http.StatusOK)
}
