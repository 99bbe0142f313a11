package state

import (
	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
)

// ProcessTransaction parses a wallet submission and adds it to the mempool.
// A submission made directly to this node is relayed to every peer once. A
// submission relayed by a peer is never relayed again. The returned bool
// reports if the transaction was new to the mempool.
func (s *State) ProcessTransaction(payload string, fromPeer bool) (database.Tx, bool, error) {
	tx, err := database.ParseSubmission(payload)
	if err != nil {
		s.evHandler("state: ProcessTransaction: WARNING: %s", err)
		return database.Tx{}, false, err
	}

	if !s.mempool.Submit(tx) {
		s.evHandler("state: ProcessTransaction: duplicate tx[%s]", tx.ID)
		return tx, false, nil
	}

	s.evHandler("state: ProcessTransaction: added tx[%s]: fromPeer[%t]: mempool[%d]", tx, fromPeer, s.mempool.Count())

	if !fromPeer {
		s.NetSendTxToPeers(payload)
	}

	if w := s.retrieveWorker(); w != nil && s.mempool.Count() >= s.transPerBlock {
		w.SignalStartMining()
	}

	return tx, true, nil
}
