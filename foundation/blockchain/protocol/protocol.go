// Package protocol defines the commands and line formats spoken between
// miners and wallets.
package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
)

// Set of commands a miner understands.
const (
	CmdPeer      = "PEER"
	CmdTx        = "TX"
	CmdBlock     = "BLOCK"
	CmdGetBlocks = "GET_BLOCKS"
	CmdExit      = "exit"
)

// Set of responses a miner sends.
const (
	RespOK        = "OK"
	RespEndBlocks = "END_BLOCKS"
	TxLinePrefix  = "TX:"
)

// Split separates a line into its keyword and the rest of the line. The
// keyword is returned in upper case.
func Split(line string) (cmd string, arg string) {
	cmd, arg, _ = strings.Cut(strings.TrimSpace(line), " ")
	return strings.ToUpper(cmd), strings.TrimSpace(arg)
}

// IsExit reports if the line asks to end a client session.
func IsExit(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), CmdExit)
}

// IsSubmission reports if the line is a wallet transaction submission.
func IsSubmission(line string) bool {
	return strings.HasPrefix(line, database.SubmitPrefix)
}

// Peer returns the handshake line announcing the miner by name.
func Peer(name string) string {
	return CmdPeer + " " + name
}

// Tx returns the line relaying a submission to a peer.
func Tx(payload string) string {
	return CmdTx + " " + payload
}

// Block returns the line announcing a newly mined block.
func Block(hash string) string {
	return CmdBlock + " " + hash
}

// GetBlocks returns the line requesting the chain from the index.
func GetBlocks(from int) string {
	return fmt.Sprintf("%s %d", CmdGetBlocks, from)
}

// ParseGetBlocks returns the index carried by a GET_BLOCKS argument. A
// missing index means 0 and a negative index is treated as 0.
func ParseGetBlocks(arg string) (int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, nil
	}

	from, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid block index %q", arg)
	}

	return max(from, 0), nil
}

// BlockHeader returns the line that starts a block in a GET_BLOCKS stream.
func BlockHeader(index int, txCount int) string {
	return fmt.Sprintf("%s %d %d", CmdBlock, index, txCount)
}

// ParseBlockHeader parses the line that starts a block in a GET_BLOCKS
// stream.
func ParseBlockHeader(line string) (index int, txCount int, err error) {
	cmd, arg := Split(line)
	if cmd != CmdBlock {
		return 0, 0, fmt.Errorf("expected %s header, got %q", CmdBlock, line)
	}

	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("malformed block header %q", line)
	}

	if index, err = strconv.Atoi(fields[0]); err != nil {
		return 0, 0, fmt.Errorf("block index: %w", err)
	}

	if txCount, err = strconv.Atoi(fields[1]); err != nil || txCount < 0 {
		return 0, 0, fmt.Errorf("malformed transaction count %q", fields[1])
	}

	return index, txCount, nil
}

// TxLine returns the line describing a transaction in a GET_BLOCKS stream.
func TxLine(tx database.Tx) string {
	return TxLinePrefix + " " + tx.Fields()
}

// ParseTxLine parses the line describing a transaction in a GET_BLOCKS
// stream.
func ParseTxLine(line string) (database.Tx, error) {
	if !strings.HasPrefix(line, TxLinePrefix) {
		return database.Tx{}, fmt.Errorf("%w: missing %q prefix", database.ErrMalformedTx, TxLinePrefix)
	}

	return database.ParseFields(strings.TrimPrefix(line, TxLinePrefix))
}
