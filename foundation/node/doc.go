/*
Package node accepts the connections made to a mining node and routes them
by their first line.

A connection that opens with "PEER <name>" belongs to another miner and is
handed to the state's peer reader until it closes. Any other first line is
treated as a wallet session: "Transaction: ..." submissions are answered
with "OK" and "GET_BLOCKS <n>" queries stream the chain from block n. A
session that opens with GET_BLOCKS is closed once the chain is sent. Other
sessions continue until "exit" or until the wallet disconnects.
*/
package node
