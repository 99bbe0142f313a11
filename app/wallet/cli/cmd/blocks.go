package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/ardanlabs/gossipchain/foundation/client"
	"github.com/spf13/cobra"
)

var from int

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Print the blocks a miner has accepted",
	Run:   blocksRun,
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().IntVar(&from, "from", 0, "Index of the first block.")
}

func blocksRun(cmd *cobra.Command, args []string) {
	blocks, err := fetchBlocks(from)
	if err != nil {
		log.Fatal(err)
	}

	for _, b := range blocks {
		fmt.Printf("block %d: %d transactions\n", b.Index, len(b.Trans))
		for _, tx := range b.Trans {
			fmt.Printf("  %s\n", tx)
		}
	}
}

// fetchBlocks reads the chain from a miner, failing over to the next miner
// when one can't be reached.
func fetchBlocks(from int) ([]client.Block, error) {
	addrs, err := miners()
	if err != nil {
		return nil, err
	}

	var blocks []client.Block
	read := func(ctx context.Context, addr string) error {
		var err error
		blocks, err = client.New(addr, timeout).Blocks(ctx, from)
		return err
	}

	if err := withMiner(addrs, read); err != nil {
		return nil, err
	}

	return blocks, nil
}
