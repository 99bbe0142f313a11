package cmd

import (
	"fmt"
	"log"
	"strconv"

	"github.com/ardanlabs/gossipchain/foundation/client"
	"github.com/spf13/cobra"
)

// genesisGrant is credited to every wallet before any transfer.
const genesisGrant = 100.0

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	if ownerName == "" {
		log.Fatal("the wallet owner name is required")
	}

	blocks, err := fetchBlocks(0)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("For Owner:", ownerName)
	fmt.Println(balance(ownerName, blocks))
}

// balance sums the amounts received by the owner over the chain on top of
// the genesis grant. Amounts that do not parse are skipped.
func balance(owner string, blocks []client.Block) float64 {
	total := genesisGrant
	for _, b := range blocks {
		for _, tx := range b.Trans {
			if tx.Receiver != owner {
				continue
			}
			v, err := strconv.ParseFloat(tx.Amount, 64)
			if err != nil {
				continue
			}
			total += v
		}
	}
	return total
}
