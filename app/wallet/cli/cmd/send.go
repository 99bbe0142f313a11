package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/database"
	"github.com/ardanlabs/gossipchain/foundation/client"
	"github.com/spf13/cobra"
)

var (
	to     string
	amount string
	fee    float64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Name of the receiver.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.Flags().StringVarP(&amount, "amount", "a", "", "Amount to send.")
	sendCmd.MarkFlagRequired("amount")
	sendCmd.Flags().Float64VarP(&fee, "fee", "f", 0, "Fee offered to the miner.")
}

func sendRun(cmd *cobra.Command, args []string) {
	tx, err := database.NewTx(ownerName, to, amount, fee)
	if err != nil {
		log.Fatal(err)
	}

	addrs, err := miners()
	if err != nil {
		log.Fatal(err)
	}

	var sentTo string
	submit := func(ctx context.Context, addr string) error {
		sentTo = addr
		return client.New(addr, timeout).SubmitTransaction(ctx, tx)
	}

	if err := withMiner(addrs, submit); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("submitted %s to %s\n", tx.ID, sentTo)
}
