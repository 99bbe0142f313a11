package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var minersCmd = &cobra.Command{
	Use:   "miners",
	Short: "List the miners registered with the directory",
	Run:   minersRun,
}

func init() {
	rootCmd.AddCommand(minersCmd)
}

func minersRun(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	entries, err := directory().List(ctx)
	if err != nil {
		log.Fatal(err)
	}

	for _, e := range entries {
		fmt.Println(e)
	}
}
