// Package cmd contains wallet app
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ardanlabs/gossipchain/foundation/nameservice"
	"github.com/spf13/cobra"
)

var (
	ownerName     string
	directoryHost string
	minerHost     string
	timeout       time.Duration
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Your simple wallet",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&ownerName, "name", "n", "", "Name of the wallet owner.")
	rootCmd.PersistentFlags().StringVarP(&directoryHost, "directory", "d", "127.0.0.1:8333", "Address of the miner directory.")
	rootCmd.PersistentFlags().StringVarP(&minerHost, "miner", "m", "", "Address of the miner to talk to, picked from the directory when empty.")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "Timeout for network calls.")
}

func directory() *nameservice.Client {
	return nameservice.NewClient(directoryHost, timeout)
}

// maxAttempts is how many times a miner call is tried before giving up.
const maxAttempts = 3

// retryDelay is the pause between attempts.
var retryDelay = time.Second

// miners returns the configured miner or every miner listed in the
// directory.
func miners() ([]string, error) {
	if minerHost != "" {
		return []string{minerHost}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	entries, err := directory().List(ctx)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, errors.New("no miners registered with the directory")
	}

	addrs := make([]string, len(entries))
	for i, e := range entries {
		addrs[i] = e.Addr()
	}

	return addrs, nil
}

// withMiner runs the call against the first miner and retries on failure,
// moving on to the next listed miner each time.
func withMiner(addrs []string, call func(ctx context.Context, addr string) error) error {
	if len(addrs) == 0 {
		return errors.New("no miners to talk to")
	}

	var err error
	for attempt := range maxAttempts {
		addr := addrs[attempt%len(addrs)]

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		err = call(ctx, addr)
		cancel()

		if err == nil {
			return nil
		}

		log.Printf("miner %s: attempt %d/%d: %s", addr, attempt+1, maxAttempts, err)

		if attempt+1 < maxAttempts {
			time.Sleep(retryDelay)
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, err)
}
