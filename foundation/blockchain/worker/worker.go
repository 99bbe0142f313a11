// Package worker implements mining and peer discovery for the mining node.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ardanlabs/gossipchain/foundation/blockchain/state"
)

// Config represents the intervals the worker operates on.
type Config struct {
	MiningInterval    time.Duration
	DiscoveryInterval time.Duration
}

// Worker manages the mining and discovery workflows for the node.
type Worker struct {
	state           *state.State
	wg              sync.WaitGroup
	miningTicker    *time.Ticker
	discoveryTicker *time.Ticker
	shut            chan struct{}
	startMining     chan bool
	cancelMining    chan bool
	evHandler       state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, cfg Config, evHandler state.EventHandler) *Worker {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	w := Worker{
		state:           st,
		miningTicker:    time.NewTicker(cfg.MiningInterval),
		discoveryTicker: time.NewTicker(cfg.DiscoveryInterval),
		shut:            make(chan struct{}),
		startMining:     make(chan bool, 1),
		cancelMining:    make(chan bool, 1),
		evHandler:       ev,
	}

	// Register this worker with the state package.
	st.RegisterWorker(&w)

	// Load the set of operations we need to run.
	operations := []func(){
		w.discoveryOperations,
		w.miningOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	select {
	case <-w.shut:
		return
	default:
	}

	w.evHandler("worker: shutdown: stop tickers")
	w.miningTicker.Stop()
	w.discoveryTicker.Stop()

	w.evHandler("worker: shutdown: signal cancel mining")
	w.SignalCancelMining()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}

// shutdownContext returns a context that is cancelled when the worker is
// asked to shut down.
func (w *Worker) shutdownContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		select {
		case <-w.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
