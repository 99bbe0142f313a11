package worker

// discoveryOperations handles finding new peers.
func (w *Worker) discoveryOperations() {
	w.evHandler("worker: discoveryOperations: G started")
	defer w.evHandler("worker: discoveryOperations: G completed")

	for {
		select {
		case <-w.discoveryTicker.C:
			if !w.isShutdown() {
				w.runDiscoveryOperation()
			}
		case <-w.shut:
			w.evHandler("worker: discoveryOperations: received shut signal")
			return
		}
	}
}

// runDiscoveryOperation connects to every miner in the directory this node
// is not connected to yet. A directory that can't be reached is retried on
// the next tick.
func (w *Worker) runDiscoveryOperation() {
	ctx, cancel := w.shutdownContext()
	defer cancel()

	n, err := w.state.ConnectPeers(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.evHandler("worker: runDiscoveryOperation: WARNING: %s", err)
		}
		return
	}

	if n > 0 {
		w.evHandler("worker: runDiscoveryOperation: connected new peers[%d]", n)
	}
}
