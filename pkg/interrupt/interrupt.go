// Package interrupt turns SIGINT/SIGTERM into context cancellation, so a
// sweep in flight winds down the way a clean terminal I/O error does
// rather than being killed mid-trial.
package interrupt

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Watch returns a context derived from parent that is canceled on the
// first SIGINT or SIGTERM. The returned stop func releases the signal
// handler and must be called once the caller no longer needs to watch.
func Watch(parent context.Context) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
}
