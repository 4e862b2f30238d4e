package main

import (
	"context"
	"os/signal"
	"syscall"
)

// notifyContext cancels its context on SIGINT/SIGTERM. runner.Run and
// runner.Follow then return the context's error without starting new
// heights; the backfill and follow commands exit with status 1 on that
// error through os.Exit, which skips the deferred sink close, so rows
// still buffered in a batch-insert sink are not flushed.
func notifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
