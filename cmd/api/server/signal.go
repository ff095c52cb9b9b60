package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// shutdownSignals are the process signals that trigger a graceful stop.
var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// WithSignal derives a context that is cancelled on the first shutdown
// signal. The returned stop function releases the signal registration, so
// a second signal falls through to the default handler and kills the
// process outright.
func WithSignal(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
