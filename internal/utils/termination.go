package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// TerminationContext is done once the process receives an interrupt or SIGTERM.
// Calling stop restores the default signal handling.
func TerminationContext(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
