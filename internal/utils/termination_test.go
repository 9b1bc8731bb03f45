package utils

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTerminationContext(t *testing.T) {
	ctx, stop := TerminationContext(context.Background())
	defer stop()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context wasn't canceled by SIGTERM")
	}
}

func TestTerminationContextStop(t *testing.T) {
	ctx, stop := TerminationContext(context.Background())
	stop()

	require.ErrorIs(t, ctx.Err(), context.Canceled)
}
