package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobQueueRunsInOrder(t *testing.T) {
	queue := NewJobQueueService(context.Background(), 10, 1)

	var mu sync.Mutex
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, queue.Enqueue(func(ctx context.Context) {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, i)
		}))
	}

	queue.Shutdown()

	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	assert.ErrorIs(t, queue.Enqueue(func(ctx context.Context) {}), ErrJobQueueClosed)

	queue.Shutdown()
}

func TestJobQueueIsFull(t *testing.T) {
	queue := NewJobQueueService(context.Background(), 1, 1)
	defer queue.Shutdown()

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, queue.Enqueue(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	require.NoError(t, queue.Enqueue(func(ctx context.Context) {}))
	assert.Equal(t, 1, queue.Len())
	assert.ErrorIs(t, queue.Enqueue(func(ctx context.Context) {}), ErrJobQueueIsFull)

	close(release)
}
