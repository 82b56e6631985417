package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueueRunsInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := newTaskQueue(ctx)

	var mu sync.Mutex
	var order []int

	var dones []<-chan error
	for i := 0; i < 5; i++ {
		i := i
		dones = append(dones, q.Enqueue(func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
	}
	for _, d := range dones {
		require.NoError(t, <-d)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestTaskQueueSurvivesPanickingTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := newTaskQueue(ctx)

	panicDone := q.Enqueue(func(ctx context.Context) error {
		panic("boom")
	})
	err := <-panicDone
	require.Error(t, err)

	okDone := q.Enqueue(func(ctx context.Context) error { return nil })
	assert.NoError(t, <-okDone)
}

func TestTaskQueuePropagatesTaskError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := newTaskQueue(ctx)

	wantErr := errors.New("failed")
	done := q.Enqueue(func(ctx context.Context) error { return wantErr })
	assert.ErrorIs(t, <-done, wantErr)
}
