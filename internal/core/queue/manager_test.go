package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"meal-planner/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit_RunsJob(t *testing.T) {
	m := NewManager(config.QueueConfig{Workers: 2, MaxSize: 4})
	m.Start()
	defer m.Close()

	var ran int32
	err := m.Submit(context.Background(), func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))

	boom := errors.New("boom")
	err = m.Submit(context.Background(), func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	assert.Eventually(t, func() bool {
		return m.GetQueueStatus().ProcessedCount == 2
	}, time.Second, 10*time.Millisecond)
}

func TestEnqueue_Full(t *testing.T) {
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 1})
	defer m.Close()

	block := func(ctx context.Context) error { return nil }

	// 未啟動工作者：第一個請求占滿佇列
	_, err := m.Enqueue(context.Background(), block)
	require.NoError(t, err)

	_, err = m.Enqueue(context.Background(), block)
	assert.ErrorIs(t, err, ErrQueueFull)

	status := m.GetQueueStatus()
	assert.Equal(t, 1, status.QueueLength)
	assert.Equal(t, 1, status.MaxQueueSize)
	assert.Equal(t, 1, status.Workers)
}

func TestSubmit_ContextCanceled(t *testing.T) {
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 2})
	m.Start()
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.Submit(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubmit_RecoversPanic(t *testing.T) {
	m := NewManager(config.QueueConfig{Workers: 1, MaxSize: 1})
	m.Start()
	defer m.Close()

	err := m.Submit(context.Background(), func(ctx context.Context) error { panic("bad job") })
	assert.Error(t, err)

	err = m.Submit(context.Background(), func(ctx context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestClosed(t *testing.T) {
	m := NewManager(config.QueueConfig{})
	m.Start()
	m.Close()
	m.Close()

	_, err := m.Enqueue(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrClosed)
}
