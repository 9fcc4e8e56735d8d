// Package queue 有界工作佇列，限制同時執行的 CPU 密集工作（規劃求解）
package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"meal-planner/internal/infrastructure/config"
	"meal-planner/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull 佇列已滿
	ErrQueueFull = errors.New("queue is full")
	// ErrClosed 佇列已關閉
	ErrClosed = errors.New("queue manager is closed")
)

// Job 佇列中執行的工作
type Job func(ctx context.Context) error

// Request 隊列請求
type Request struct {
	Context context.Context
	Job     Job
	Result  chan error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 隊列管理器
type Manager struct {
	workers   int
	maxSize   int
	queue     chan *Request
	done      chan struct{}
	processed int64
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewManager 創建新的隊列管理器
func NewManager(cfg config.QueueConfig) *Manager {
	workers, maxSize := cfg.Workers, cfg.MaxSize
	if workers <= 0 {
		workers = 1
	}
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Manager{
		workers: workers,
		maxSize: maxSize,
		queue:   make(chan *Request, maxSize),
		done:    make(chan struct{}),
	}
}

// Start 啟動工作者
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		for i := 0; i < m.workers; i++ {
			m.wg.Add(1)
			go m.work(i)
		}
		common.LogInfo("規劃佇列已啟動",
			zap.Int("workers", m.workers),
			zap.Int("max_queue_size", m.maxSize),
		)
	})
}

func (m *Manager) work(id int) {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case req := <-m.queue:
			m.run(id, req)
		}
	}
}

func (m *Manager) run(id int, req *Request) {
	defer atomic.AddInt64(&m.processed, 1)

	if err := req.Context.Err(); err != nil {
		req.Result <- err
		return
	}

	defer func() {
		if r := recover(); r != nil {
			common.LogError("工作執行時發生 panic", zap.Int("worker", id), zap.Any("panic", r))
			req.Result <- errors.New("job panicked")
		}
	}()
	req.Result <- req.Job(req.Context)
}

// Enqueue 將工作加入隊列，佇列已滿時立即回傳 ErrQueueFull
func (m *Manager) Enqueue(ctx context.Context, job Job) (chan error, error) {
	select {
	case <-m.done:
		return nil, ErrClosed
	default:
	}

	req := &Request{
		Context: ctx,
		Job:     job,
		Result:  make(chan error, 1),
	}

	select {
	case m.queue <- req:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.maxSize),
		)
		return req.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return nil, ErrQueueFull
	}
}

// Submit 加入隊列並等待結果
func (m *Manager) Submit(ctx context.Context, job Job) error {
	result, err := m.Enqueue(ctx, job)
	if err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.done:
		return ErrClosed
	}
}

// GetQueueStatus 獲取隊列狀態
func (m *Manager) GetQueueStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.maxSize,
		Workers:        m.workers,
	}
}

// Close 關閉隊列管理器並等待工作者結束
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
	m.wg.Wait()
}
