package queue

import (
	"context"
	"sync"
	"sync/atomic"

	"recipe-app-api/internal/core/ai/prompt"
	"recipe-app-api/internal/infrastructure/config"
	"recipe-app-api/internal/pkg/common"

	"go.uber.org/zap"
)

// ProcessFunc 處理單一生成請求的函數
type ProcessFunc func(ctx context.Context, p *prompt.Prompt) (string, error)

// Request 隊列請求
type Request struct {
	Context context.Context
	Prompt  *prompt.Prompt
	Result  chan Result
}

// Result 處理結果
type Result struct {
	Content string
	Error   error
}

// Status 隊列狀態
type Status struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// Manager 隊列管理器；固定數量的 worker 消化有界隊列
type Manager struct {
	config    *config.Config
	queue     chan *Request
	done      chan struct{}
	processed int64
	startOnce sync.Once
	closeOnce sync.Once
}

// NewManager 創建新的隊列管理器
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config: cfg,
		queue:  make(chan *Request, cfg.Queue.MaxSize),
		done:   make(chan struct{}),
	}
}

// Start 啟動 worker 協程；重複呼叫為 no-op
func (m *Manager) Start(process ProcessFunc) {
	m.startOnce.Do(func() {
		for i := 0; i < m.config.Queue.Workers; i++ {
			go m.worker(i, process)
		}
		common.LogInfo("生成隊列已啟動",
			zap.Int("workers", m.config.Queue.Workers),
			zap.Int("max_queue_size", m.config.Queue.MaxSize),
		)
	})
}

// worker 逐一處理隊列請求
func (m *Manager) worker(id int, process ProcessFunc) {
	for {
		select {
		case req, ok := <-m.queue:
			if !ok {
				return
			}
			// 請求在排隊期間可能已被取消
			if err := req.Context.Err(); err != nil {
				req.Result <- Result{Error: err}
				continue
			}
			content, err := process(req.Context, req.Prompt)
			atomic.AddInt64(&m.processed, 1)
			req.Result <- Result{Content: content, Error: err}
		case <-m.done:
			return
		}
	}
}

// Enqueue 將請求加入隊列；隊列已滿時返回 QUEUE_FULL
func (m *Manager) Enqueue(ctx context.Context, p *prompt.Prompt) (chan Result, error) {
	select {
	case <-m.done:
		return nil, common.ErrServiceUnavailable
	default:
	}

	req := &Request{
		Context: ctx,
		Prompt:  p,
		Result:  make(chan Result, 1),
	}

	select {
	case m.queue <- req:
		common.LogDebug("Request enqueued",
			zap.Int("queue_length", len(m.queue)),
			zap.Int("max_queue_size", m.config.Queue.MaxSize),
		)
		return req.Result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.done:
		return nil, common.ErrServiceUnavailable
	default:
		return nil, common.ErrQueueFull
	}
}

// GetStatus 獲取隊列狀態
func (m *Manager) GetStatus() *Status {
	return &Status{
		QueueLength:    len(m.queue),
		ProcessedCount: int(atomic.LoadInt64(&m.processed)),
		MaxQueueSize:   m.config.Queue.MaxSize,
		Workers:        m.config.Queue.Workers,
	}
}

// Close 關閉隊列管理器
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
}
