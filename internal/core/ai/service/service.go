package service

import (
	"context"

	"recipe-app-api/internal/core/ai/cache"
	"recipe-app-api/internal/core/ai/gemini"
	"recipe-app-api/internal/core/ai/prompt"
	"recipe-app-api/internal/core/ai/queue"
	"recipe-app-api/internal/infrastructure/config"
)

// ModelClient 生成模型客戶端介面；測試時以假實作替換
type ModelClient interface {
	GenerateContent(ctx context.Context, p *prompt.Prompt) (string, error)
	Close() error
}

// Service AI 服務；統一走緩存與有界隊列
type Service struct {
	config       *config.Config
	client       ModelClient
	cacheManager *cache.CacheManager
	queue        *queue.Manager
}

// NewService 創建 AI 服務
func NewService(cfg *config.Config, cacheManager *cache.CacheManager) (*Service, error) {
	return NewServiceWithClient(cfg, cacheManager, gemini.NewClient(cfg))
}

// NewServiceWithClient 以指定的模型客戶端創建 AI 服務（測試用）
func NewServiceWithClient(cfg *config.Config, cacheManager *cache.CacheManager, client ModelClient) (*Service, error) {
	s := &Service{
		config:       cfg,
		client:       client,
		cacheManager: cacheManager,
		queue:        queue.NewManager(cfg),
	}
	s.queue.Start(s.client.GenerateContent)
	return s, nil
}

// ProcessPrompt 統一對外方法：查緩存、排隊、呼叫模型、回填緩存。
// 單次外部呼叫，不在內部重試。
func (s *Service) ProcessPrompt(ctx context.Context, mode string, p *prompt.Prompt) (string, error) {
	// 檢查緩存
	if s.config.AI.EnableCache && s.cacheManager != nil {
		if val, err := s.cacheManager.Get(ctx, mode, p.Instruction, p.ImageData); err == nil && val != "" {
			return val, nil
		}
	}

	resultCh, err := s.queue.Enqueue(ctx, p)
	if err != nil {
		return "", err
	}

	select {
	case result := <-resultCh:
		if result.Error != nil {
			return "", result.Error
		}

		if s.config.AI.EnableCache && s.cacheManager != nil {
			_ = s.cacheManager.Set(ctx, mode, p.Instruction, p.ImageData, result.Content)
		}

		return result.Content, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// QueueStatus 取得隊列狀態（健康檢查用）
func (s *Service) QueueStatus() *queue.Status {
	return s.queue.GetStatus()
}

// Close 關閉 AI 服務
func (s *Service) Close() error {
	s.queue.Close()
	return s.client.Close()
}
