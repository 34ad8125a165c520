package recipe

import (
	"context"
	"time"

	"recipe-app-api/internal/core/ai/prompt"
	"recipe-app-api/internal/core/ai/service"
	"recipe-app-api/internal/infrastructure/config"
	"recipe-app-api/internal/pkg/common"

	"go.uber.org/zap"
)

// Generator 食譜生成客戶端：組指令、呼叫模型、清理並驗證回應。
// 全成功或全失敗，不返回帶佔位項的食譜列表。
type Generator struct {
	config    *config.Config
	aiService *service.Service
	builder   *prompt.Builder

	// requireRecipes 為 true 時，空的 recipes 列表視為 EMPTY_RECIPES 錯誤；
	// 預設 false，空列表結構上算成功，由呼叫端自行決定。
	requireRecipes bool
}

// NewGenerator 創建食譜生成客戶端
func NewGenerator(cfg *config.Config, aiService *service.Service) *Generator {
	return &Generator{
		config:         cfg,
		aiService:      aiService,
		builder:        prompt.NewBuilder(cfg.Gemini.Model),
		requireRecipes: cfg.AI.RequireRecipes,
	}
}

// Generate 執行一次生成：單次外部呼叫，失敗不自動重試。
func (g *Generator) Generate(ctx context.Context, req common.GenerationRequest) (*common.RecipeResponse, error) {
	// 憑證缺失在任何網路呼叫之前攔截
	if g.config.Gemini.APIKey == "" {
		return nil, common.ErrConfiguration
	}

	p, err := g.builder.Build(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	content, err := g.aiService.ProcessPrompt(ctx, string(req.Mode), p)
	common.LogAICall(string(req.Mode), time.Since(start), err, "")
	if err != nil {
		return nil, err
	}

	cleaned := Normalize(content)

	common.LogDebug("AI 回應內容",
		zap.String("mode", string(req.Mode)),
		zap.Int("ai_response_length", len(cleaned)),
	)

	resp, err := ParseRecipeResponse(cleaned)
	if err != nil {
		return nil, err
	}

	if g.requireRecipes && len(resp.Recipes) == 0 {
		return nil, common.ErrEmptyRecipes
	}

	common.LogInfo("食譜生成完成",
		zap.String("mode", string(req.Mode)),
		zap.Int("recipes", len(resp.Recipes)),
	)

	return resp, nil
}
