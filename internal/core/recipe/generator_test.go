package recipe

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"recipe-app-api/internal/core/ai/cache"
	"recipe-app-api/internal/core/ai/prompt"
	"recipe-app-api/internal/core/ai/service"
	"recipe-app-api/internal/infrastructure/config"
	"recipe-app-api/internal/pkg/common"
)

// fakeModelClient 測試用的模型客戶端
type fakeModelClient struct {
	response string
	err      error
	calls    int64
}

func (f *fakeModelClient) GenerateContent(ctx context.Context, p *prompt.Prompt) (string, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeModelClient) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Gemini: config.GeminiConfig{
			APIKey:         "test-key",
			Model:          "gemini-2.5-pro",
			ThinkingBudget: -1,
			Timeout:        5 * time.Second,
		},
		AI: config.AIConfig{
			EnableCache: false,
		},
		Queue: config.QueueConfig{
			Workers: 1,
			MaxSize: 4,
		},
	}
}

func newTestCacheManager(t *testing.T, cfg *config.Config) *cache.CacheManager {
	t.Helper()
	m := cache.NewManager(cfg)
	if m == nil {
		t.Fatal("expected cache manager to initialize")
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func newTestGenerator(t *testing.T, cfg *config.Config, client *fakeModelClient) *Generator {
	t.Helper()
	aiService, err := service.NewServiceWithClient(cfg, nil, client)
	if err != nil {
		t.Fatalf("creating AI service: %v", err)
	}
	t.Cleanup(func() { aiService.Close() })
	return NewGenerator(cfg, aiService)
}

const tomatoSoupResponse = "```json\n" + `{
	"recipes": [
		{
			"title": "Tomato Soup",
			"description": "A simple soup",
			"ingredients": ["tomato", "water", "salt"],
			"instructions": ["Chop tomatoes", "Boil", "Season"],
			"cookingTime": "30 minutes",
			"difficulty": "Easy",
			"servings": "2 servings"
		}
	]
}` + "\n```"

func TestGenerate_EndToEndFromIngredients(t *testing.T) {
	client := &fakeModelClient{response: tomatoSoupResponse}
	gen := newTestGenerator(t, testConfig(), client)

	resp, err := gen.Generate(context.Background(), common.GenerationRequest{
		Mode: common.ModeIngredients,
		Text: "tomato, water, salt",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Recipes) != 1 {
		t.Fatalf("expected 1 recipe, got %d", len(resp.Recipes))
	}
	if resp.Recipes[0].Title != "Tomato Soup" {
		t.Errorf("expected title %q, got %q", "Tomato Soup", resp.Recipes[0].Title)
	}
	if atomic.LoadInt64(&client.calls) != 1 {
		t.Errorf("expected exactly 1 model call, got %d", client.calls)
	}
}

func TestGenerate_MissingAPIKeySkipsModelCall(t *testing.T) {
	cfg := testConfig()
	cfg.Gemini.APIKey = ""
	client := &fakeModelClient{response: tomatoSoupResponse}
	gen := newTestGenerator(t, cfg, client)

	_, err := gen.Generate(context.Background(), common.GenerationRequest{
		Mode: common.ModeName,
		Text: "Tomato Soup",
	})
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !common.IsCode(err, common.ErrCodeConfiguration) {
		t.Errorf("expected code %s, got %s", common.ErrCodeConfiguration, common.ErrorCode(err))
	}
	if atomic.LoadInt64(&client.calls) != 0 {
		t.Errorf("expected no model call, got %d", client.calls)
	}
}

func TestGenerate_ModelErrorPassesThroughTagged(t *testing.T) {
	client := &fakeModelClient{err: common.ErrEmptyCandidates}
	gen := newTestGenerator(t, testConfig(), client)

	_, err := gen.Generate(context.Background(), common.GenerationRequest{
		Mode: common.ModeName,
		Text: "Tomato Soup",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !common.IsCode(err, common.ErrCodeEmptyCandidates) {
		t.Errorf("expected code %s, got %s", common.ErrCodeEmptyCandidates, common.ErrorCode(err))
	}
}

func TestGenerate_NonJSONResponseIsMalformed(t *testing.T) {
	client := &fakeModelClient{response: "Sorry, I cannot generate recipes right now."}
	gen := newTestGenerator(t, testConfig(), client)

	_, err := gen.Generate(context.Background(), common.GenerationRequest{
		Mode: common.ModeName,
		Text: "Tomato Soup",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !common.IsCode(err, common.ErrCodeMalformedResponse) {
		t.Errorf("expected code %s, got %s", common.ErrCodeMalformedResponse, common.ErrorCode(err))
	}
}

func TestGenerate_EmptyRecipesAllowedByDefault(t *testing.T) {
	client := &fakeModelClient{response: `{"recipes": []}`}
	gen := newTestGenerator(t, testConfig(), client)

	resp, err := gen.Generate(context.Background(), common.GenerationRequest{
		Mode: common.ModeName,
		Text: "Tomato Soup",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Recipes) != 0 {
		t.Errorf("expected empty recipes list, got %d", len(resp.Recipes))
	}
}

func TestGenerate_EmptyRecipesRejectedWhenRequired(t *testing.T) {
	cfg := testConfig()
	cfg.AI.RequireRecipes = true
	client := &fakeModelClient{response: `{"recipes": []}`}
	gen := newTestGenerator(t, cfg, client)

	_, err := gen.Generate(context.Background(), common.GenerationRequest{
		Mode: common.ModeName,
		Text: "Tomato Soup",
	})
	if err == nil {
		t.Fatal("expected empty recipes error")
	}
	if !common.IsCode(err, common.ErrCodeEmptyRecipes) {
		t.Errorf("expected code %s, got %s", common.ErrCodeEmptyRecipes, common.ErrorCode(err))
	}
}

func TestGenerate_EmptyInputRejectedBeforeModelCall(t *testing.T) {
	client := &fakeModelClient{response: tomatoSoupResponse}
	gen := newTestGenerator(t, testConfig(), client)

	_, err := gen.Generate(context.Background(), common.GenerationRequest{
		Mode: common.ModeIngredients,
		Text: "   ",
	})
	if err == nil {
		t.Fatal("expected invalid request error")
	}
	if !common.IsCode(err, common.ErrCodeInvalidRequest) {
		t.Errorf("expected code %s, got %s", common.ErrCodeInvalidRequest, common.ErrorCode(err))
	}
	if atomic.LoadInt64(&client.calls) != 0 {
		t.Errorf("expected no model call, got %d", client.calls)
	}
}

func TestGenerate_CacheHitBypassesModel(t *testing.T) {
	cfg := testConfig()
	cfg.AI.EnableCache = true
	cfg.Cache = config.CacheConfig{
		Enabled:         true,
		MaxSize:         8,
		TTL:             time.Minute,
		CleanupInterval: time.Minute,
	}

	client := &fakeModelClient{response: tomatoSoupResponse}
	cacheManager := newTestCacheManager(t, cfg)
	aiService, err := service.NewServiceWithClient(cfg, cacheManager, client)
	if err != nil {
		t.Fatalf("creating AI service: %v", err)
	}
	t.Cleanup(func() { aiService.Close() })
	gen := NewGenerator(cfg, aiService)

	req := common.GenerationRequest{Mode: common.ModeName, Text: "Tomato Soup"}

	if _, err := gen.Generate(context.Background(), req); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if _, err := gen.Generate(context.Background(), req); err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if got := atomic.LoadInt64(&client.calls); got != 1 {
		t.Errorf("expected 1 model call with warm cache, got %d", got)
	}
}

func TestGenerate_WrappedErrorsKeepCause(t *testing.T) {
	cause := errors.New("connection refused")
	client := &fakeModelClient{err: common.WrapError(common.ErrNetwork, cause)}
	gen := newTestGenerator(t, testConfig(), client)

	_, err := gen.Generate(context.Background(), common.GenerationRequest{
		Mode: common.ModeName,
		Text: "Tomato Soup",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !common.IsCode(err, common.ErrCodeNetwork) {
		t.Errorf("expected code %s, got %s", common.ErrCodeNetwork, common.ErrorCode(err))
	}
	if !errors.Is(err, cause) && !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("expected underlying cause to be preserved, got %v", err)
	}
}
