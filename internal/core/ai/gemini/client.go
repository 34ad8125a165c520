package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"recipe-app-api/internal/core/ai/prompt"
	"recipe-app-api/internal/infrastructure/config"
	"recipe-app-api/internal/pkg/common"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client Gemini generateContent API 客戶端
type Client struct {
	httpClient *http.Client
	config     *config.Config
	baseURL    string
}

// Part 候選內容中的一個原子單位：文字或 inline 圖片
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData inline 圖片數據
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// Content 帶角色標記的內容
type Content struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// ThinkingConfig 思考預算設定；-1 表示不限制
type ThinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

// GenerationConfig 生成配置
type GenerationConfig struct {
	ThinkingConfig *ThinkingConfig `json:"thinkingConfig,omitempty"`
}

// Request generateContent 請求
type Request struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// Response generateContent 響應外層
type Response struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate 模型對單一請求返回的一個候選
type Candidate struct {
	Content CandidateContent `json:"content"`
}

// CandidateContent 候選的內容
type CandidateContent struct {
	Parts []Part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

// NewClient 創建新的 Gemini 客戶端
func NewClient(cfg *config.Config) *Client {
	return NewClientWithBaseURL(cfg, defaultBaseURL)
}

// NewClientWithBaseURL 創建指定端點的客戶端（測試用）
func NewClientWithBaseURL(cfg *config.Config, baseURL string) *Client {
	timeout := cfg.Gemini.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:  cfg,
		baseURL: baseURL,
	}
}

// GenerateContent 執行一次生成往返，返回第一個候選的第一段文字。
// 信封缺層時返回彼此獨立的錯誤代碼：EMPTY_CANDIDATES / EMPTY_CONTENT / EMPTY_TEXT，
// 讓呼叫端能區分「模型拒答」與「沒有可用內容」。
func (c *Client) GenerateContent(ctx context.Context, p *prompt.Prompt) (string, error) {
	if c.config.Gemini.APIKey == "" {
		return "", common.ErrConfiguration
	}

	// 構建請求
	parts := []Part{{Text: p.Instruction}}
	if p.ImageData != "" {
		parts = append(parts, Part{
			InlineData: &InlineData{
				MimeType: p.MimeType,
				Data:     p.ImageData,
			},
		})
	}

	req := &Request{
		Contents: []Content{
			{
				Role:  "user",
				Parts: parts,
			},
		},
		GenerationConfig: &GenerationConfig{
			ThinkingConfig: &ThinkingConfig{
				ThinkingBudget: c.config.Gemini.ThinkingBudget,
			},
		},
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, p.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.config.Gemini.APIKey)

	common.LogInfo("Sending request to Gemini",
		zap.String("model", p.Model),
		zap.Bool("has_image", p.ImageData != ""),
		zap.Int("instruction_length", len(p.Instruction)),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		common.LogError("Failed to send request to generation model",
			zap.Error(err),
			zap.String("model", p.Model),
		)
		return "", common.WrapError(common.ErrNetwork, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		common.LogError("Failed to read response body",
			zap.Error(err),
			zap.String("model", p.Model),
		)
		return "", common.WrapError(common.ErrNetwork, err)
	}

	// 401/403 代表憑證問題；分類只看狀態碼，不比對訊息內容
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		common.LogError("Generation model rejected credential",
			zap.Int("status_code", resp.StatusCode),
			zap.String("model", p.Model),
		)
		return "", common.WrapError(common.ErrConfiguration, fmt.Errorf("model API returned status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		common.LogError("Generation model returned error status",
			zap.Int("status_code", resp.StatusCode),
			zap.String("model", p.Model),
		)
		return "", common.WrapError(common.ErrNetwork, fmt.Errorf("model API returned status %d: %s", resp.StatusCode, truncate(string(body), 200)))
	}

	// 解析信封
	var response Response
	if err := json.Unmarshal(body, &response); err != nil {
		common.LogError("Failed to parse generation model envelope",
			zap.Error(err),
			zap.String("model", p.Model),
		)
		return "", common.WrapError(common.ErrMalformedResponse, err)
	}

	// 逐層檢查信封
	if len(response.Candidates) == 0 {
		common.LogError("Empty candidates in model response",
			zap.String("model", p.Model),
		)
		return "", common.ErrEmptyCandidates
	}

	candidate := response.Candidates[0]
	if len(candidate.Content.Parts) == 0 {
		common.LogError("Empty content in model candidate",
			zap.String("model", p.Model),
		)
		return "", common.ErrEmptyContent
	}

	text := candidate.Content.Parts[0].Text
	if text == "" {
		common.LogError("Empty text in first content part",
			zap.String("model", p.Model),
		)
		return "", common.ErrEmptyText
	}

	common.LogInfo("Successfully generated content",
		zap.String("model", p.Model),
		zap.Int("content_length", len(text)),
		zap.Duration("耗時", time.Since(start)),
	)

	return text, nil
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// truncate 截斷過長的回應內容（日誌與錯誤訊息用）
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
