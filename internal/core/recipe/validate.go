package recipe

import (
	"encoding/json"
	"net/http"
	"strings"

	"recipe-app-api/internal/pkg/common"
)

// ParseRecipeResponse 解析並驗證清理後的模型輸出。
// 文字不是合法 JSON → MALFORMED_RESPONSE；JSON 可解析但頂層沒有
// recipes 陣列 → INVALID_SCHEMA。預設不深入驗證每筆食譜的欄位內容。
func ParseRecipeResponse(content string) (*common.RecipeResponse, error) {
	if !json.Valid([]byte(content)) {
		return nil, common.WrapError(common.ErrMalformedResponse, jsonError(content))
	}

	// 頂層必須是帶有 recipes 鍵的物件
	var probe map[string]json.RawMessage
	if err := common.ParseJSON(content, &probe); err != nil {
		return nil, common.WrapError(common.ErrInvalidSchema, err)
	}

	raw, ok := probe["recipes"]
	if !ok {
		return nil, common.ErrInvalidSchema
	}

	// recipes 必須是有序序列
	if !strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		return nil, common.ErrInvalidSchema
	}

	var resp common.RecipeResponse
	if err := common.ParseJSON(content, &resp); err != nil {
		return nil, common.WrapError(common.ErrInvalidSchema, err)
	}

	return &resp, nil
}

// ValidateStrict 在預設的寬鬆驗證之上加驗每筆食譜的欄位：
// 標題不可為空、食材與步驟必須存在。呼叫契約不變，作為可選的加強層。
func ValidateStrict(resp *common.RecipeResponse) error {
	for _, r := range resp.Recipes {
		if strings.TrimSpace(r.Title) == "" {
			return common.NewError(common.ErrCodeInvalidSchema, "recipe title is empty", http.StatusBadGateway, nil)
		}
		if r.Ingredients == nil {
			return common.NewError(common.ErrCodeInvalidSchema, "recipe ingredients missing", http.StatusBadGateway, nil)
		}
		if r.Instructions == nil {
			return common.NewError(common.ErrCodeInvalidSchema, "recipe instructions missing", http.StatusBadGateway, nil)
		}
	}
	return nil
}

// jsonError 取得底層的 JSON 解析錯誤當作包裝細節
func jsonError(content string) error {
	var v interface{}
	return json.Unmarshal([]byte(content), &v)
}
