package recipe

import "strings"

// Normalize 清理模型輸出：移除開頭的 "```json" 與結尾的 "```" 圍欄，
// 並修剪前後空白。不驗證 JSON 本身，那是 ParseRecipeResponse 的工作。
// 對已清理的文字再呼叫一次是 no-op。
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)

	// 圍欄標記可能重複出現（模型偶爾會巢狀包裹），逐層剝除
	for strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	}
	for strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}

	return s
}
