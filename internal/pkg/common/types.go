package common

// GenerationMode 食譜生成模式
type GenerationMode string

const (
	// ModeIngredients 依食材清單生成多道食譜
	ModeIngredients GenerationMode = "ingredients"
	// ModeName 依菜名生成完整食譜
	ModeName GenerationMode = "name"
	// ModeImage 依食物照片生成食譜
	ModeImage GenerationMode = "image"
)

// GenerationRequest 一次生成請求；三種模式共用同一回應契約
type GenerationRequest struct {
	Mode      GenerationMode `json:"mode"`
	Text      string         `json:"text,omitempty"`       // ingredients / name 模式的使用者輸入
	ImageData string         `json:"image_data,omitempty"` // image 模式的 base64 圖片（不含 data URI 前綴）
	MimeType  string         `json:"mime_type,omitempty"`  // image 模式的 MIME 類型
}

// Recipe 食譜；一旦產生即不可變，無結構相等以外的識別
type Recipe struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"` // 步驟順序有意義
	CookingTime  string   `json:"cookingTime"`
	Difficulty   string   `json:"difficulty"` // 慣例上為 Easy/Medium/Hard，不強制
	Servings     string   `json:"servings"`
}

// RecipeResponse 模型回應的外層結構
type RecipeResponse struct {
	Recipes []Recipe `json:"recipes"`
}
