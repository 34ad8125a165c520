package prompt

import (
	"fmt"
	"strings"

	"recipe-app-api/internal/pkg/common"
)

// jsonContract 模型必須遵循的回應結構；三種模式共用
const jsonContract = `Please provide the response in the following JSON format:
{
  "recipes": [
    {
      "title": "Recipe Name",
      "description": "Brief description of the dish",
      "ingredients": ["ingredient 1", "ingredient 2", "ingredient 3"],
      "instructions": ["Step 1", "Step 2", "Step 3"],
      "cookingTime": "30 minutes",
      "difficulty": "Easy/Medium/Hard",
      "servings": "4 servings"
    }
  ]
}`

// jsonOnly 指示模型只輸出純 JSON，不得帶 markdown 圍欄
const jsonOnly = `Return only valid JSON without any markdown formatting or additional text.`

// Prompt 一次生成請求的完整指令內容
type Prompt struct {
	Model       string // 模型識別碼
	Instruction string // 指令文字
	ImageData   string // base64 圖片（不含前綴），僅 image 模式
	MimeType    string // 圖片 MIME 類型，僅 image 模式
}

// Builder 指令建構器；純函數，無副作用
type Builder struct {
	model string
}

// NewBuilder 創建指令建構器
func NewBuilder(model string) *Builder {
	return &Builder{model: model}
}

// Build 依生成模式組出指令與請求內容。
// 使用者輸入原樣嵌入指令文字，不做轉義或清洗。
func (b *Builder) Build(req common.GenerationRequest) (*Prompt, error) {
	text := strings.TrimSpace(req.Text)

	switch req.Mode {
	case common.ModeIngredients:
		if text == "" {
			return nil, common.WrapError(common.ErrInvalidRequest, fmt.Errorf("ingredients text is empty"))
		}
		return &Prompt{
			Model:       b.model,
			Instruction: buildIngredientsInstruction(text),
		}, nil

	case common.ModeName:
		if text == "" {
			return nil, common.WrapError(common.ErrInvalidRequest, fmt.Errorf("recipe name is empty"))
		}
		return &Prompt{
			Model:       b.model,
			Instruction: buildNameInstruction(text),
		}, nil

	case common.ModeImage:
		if req.ImageData == "" {
			return nil, common.WrapError(common.ErrInvalidRequest, fmt.Errorf("image data is empty"))
		}
		mimeType := req.MimeType
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		return &Prompt{
			Model:       b.model,
			Instruction: buildImageInstruction(),
			ImageData:   req.ImageData,
			MimeType:    mimeType,
		}, nil

	default:
		return nil, common.WrapError(common.ErrInvalidRequest, fmt.Errorf("unknown generation mode %q", req.Mode))
	}
}

// buildIngredientsInstruction 依食材清單生成多道食譜的指令
func buildIngredientsInstruction(ingredients string) string {
	return fmt.Sprintf(`Generate 3 different recipes based on these ingredients: %s

%s

Make sure the recipes are:
- Creative and varied
- Include all the provided ingredients
- Have clear, step-by-step instructions
- Include cooking time, difficulty, and servings
- Are practical and achievable

%s`, ingredients, jsonContract, jsonOnly)
}

// buildNameInstruction 依菜名生成完整食譜的指令
func buildNameInstruction(recipeName string) string {
	return fmt.Sprintf(`Generate a complete recipe for: %s

%s

Make sure the recipe:
- Is a complete, traditional recipe for the requested dish
- Includes all necessary ingredients with quantities
- Has clear, step-by-step cooking instructions
- Includes cooking time, difficulty, and servings
- Is practical and achievable for home cooking
- Follows authentic preparation methods

%s`, recipeName, jsonContract, jsonOnly)
}

// buildImageInstruction 依食物照片生成食譜的視覺指令；圖片另以 inline data 附加
func buildImageInstruction() string {
	return fmt.Sprintf(`Analyze this food image and generate a complete recipe for the dish shown.

%s

Make sure the recipe:
- Matches the dish visible in the image as closely as possible
- Includes all necessary ingredients with quantities
- Has clear, step-by-step cooking instructions
- Includes cooking time, difficulty, and servings
- Is practical and achievable for home cooking

%s`, jsonContract, jsonOnly)
}
