package recipe

import (
	"net/http"
	"strings"

	"recipe-app-api/internal/api/middleware"
	"recipe-app-api/internal/core/auth/supabase"
	"recipe-app-api/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SaveRequest 儲存食譜請求
type SaveRequest struct {
	Recipe common.Recipe `json:"recipe" binding:"required"`
}

// HandleSaveRecipe 處理 POST /recipes，為目前使用者儲存一份食譜
func HandleSaveRecipe(client *supabase.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := ensureRequestID(c)

		user, ok := middleware.CurrentUser(c)
		if !ok {
			respondError(c, common.ErrAuth)
			return
		}

		var req SaveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.LogWarn("請求格式無效",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			respondBadRequest(c, "Invalid request format")
			return
		}
		if req.Recipe.Title == "" {
			respondBadRequest(c, "Recipe title is required")
			return
		}

		row := supabase.SavedRecipe{
			Name:            req.Recipe.Title,
			Description:     req.Recipe.Description,
			Ingredients:     strings.Join(req.Recipe.Ingredients, "\n"),
			Steps:           strings.Join(req.Recipe.Instructions, "\n"),
			CreatedByUserID: user.ID,
		}

		if err := client.SaveRecipe(c.Request.Context(), middleware.AccessToken(c), row); err != nil {
			common.LogError("儲存食譜失敗",
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.String("user_id", user.ID),
			)
			respondError(c, err)
			return
		}

		common.LogInfo("食譜已儲存",
			zap.String("request_id", requestID),
			zap.String("user_id", user.ID),
		)

		c.JSON(http.StatusCreated, gin.H{"status": "saved"})
	}
}

// HandleListRecipes 處理 GET /recipes，列出目前使用者儲存的食譜
func HandleListRecipes(client *supabase.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := ensureRequestID(c)

		user, ok := middleware.CurrentUser(c)
		if !ok {
			respondError(c, common.ErrAuth)
			return
		}

		recipes, err := client.ListRecipes(c.Request.Context(), middleware.AccessToken(c), user.ID)
		if err != nil {
			common.LogError("讀取食譜列表失敗",
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.String("user_id", user.ID),
			)
			respondError(c, err)
			return
		}

		if recipes == nil {
			recipes = []supabase.SavedRecipe{}
		}
		c.JSON(http.StatusOK, gin.H{"recipes": recipes})
	}
}
