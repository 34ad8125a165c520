package recipe

import (
	"net/http"

	"recipe-app-api/internal/core/image"
	recipeService "recipe-app-api/internal/core/recipe"
	"recipe-app-api/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IngredientsRequest 依食材生成食譜請求
type IngredientsRequest struct {
	Ingredients string `json:"ingredients" binding:"required"`
}

// NameRequest 依名稱生成食譜請求
type NameRequest struct {
	RecipeName string `json:"recipe_name" binding:"required"`
}

// PhotoRequest 依照片生成食譜請求
// image_data: base64 或 data URI；mime_type 可選
type PhotoRequest struct {
	ImageData string `json:"image_data" binding:"required"`
	MimeType  string `json:"mime_type,omitempty"`
}

// HandleGenerateFromIngredients 處理 /generate/ingredients
func HandleGenerateFromIngredients(generator *recipeService.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := ensureRequestID(c)

		var req IngredientsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.LogWarn("請求格式無效",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			respondBadRequest(c, "Invalid request format")
			return
		}

		common.LogInfo("開始處理食材生成請求",
			zap.String("request_id", requestID),
			zap.String("client_ip", c.ClientIP()),
		)

		resp, err := generator.Generate(c.Request.Context(), common.GenerationRequest{
			Mode: common.ModeIngredients,
			Text: req.Ingredients,
		})
		if err != nil {
			common.LogError("食材生成失敗",
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.String("error_code", common.ErrorCode(err)),
			)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// HandleGenerateFromName 處理 /generate/name
func HandleGenerateFromName(generator *recipeService.Generator) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := ensureRequestID(c)

		var req NameRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.LogWarn("請求格式無效",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			respondBadRequest(c, "Invalid request format")
			return
		}

		common.LogInfo("開始處理名稱生成請求",
			zap.String("request_id", requestID),
			zap.String("client_ip", c.ClientIP()),
		)

		resp, err := generator.Generate(c.Request.Context(), common.GenerationRequest{
			Mode: common.ModeName,
			Text: req.RecipeName,
		})
		if err != nil {
			common.LogError("名稱生成失敗",
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.String("error_code", common.ErrorCode(err)),
			)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// HandleGenerateFromPhoto 處理 /generate/photo
func HandleGenerateFromPhoto(generator *recipeService.Generator, imageService *image.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := ensureRequestID(c)

		var req PhotoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			common.LogWarn("請求格式無效",
				zap.Error(err),
				zap.String("request_id", requestID),
			)
			respondBadRequest(c, "Invalid request format")
			return
		}

		imageData, mimeType, err := imageService.Prepare(req.ImageData)
		if err != nil {
			common.LogWarn("圖片處理失敗",
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.Int("image_length", len(req.ImageData)),
			)
			respondError(c, err)
			return
		}

		common.LogInfo("開始處理照片生成請求",
			zap.String("request_id", requestID),
			zap.String("client_ip", c.ClientIP()),
			zap.String("mime_type", mimeType),
		)

		resp, err := generator.Generate(c.Request.Context(), common.GenerationRequest{
			Mode:      common.ModeImage,
			ImageData: imageData,
			MimeType:  mimeType,
		})
		if err != nil {
			common.LogError("照片生成失敗",
				zap.Error(err),
				zap.String("request_id", requestID),
				zap.String("error_code", common.ErrorCode(err)),
			)
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}
