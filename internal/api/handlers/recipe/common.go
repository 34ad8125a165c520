package recipe

import (
	"net/http"

	"recipe-app-api/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ensureRequestID 取得或生成請求 ID
func ensureRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
		c.Header("X-Request-ID", requestID)
	}
	return requestID
}

// respondError 依錯誤碼與狀態回應，分類只看錯誤碼，不比對訊息字串
func respondError(c *gin.Context, err error) {
	c.JSON(common.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"code":  common.ErrorCode(err),
	})
}

// respondBadRequest 請求格式錯誤
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": message,
		"code":  common.ErrCodeInvalidRequest,
	})
}
