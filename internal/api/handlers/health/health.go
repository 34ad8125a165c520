package health

import (
	"net/http"
	"runtime"
	"time"

	"recipe-app-api/internal/core/ai/service"
	"recipe-app-api/internal/infrastructure/config"
	"recipe-app-api/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *QueueStatus           `json:"queue,omitempty"`
}

// QueueStatus 隊列狀態
type QueueStatus struct {
	QueueLength    int `json:"queue_length"`
	ProcessedCount int `json:"processed_count"`
	MaxQueueSize   int `json:"max_queue_size"`
	Workers        int `json:"workers"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(cfg *config.Config, aiService *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		response := HealthResponse{
			Status:    "ok",
			Timestamp: time.Now(),
			Version:   cfg.App.Version,
			Runtime: map[string]interface{}{
				"goroutines": runtime.NumGoroutine(),
				"memory": map[string]interface{}{
					"alloc":       m.Alloc,
					"total_alloc": m.TotalAlloc,
					"sys":         m.Sys,
					"num_gc":      m.NumGC,
				},
			},
		}

		if aiService != nil {
			if status := aiService.QueueStatus(); status != nil {
				response.Queue = &QueueStatus{
					QueueLength:    status.QueueLength,
					ProcessedCount: status.ProcessedCount,
					MaxQueueSize:   status.MaxQueueSize,
					Workers:        status.Workers,
				}
			}
		}

		common.LogDebug("Health check request",
			zap.String("client_ip", c.ClientIP()),
			zap.String("path", c.Request.URL.Path),
		)

		c.JSON(http.StatusOK, response)
	}
}

// ReadinessCheck 就緒檢查處理器
func ReadinessCheck(aiService *service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if aiService == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	}
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
