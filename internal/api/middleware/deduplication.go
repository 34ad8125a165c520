package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-app-api/internal/infrastructure/config"
	"recipe-app-api/internal/pkg/common"
)

// Deduplicator 請求去重器：以 方法+路徑+請求體哈希 作為指紋，
// 視窗內的重複 POST 直接拒絕。
type Deduplicator struct {
	mu       sync.RWMutex
	requests map[string]time.Time
	window   time.Duration
}

// NewDeduplicator 創建請求去重器並啟動週期清理
func NewDeduplicator(cfg *config.Config) *Deduplicator {
	window := 1 * time.Second
	if cfg != nil && cfg.DedupWindow > 0 {
		window = cfg.DedupWindow
	}

	d := &Deduplicator{
		requests: make(map[string]time.Time),
		window:   window,
	}

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			d.cleanup()
		}
	}()

	return d
}

func (d *Deduplicator) cleanup() {
	now := time.Now()
	d.mu.Lock()
	for k, t := range d.requests {
		if now.Sub(t) > 10*d.window {
			delete(d.requests, k)
		}
	}
	d.mu.Unlock()
}

// seen 檢查指紋是否在視窗內出現過，未出現則記錄
func (d *Deduplicator) seen(fingerprint string, now time.Time) bool {
	d.mu.RLock()
	lastTime, exists := d.requests[fingerprint]
	d.mu.RUnlock()
	if exists && now.Sub(lastTime) <= d.window {
		return true
	}

	d.mu.Lock()
	d.requests[fingerprint] = now
	d.mu.Unlock()
	return false
}

// Deduplication 請求去重中間件
func Deduplication(cfg *config.Config) gin.HandlerFunc {
	dedup := NewDeduplicator(cfg)

	return func(c *gin.Context) {
		// 只處理 POST 請求
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogError("Failed to read request body", zap.Error(err))
				c.Next()
				return
			}

			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		fingerprint := c.Request.Method + ":" + c.Request.URL.Path
		if bodyHash != "" {
			fingerprint += ":" + bodyHash
		}

		if dedup.seen(fingerprint, time.Now()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Request too frequent",
				"code":  "TOO_MANY_REQUESTS",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
