package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	authHandler "recipe-app-api/internal/api/handlers/auth"
	"recipe-app-api/internal/api/handlers/health"
	recipeHandler "recipe-app-api/internal/api/handlers/recipe"
	"recipe-app-api/internal/api/middleware"
	"recipe-app-api/internal/core/ai/cache"
	"recipe-app-api/internal/core/ai/service"
	coreauth "recipe-app-api/internal/core/auth"
	"recipe-app-api/internal/core/auth/supabase"
	"recipe-app-api/internal/core/image"
	recipeService "recipe-app-api/internal/core/recipe"
	"recipe-app-api/internal/infrastructure/config"
	"recipe-app-api/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 請求超時
	timeoutDuration = 120 * time.Second
	// 請求體大小限制 (10MB)
	maxBodySize = 10 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, cacheManager *cache.CacheManager, authStore *coreauth.Store, sbClient *supabase.Client) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Int("queue_workers", cfg.Queue.Workers),
		zap.String("model", cfg.Gemini.Model),
		zap.Duration("timeout", timeoutDuration),
	)

	// 初始化服務
	aiService, err := service.NewService(cfg, cacheManager)
	if err != nil {
		common.LogError("Failed to initialize AI service", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize AI service: %w", err)
	}

	imageService := image.NewService(cfg.Image.MaxSizeBytes)
	generator := recipeService.NewGenerator(cfg, aiService)

	// 請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  "REQUEST_TIMEOUT",
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck(cfg, aiService))
	router.GET("/ready", health.ReadinessCheck(aiService))
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		// 生成路由：限流 + 去重
		generateGroup := api.Group("/generate")
		if cfg.RateLimit.Enabled {
			generateGroup.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
		}
		generateGroup.Use(middleware.Deduplication(cfg))
		{
			generateGroup.POST("/ingredients", recipeHandler.HandleGenerateFromIngredients(generator))
			generateGroup.POST("/name", recipeHandler.HandleGenerateFromName(generator))
			generateGroup.POST("/photo", recipeHandler.HandleGenerateFromPhoto(generator, imageService))
		}

		// 認證路由
		authGroup := api.Group("/auth")
		{
			h := authHandler.NewHandler(authStore)
			authGroup.POST("/signup", h.HandleSignUp)
			authGroup.POST("/signin", h.HandleSignIn)
			authGroup.POST("/signout", h.HandleSignOut)
			authGroup.GET("/session", h.HandleSession)
		}

		// 已儲存食譜路由：需要登入
		recipesGroup := api.Group("/recipes")
		recipesGroup.Use(middleware.RequireAuth(authStore))
		{
			recipesGroup.POST("", recipeHandler.HandleSaveRecipe(sbClient))
			recipesGroup.GET("", recipeHandler.HandleListRecipes(sbClient))
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
