package middleware

import (
	"net/http"
	"strings"

	"recipe-app-api/internal/core/auth"
	"recipe-app-api/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// context key
const (
	ContextKeyUser        = "auth_user"
	ContextKeyAccessToken = "auth_access_token"
)

// RequireAuth 認證守衛：要求 Bearer token 且與目前 session 一致，
// 通過後把使用者與憑證放進請求上下文。
func RequireAuth(store *auth.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing bearer token",
				"code":  common.ErrCodeAuth,
			})
			return
		}

		snap := store.Snapshot()
		if !snap.IsAuthenticated || snap.Session == nil || snap.Session.AccessToken != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired session",
				"code":  common.ErrCodeAuth,
			})
			return
		}

		c.Set(ContextKeyUser, snap.User)
		c.Set(ContextKeyAccessToken, token)
		c.Next()
	}
}

// CurrentUser 取出認證守衛放入的使用者
func CurrentUser(c *gin.Context) (*auth.User, bool) {
	v, exists := c.Get(ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*auth.User)
	return user, ok
}

// AccessToken 取出認證守衛放入的存取憑證
func AccessToken(c *gin.Context) string {
	return c.GetString(ContextKeyAccessToken)
}
