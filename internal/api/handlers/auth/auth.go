package auth

import (
	"net/http"

	coreauth "recipe-app-api/internal/core/auth"
	"recipe-app-api/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 認證 API 處理器
type Handler struct {
	store *coreauth.Store
}

// NewHandler 創建認證 API 處理器
func NewHandler(store *coreauth.Store) *Handler {
	return &Handler{store: store}
}

// SignUpRequest 註冊請求
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Username string `json:"username" binding:"required"`
}

// SignInRequest 登入請求
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// sessionView 對外的 session 呈現
type sessionView struct {
	AccessToken string         `json:"access_token,omitempty"`
	ExpiresAt   int64          `json:"expires_at,omitempty"`
	User        *coreauth.User `json:"user,omitempty"`
}

func snapshotResponse(snap coreauth.Snapshot) gin.H {
	resp := gin.H{
		"authenticated": snap.IsAuthenticated,
		"guest":         snap.IsGuest,
		"loading":       snap.Loading,
	}
	if snap.Session != nil {
		resp["session"] = sessionView{
			AccessToken: snap.Session.AccessToken,
			ExpiresAt:   snap.Session.ExpiresAt,
			User:        snap.User,
		}
	}
	return resp
}

func respondError(c *gin.Context, err error) {
	c.JSON(common.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"code":  common.ErrorCode(err),
	})
}

// HandleSignUp 處理 POST /auth/signup
func (h *Handler) HandleSignUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	if err := h.store.SignUp(c.Request.Context(), req.Email, req.Password, req.Username); err != nil {
		common.LogWarn("註冊失敗",
			zap.String("email", req.Email),
			zap.String("error_code", common.ErrorCode(err)),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, snapshotResponse(h.store.Snapshot()))
}

// HandleSignIn 處理 POST /auth/signin
func (h *Handler) HandleSignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	if err := h.store.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		common.LogWarn("登入失敗",
			zap.String("email", req.Email),
			zap.String("error_code", common.ErrorCode(err)),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshotResponse(h.store.Snapshot()))
}

// HandleSignOut 處理 POST /auth/signout
func (h *Handler) HandleSignOut(c *gin.Context) {
	if err := h.store.SignOut(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshotResponse(h.store.Snapshot()))
}

// HandleSession 處理 GET /auth/session，回傳目前狀態快照
func (h *Handler) HandleSession(c *gin.Context) {
	c.JSON(http.StatusOK, snapshotResponse(h.store.Snapshot()))
}
