package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"recipe-app-api/internal/core/auth"
	"recipe-app-api/internal/infrastructure/config"
	"recipe-app-api/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client supabase 客戶端：GoTrue 認證 + PostgREST 資料列存取。
// session 保存在客戶端，認證事件在成功的轉換後於本地派發。
type Client struct {
	http    *resty.Client
	anonKey string

	mu        sync.Mutex
	session   *auth.Session
	nextSubID int
	listeners map[int]func(event string, session *auth.Session)
}

// NewClient 創建 supabase 客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.Supabase.URL).
		SetTimeout(cfg.Supabase.Timeout).
		SetHeader("apikey", cfg.Supabase.AnonKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:      client,
		anonKey:   cfg.Supabase.AnonKey,
		listeners: map[int]func(string, *auth.Session){},
	}
}

// authPayload GoTrue 回應的共同欄位
type authPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *struct {
		ID           string            `json:"id"`
		Email        string            `json:"email"`
		UserMetadata map[string]string `json:"user_metadata"`
	} `json:"user"`
}

func (p *authPayload) user() *auth.User {
	if p.User == nil {
		return nil
	}
	return &auth.User{
		ID:       p.User.ID,
		Email:    p.User.Email,
		Metadata: p.User.UserMetadata,
	}
}

func (p *authPayload) session() *auth.Session {
	if p.AccessToken == "" {
		return nil
	}
	expiresAt := p.ExpiresAt
	if expiresAt == 0 && p.ExpiresIn > 0 {
		expiresAt = time.Now().Unix() + p.ExpiresIn
	}
	return &auth.Session{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         p.user(),
	}
}

// apiError GoTrue / PostgREST 的錯誤回應
type apiError struct {
	Message          string `json:"msg"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error"`
	Detail           string `json:"message"`
}

func (e *apiError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Message, e.Detail, e.ErrorCode} {
		if s != "" {
			return s
		}
	}
	return "unknown error"
}

func responseError(resp *resty.Response) error {
	var apiErr apiError
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil {
		return common.WrapError(common.ErrAuth,
			fmt.Errorf("supabase returned status %d: %s", resp.StatusCode(), apiErr.text()))
	}
	return common.WrapError(common.ErrAuth,
		fmt.Errorf("supabase returned status %d", resp.StatusCode()))
}

// SignUp 建立帳號。自動確認開啟時回應直接帶 session。
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*auth.User, *auth.Session, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		body["data"] = metadata
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/auth/v1/signup")
	if err != nil {
		return nil, nil, common.WrapError(common.ErrNetwork, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, nil, responseError(resp)
	}

	var payload authPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, nil, common.WrapError(common.ErrAuth, fmt.Errorf("failed to parse signup response: %w", err))
	}

	user := payload.user()
	if user == nil {
		// 回應缺少 session 時使用者資料在頂層
		if err := json.Unmarshal(resp.Body(), &payload.User); err != nil || payload.User == nil {
			return nil, nil, common.WrapError(common.ErrAuth, fmt.Errorf("signup response missing user"))
		}
		user = payload.user()
	}

	session := payload.session()
	if session != nil {
		c.setSession(session, auth.EventSignedIn)
	}

	common.LogAuthEvent("supabase 註冊", zap.String("user_id", user.ID))
	return user, session, nil
}

// SignInWithPassword 密碼登入
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{
			"email":    email,
			"password": password,
		}).
		Post("/auth/v1/token")
	if err != nil {
		return nil, common.WrapError(common.ErrNetwork, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, responseError(resp)
	}

	var payload authPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, common.WrapError(common.ErrAuth, fmt.Errorf("failed to parse signin response: %w", err))
	}

	session := payload.session()
	if session == nil {
		return nil, common.WrapError(common.ErrAuth, fmt.Errorf("signin response missing session"))
	}

	c.setSession(session, auth.EventSignedIn)
	return session, nil
}

// SignOut 撤銷存取憑證並清除本地 session
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+accessToken).
		Post("/auth/v1/logout")

	c.setSession(nil, auth.EventSignedOut)

	if err != nil {
		return common.WrapError(common.ErrNetwork, err)
	}
	if resp.StatusCode() != http.StatusNoContent && resp.StatusCode() != http.StatusOK {
		return responseError(resp)
	}
	return nil
}

// GetSession 回傳目前持有的 session；過期且有 refresh token 時刷新
func (c *Client) GetSession(ctx context.Context) (*auth.Session, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	if session == nil {
		return nil, nil
	}
	if session.ExpiresAt > 0 && time.Now().Unix() >= session.ExpiresAt {
		if session.RefreshToken == "" {
			c.setSession(nil, auth.EventSignedOut)
			return nil, nil
		}
		return c.refreshSession(ctx, session.RefreshToken)
	}
	return session, nil
}

func (c *Client) refreshSession(ctx context.Context, refreshToken string) (*auth.Session, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "refresh_token").
		SetBody(map[string]string{"refresh_token": refreshToken}).
		Post("/auth/v1/token")
	if err != nil {
		return nil, common.WrapError(common.ErrNetwork, err)
	}
	if resp.StatusCode() != http.StatusOK {
		c.setSession(nil, auth.EventSignedOut)
		return nil, responseError(resp)
	}

	var payload authPayload
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		c.setSession(nil, auth.EventSignedOut)
		return nil, common.WrapError(common.ErrAuth, fmt.Errorf("failed to parse refresh response: %w", err))
	}

	session := payload.session()
	if session == nil {
		c.setSession(nil, auth.EventSignedOut)
		return nil, common.WrapError(common.ErrAuth, fmt.Errorf("refresh response missing session"))
	}

	c.setSession(session, auth.EventTokenRefreshed)
	return session, nil
}

// OnAuthChange 訂閱認證事件，回傳取消函式
func (c *Client) OnAuthChange(fn func(event string, session *auth.Session)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// setSession 提交 session 轉換並派發事件
func (c *Client) setSession(session *auth.Session, event string) {
	c.mu.Lock()
	c.session = session
	fns := make([]func(string, *auth.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(event, session)
	}
}

// CreateProfile 寫入應用自有 users 表。password_hash 留空，
// 密碼只由認證後端持有。
func (c *Client) CreateProfile(ctx context.Context, row auth.ProfileRow) error {
	now := time.Now().UTC().Format(time.RFC3339)
	body := []map[string]interface{}{
		{
			"auth_user_id":  row.AuthUserID,
			"username":      row.Username,
			"email":         row.Email,
			"password_hash": "",
			"created_at":    now,
			"updated_at":    now,
		},
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.bearerToken()).
		SetHeader("Prefer", "return=minimal").
		SetBody(body).
		Post("/rest/v1/users")
	if err != nil {
		return common.WrapError(common.ErrNetwork, err)
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return responseError(resp)
	}
	return nil
}

// SavedRecipe recipes 表的資料列
type SavedRecipe struct {
	ID              int64  `json:"id,omitempty"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Ingredients     string `json:"ingredients,omitempty"`
	Steps           string `json:"steps,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
	CreatedByUserID string `json:"created_by_user_id,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
}

// SaveRecipe 以使用者憑證寫入 recipes 表
func (c *Client) SaveRecipe(ctx context.Context, accessToken string, recipe SavedRecipe) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+accessToken).
		SetHeader("Prefer", "return=minimal").
		SetBody([]SavedRecipe{recipe}).
		Post("/rest/v1/recipes")
	if err != nil {
		return common.WrapError(common.ErrNetwork, err)
	}
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return responseError(resp)
	}
	return nil
}

// ListRecipes 列出指定使用者儲存的食譜
func (c *Client) ListRecipes(ctx context.Context, accessToken, userID string) ([]SavedRecipe, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+accessToken).
		SetQueryParam("created_by_user_id", "eq."+userID).
		SetQueryParam("order", "created_at.desc").
		Get("/rest/v1/recipes")
	if err != nil {
		return nil, common.WrapError(common.ErrNetwork, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, responseError(resp)
	}

	var recipes []SavedRecipe
	if err := json.Unmarshal(resp.Body(), &recipes); err != nil {
		return nil, common.WrapError(common.ErrAuth, fmt.Errorf("failed to parse recipes response: %w", err))
	}
	return recipes, nil
}

// bearerToken 有使用者 session 時使用其憑證，否則退回 anon key
func (c *Client) bearerToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session.AccessToken
	}
	return c.anonKey
}
