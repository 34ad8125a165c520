package auth

import "context"

// User 已驗證的使用者帳號
type User struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Session 後端簽發的存取憑證
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user,omitempty"`
}

// Snapshot 認證狀態的一致快照。IsAuthenticated 與 IsGuest 由
// user/loading 推導，不會同時為 true。
type Snapshot struct {
	User            *User
	Session         *Session
	Loading         bool
	IsAuthenticated bool
	IsGuest         bool
}

// ProfileRow 應用自有 users 表的個人資料列
type ProfileRow struct {
	AuthUserID string `json:"auth_user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
}

// 認證變更事件
const (
	EventSignedIn       = "SIGNED_IN"
	EventSignedOut      = "SIGNED_OUT"
	EventTokenRefreshed = "TOKEN_REFRESHED"
)

// Backend 認證後端介面，由 supabase 客戶端實作
type Backend interface {
	// SignUp 建立帳號，確認流程關閉時同時回傳 session
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*User, *Session, error)
	// SignInWithPassword 密碼登入
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	// SignOut 撤銷指定的存取憑證
	SignOut(ctx context.Context, accessToken string) error
	// GetSession 取得目前持有的 session，無登入時回傳 nil
	GetSession(ctx context.Context) (*Session, error)
	// OnAuthChange 訂閱認證變更事件，回傳取消函式
	OnAuthChange(fn func(event string, session *Session)) (unsubscribe func())
	// CreateProfile 寫入應用自有 users 表
	CreateProfile(ctx context.Context, row ProfileRow) error
}
