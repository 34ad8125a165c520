package auth

import (
	"context"
	"sync"

	"recipe-app-api/internal/pkg/common"

	"go.uber.org/zap"
)

// Store 認證狀態存放區。以建構出的物件注入使用，不走全域變數。
// opMu 將所有認證操作序列化，杜絕交錯；stateMu 只短暫保護狀態讀寫，
// 通知訂閱者時不持有任何鎖。
type Store struct {
	backend Backend

	opMu sync.Mutex

	stateMu sync.RWMutex
	user    *User
	session *Session
	loading bool

	nextSubID   int
	subscribers map[int]func(Snapshot)
}

// NewStore 創建認證狀態存放區，初始為啟動中（loading=true）
func NewStore(backend Backend) *Store {
	return &Store{
		backend:     backend,
		loading:     true,
		subscribers: map[int]func(Snapshot){},
	}
}

// Snapshot 回傳目前狀態的一致快照
func (s *Store) Snapshot() Snapshot {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		User:            s.user,
		Session:         s.session,
		Loading:         s.loading,
		IsAuthenticated: s.user != nil,
		IsGuest:         s.user == nil && !s.loading,
	}
}

// Subscribe 註冊狀態變更觀察者，回傳取消函式。每次提交的轉換後
// 觀察者都會收到一份快照。
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.stateMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.stateMu.Unlock()

	return func() {
		s.stateMu.Lock()
		delete(s.subscribers, id)
		s.stateMu.Unlock()
	}
}

// setState 提交一次狀態轉換並在鎖外通知訂閱者
func (s *Store) setState(user *User, session *Session, loading bool) {
	s.stateMu.Lock()
	s.user = user
	s.session = session
	s.loading = loading
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.stateMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// applySession 套用後端回報的 session；與目前狀態相同時不重複通知
func (s *Store) applySession(session *Session) {
	s.stateMu.RLock()
	same := sessionEqual(s.session, session) && !s.loading
	s.stateMu.RUnlock()
	if same {
		return
	}

	if session != nil {
		s.setState(session.User, session, false)
	} else {
		s.setState(nil, nil, false)
	}
}

func sessionEqual(a, b *Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.AccessToken == b.AccessToken
}

// InitializeAuth 啟動認證：讀取目前 session 決定登入或訪客狀態，
// 並建立對後端認證事件的常駐訂閱。回傳的取消函式解除該訂閱。
// 後端讀取失敗時落到訪客狀態，錯誤仍回傳給呼叫端。
func (s *Store) InitializeAuth(ctx context.Context) (func(), error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	unsubscribe := s.backend.OnAuthChange(func(event string, session *Session) {
		common.LogAuthEvent("認證事件", zap.String("event", event))
		s.applySession(session)
	})

	session, err := s.backend.GetSession(ctx)
	if err != nil {
		common.LogError("讀取 session 失敗，以訪客狀態啟動", zap.Error(err))
		s.setState(nil, nil, false)
		return unsubscribe, common.WrapError(common.ErrAuth, err)
	}

	s.applySession(session)
	return unsubscribe, nil
}

// SignUp 註冊帳號並寫入個人資料列。個人資料寫入失敗時帳號已經建立，
// 錯誤會回傳但不回滾，留待後續補寫。
func (s *Store) SignUp(ctx context.Context, email, password, username string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(true)

	user, session, err := s.backend.SignUp(ctx, email, password, map[string]string{"username": username})
	if err != nil {
		s.setLoading(false)
		return common.WrapError(common.ErrAuth, err)
	}

	// 後端要求信箱確認時 session 為 nil，落回訪客狀態
	s.applySession(session)

	if err := s.backend.CreateProfile(ctx, ProfileRow{
		AuthUserID: user.ID,
		Username:   username,
		Email:      email,
	}); err != nil {
		common.LogPartialFailure("sign_up",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return common.WrapError(common.ErrAuth, err)
	}

	common.LogAuthEvent("註冊完成", zap.String("user_id", user.ID))
	return nil
}

// SignIn 密碼登入。成功的 session 轉換在回傳前同步套用，
// 不等待事件訂閱回報。
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.setLoading(true)

	session, err := s.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.setLoading(false)
		return common.WrapError(common.ErrAuth, err)
	}

	s.applySession(session)
	common.LogAuthEvent("登入完成", zap.String("email", email))
	return nil
}

// SignOut 登出。本地狀態先重設為訪客，後端呼叫失敗只記錄不影響狀態。
func (s *Store) SignOut(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.stateMu.RLock()
	session := s.session
	s.stateMu.RUnlock()

	s.setState(nil, nil, false)

	if session != nil {
		if err := s.backend.SignOut(ctx, session.AccessToken); err != nil {
			common.LogWarn("後端登出失敗", zap.Error(err))
		}
	}

	common.LogAuthEvent("登出完成")
	return nil
}

func (s *Store) setLoading(loading bool) {
	s.stateMu.RLock()
	user, session := s.user, s.session
	s.stateMu.RUnlock()
	s.setState(user, session, loading)
}
